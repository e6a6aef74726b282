// Package ui renders index population progress: a bubbletea view on
// interactive terminals and plain lines for pipes and CI.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/Aman-CERP/indexwrap/internal/output"
)

// Stage is a step of an index population.
type Stage int

const (
	// StageCreating prepares backing storage.
	StageCreating Stage = iota
	// StageAdding adds entity/value records.
	StageAdding
	// StageClosing closes the population.
	StageClosing
	// StageComplete indicates the population finished.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageCreating:
		return "Creating"
	case StageAdding:
		return "Adding"
	case StageClosing:
		return "Closing"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag used by plain output.
func (s Stage) Icon() string {
	switch s {
	case StageCreating:
		return "CREATE"
	case StageAdding:
		return "ADD"
	case StageClosing:
		return "CLOSE"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent reports how many records of the current stage are done.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Message string
}

// ErrorEvent reports a failed record. Record is 1-based; zero means the
// failure is not tied to a record.
type ErrorEvent struct {
	Record int
	Err    error
	IsWarn bool
}

// CompletionStats summarizes a finished population.
type CompletionStats struct {
	IndexID  int64
	Records  int
	Target   string // e.g. "legacy: people-email"
	Duration time.Duration
	Errors   int
	Warnings int
}

// Renderer displays population progress.
type Renderer interface {
	Start(ctx context.Context) error
	UpdateProgress(event ProgressEvent)
	AddError(event ErrorEvent)
	Complete(stats CompletionStats)
	Stop() error
}

// Config configures a renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Title      string // shown in the TUI header
}

// ConfigOption modifies a Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) { c.ForcePlain = force }
}

// WithNoColor disables colored output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) { c.NoColor = noColor }
}

// WithTitle sets the TUI header title.
func WithTitle(title string) ConfigOption {
	return func(c *Config) { c.Title = title }
}

// NewConfig creates a Config writing to output.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// renderer for CI, pipes, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !output.IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
