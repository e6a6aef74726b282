package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/internal/logging"
	"github.com/Aman-CERP/indexwrap/internal/route"
)

// Project configuration file names, in order of precedence.
const (
	ProjectFileName    = ".indexwrap.yaml"
	ProjectFileNameAlt = ".indexwrap.yml"
)

// Config represents the complete indexwrap configuration.
type Config struct {
	Version int `yaml:"version" json:"version"`

	// Namespace prefixes route keys: <namespace>.<label>.<property>.
	Namespace string `yaml:"namespace" json:"namespace"`

	// Indexes maps route keys to route values such as "name:people,version:1.0".
	Indexes map[string]string `yaml:"indexes,omitempty" json:"indexes,omitempty"`

	Legacy  LegacyConfig  `yaml:"legacy" json:"legacy"`
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LegacyConfig configures the legacy index store.
type LegacyConfig struct {
	// Backend is sqlite, bleve or memory.
	Backend string `yaml:"backend" json:"backend"`
	// Path is the store directory, relative to the project root.
	Path string `yaml:"path" json:"path"`
}

// CatalogConfig configures the metadata catalog.
type CatalogConfig struct {
	// Path is the catalog database, relative to the project root.
	Path          string `yaml:"path" json:"path"`
	NameCacheSize int    `yaml:"name_cache_size" json:"name_cache_size"`
}

// LoggingConfig configures file logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig returns a Config with defaults applied.
func NewConfig() *Config {
	return &Config{
		Version:   1,
		Namespace: route.DefaultNamespace,
		Indexes:   map[string]string{},
		Legacy: LegacyConfig{
			Backend: string(legacy.BackendSQLite),
			Path:    filepath.Join(".indexwrap", "legacy"),
		},
		Catalog: CatalogConfig{
			Path:          filepath.Join(".indexwrap", "catalog.db"),
			NameCacheSize: 1024,
		},
		Logging: LoggingConfig{
			Level:     "warn",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/indexwrap/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/indexwrap/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "indexwrap", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "indexwrap", "config.yaml")
	}
	return filepath.Join(home, ".config", "indexwrap", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := &Config{}
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/indexwrap/config.yaml)
//  3. Project config (.indexwrap.yaml in dir)
//  4. Environment variables (INDEXWRAP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := LoadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if path := ProjectConfigPath(dir); path != "" {
		parsed := &Config{}
		if err := parsed.loadYAML(path); err != nil {
			return nil, err
		}
		cfg.mergeWith(parsed)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project configuration file in dir, or ""
// when there is none. The .yaml extension wins over .yml.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectFileName, ProjectFileNameAlt} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return werrors.New(werrors.ErrCodeConfigPermission,
				fmt.Sprintf("cannot read config file %s", path), err)
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return werrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

// mergeWith merges non-zero values from other into c. Index entries are
// merged key by key.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Namespace != "" {
		c.Namespace = other.Namespace
	}
	if len(other.Indexes) > 0 {
		if c.Indexes == nil {
			c.Indexes = make(map[string]string, len(other.Indexes))
		}
		maps.Copy(c.Indexes, other.Indexes)
	}

	if other.Legacy.Backend != "" {
		c.Legacy.Backend = other.Legacy.Backend
	}
	if other.Legacy.Path != "" {
		c.Legacy.Path = other.Legacy.Path
	}

	if other.Catalog.Path != "" {
		c.Catalog.Path = other.Catalog.Path
	}
	if other.Catalog.NameCacheSize != 0 {
		c.Catalog.NameCacheSize = other.Catalog.NameCacheSize
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies INDEXWRAP_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INDEXWRAP_NAMESPACE"); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv("INDEXWRAP_LEGACY_BACKEND"); v != "" {
		c.Legacy.Backend = v
	}
	if v := os.Getenv("INDEXWRAP_LEGACY_PATH"); v != "" {
		c.Legacy.Path = v
	}
	if v := os.Getenv("INDEXWRAP_CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("INDEXWRAP_NAME_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Catalog.NameCacheSize = n
		}
	}
	if v := os.Getenv("INDEXWRAP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration and returns an error if invalid.
// Every index entry must parse as a route value.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return werrors.ConfigError("namespace must not be empty", nil)
	}

	if _, err := legacy.ParseBackend(c.Legacy.Backend); err != nil {
		return err
	}

	for _, key := range slices.Sorted(maps.Keys(c.Indexes)) {
		if _, err := route.ParseSpec(c.Indexes[key]); err != nil {
			return werrors.ConfigError(fmt.Sprintf("invalid route for %s", key), err).
				WithDetail("key", key)
		}
	}

	if c.Catalog.NameCacheSize < 0 {
		return werrors.ConfigError(
			fmt.Sprintf("catalog.name_cache_size must be non-negative, got %d", c.Catalog.NameCacheSize), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return werrors.ConfigError(
			fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return werrors.ConfigError("logging.max_size_mb and logging.max_files must be non-negative", nil)
	}

	return nil
}

// RouteParams returns a copy of the index entries. The router keeps its own
// copy, so later changes to c are not seen by it.
func (c *Config) RouteParams() map[string]string {
	return maps.Clone(c.Indexes)
}

// LegacyDir returns the legacy store directory resolved against root. The
// memory backend has no directory.
func (c *Config) LegacyDir(root string) string {
	if b, _ := legacy.ParseBackend(c.Legacy.Backend); b == legacy.BackendMemory {
		return ""
	}
	return resolve(root, c.Legacy.Path)
}

// CatalogPath returns the catalog database resolved against root.
func (c *Config) CatalogPath(root string) string {
	return resolve(root, c.Catalog.Path)
}

// LogConfig converts the logging section for logging.Setup.
func (c *Config) LogConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.FilePath = c.Logging.FilePath
	if c.Logging.MaxSizeMB > 0 {
		lc.MaxSizeMB = c.Logging.MaxSizeMB
	}
	if c.Logging.MaxFiles > 0 {
		lc.MaxFiles = c.Logging.MaxFiles
	}
	return lc
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a project config file
// or a .git directory. It returns startDir itself when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if ProjectConfigPath(currentDir) != "" || dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
