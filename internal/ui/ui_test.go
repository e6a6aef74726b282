package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_StringAndIcon(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		icon  string
	}{
		{StageCreating, "Creating", "CREATE"},
		{StageAdding, "Adding", "ADD"},
		{StageClosing, "Closing", "CLOSE"},
		{StageComplete, "Complete", "DONE"},
		{Stage(42), "Unknown", "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.stage.String())
			assert.Equal(t, tt.icon, tt.stage.Icon())
		})
	}
}

func TestNewConfig_Options(t *testing.T) {
	buf := &bytes.Buffer{}

	cfg := NewConfig(buf, WithForcePlain(true), WithNoColor(true), WithTitle("index 3"))

	assert.Same(t, buf, cfg.Output)
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "index 3", cfg.Title)
}

func TestNewRenderer_PlainForNonTTY(t *testing.T) {
	// Given: output that is not a terminal
	buf := &bytes.Buffer{}

	// When: creating a renderer without forcing plain mode
	r := NewRenderer(NewConfig(buf))

	// Then: the plain renderer is chosen
	assert.IsType(t, &PlainRenderer{}, r)
}

func TestDetectCI(t *testing.T) {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		t.Setenv(v, "")
	}
	// t.Setenv cannot unset, so only the positive case is reliable here.
	assert.True(t, DetectCI())
}
