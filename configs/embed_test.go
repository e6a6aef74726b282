package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/indexwrap/internal/config"
)

func TestTemplates_ParseAndValidate(t *testing.T) {
	for name, tmpl := range map[string]string{
		"user":    UserConfigTemplate,
		"project": ProjectConfigTemplate,
	} {
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, tmpl)

			cfg := config.NewConfig()
			require.NoError(t, yaml.Unmarshal([]byte(tmpl), cfg))
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestProjectTemplate_RoutesAreCommentedOut(t *testing.T) {
	cfg := config.NewConfig()
	require.NoError(t, yaml.Unmarshal([]byte(ProjectConfigTemplate), cfg))

	assert.Empty(t, cfg.Indexes)
	assert.Equal(t, "index-wrapper", cfg.Namespace)
}
