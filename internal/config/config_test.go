package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
)

// isolate points the user config at an empty temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, k := range []string{
		"INDEXWRAP_NAMESPACE", "INDEXWRAP_LEGACY_BACKEND", "INDEXWRAP_LEGACY_PATH",
		"INDEXWRAP_CATALOG_PATH", "INDEXWRAP_NAME_CACHE_SIZE", "INDEXWRAP_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return xdg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "index-wrapper", cfg.Namespace)
	assert.Empty(t, cfg.Indexes)
	assert.Equal(t, "sqlite", cfg.Legacy.Backend)
	assert.Equal(t, filepath.Join(".indexwrap", "legacy"), cfg.Legacy.Path)
	assert.Equal(t, filepath.Join(".indexwrap", "catalog.db"), cfg.Catalog.Path)
	assert.Equal(t, 1024, cfg.Catalog.NameCacheSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.Equal(t, 5, cfg.Logging.MaxFiles)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// Given: a project config
	writeFile(t, filepath.Join(dir, ".indexwrap.yaml"), `
namespace: ns
indexes:
  ns.Person.email: "name:person-email-index"
  ns.Movie.title: "name:in-memory,version:1.0"
legacy:
  backend: bleve
catalog:
  name_cache_size: 16
logging:
  level: debug
`)

	// When: loading
	cfg, err := Load(dir)

	// Then: file values win, untouched fields keep defaults
	require.NoError(t, err)
	assert.Equal(t, "ns", cfg.Namespace)
	assert.Equal(t, map[string]string{
		"ns.Person.email": "name:person-email-index",
		"ns.Movie.title":  "name:in-memory,version:1.0",
	}, cfg.Indexes)
	assert.Equal(t, "bleve", cfg.Legacy.Backend)
	assert.Equal(t, filepath.Join(".indexwrap", "legacy"), cfg.Legacy.Path)
	assert.Equal(t, 16, cfg.Catalog.NameCacheSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".indexwrap.yml"), "namespace: from-yml\n")
	writeFile(t, filepath.Join(dir, ".indexwrap.yaml"), "namespace: from-yaml\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Namespace)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".indexwrap.yml"), "namespace: from-yml\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "from-yml", cfg.Namespace)
}

func TestLoad_InvalidYaml_ReturnsConfigError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".indexwrap.yaml"), "indexes: [unterminated\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Equal(t, werrors.ErrCodeConfigInvalid, werrors.GetCode(err))
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed route", "indexes:\n  index-wrapper.Person.email: \"name\"\n", "invalid route for index-wrapper.Person.email"},
		{"route without name", "indexes:\n  index-wrapper.Person.email: \"version:2\"\n", "invalid route"},
		{"unknown backend", "legacy:\n  backend: rocks\n", "unknown legacy backend"},
		{"bad log level", "logging:\n  level: loud\n", "logging.level"},
		{"negative cache", "catalog:\n  name_cache_size: -1\n", "name_cache_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ".indexwrap.yaml"), tt.content)

			_, err := Load(dir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, werrors.ErrCodeConfigInvalid, werrors.GetCode(err))
		})
	}
}

func TestLoad_UserConfigThenProjectThenEnv(t *testing.T) {
	xdg := isolate(t)
	dir := t.TempDir()

	// Given: user, project and env layers
	writeFile(t, filepath.Join(xdg, "indexwrap", "config.yaml"), `
namespace: user-ns
indexes:
  user-ns.A.b: "name:from-user"
  proj.A.b: "name:from-user"
legacy:
  backend: bleve
  path: /var/lib/indexwrap
`)
	writeFile(t, filepath.Join(dir, ".indexwrap.yaml"), `
namespace: proj
indexes:
  proj.A.b: "name:from-project"
`)
	t.Setenv("INDEXWRAP_LEGACY_BACKEND", "memory")
	t.Setenv("INDEXWRAP_LOG_LEVEL", "error")

	cfg, err := Load(dir)

	// Then: later layers win, index entries merge key by key
	require.NoError(t, err)
	assert.Equal(t, "proj", cfg.Namespace)
	assert.Equal(t, "name:from-user", cfg.Indexes["user-ns.A.b"])
	assert.Equal(t, "name:from-project", cfg.Indexes["proj.A.b"])
	assert.Equal(t, "memory", cfg.Legacy.Backend)
	assert.Equal(t, "/var/lib/indexwrap", cfg.Legacy.Path)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("INDEXWRAP_NAMESPACE", "env-ns")
	t.Setenv("INDEXWRAP_LEGACY_PATH", "data/legacy")
	t.Setenv("INDEXWRAP_CATALOG_PATH", "data/catalog.db")
	t.Setenv("INDEXWRAP_NAME_CACHE_SIZE", "64")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "env-ns", cfg.Namespace)
	assert.Equal(t, "data/legacy", cfg.Legacy.Path)
	assert.Equal(t, "data/catalog.db", cfg.Catalog.Path)
	assert.Equal(t, 64, cfg.Catalog.NameCacheSize)
}

func TestLoad_InvalidEnvNumber_IsIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("INDEXWRAP_NAME_CACHE_SIZE", "lots")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Catalog.NameCacheSize)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	xdg := isolate(t)
	writeFile(t, filepath.Join(xdg, "indexwrap", "config.yaml"), "namespace: [\n")

	_, err := Load(t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load user config")
}

func TestConfig_RouteParamsIsACopy(t *testing.T) {
	cfg := NewConfig()
	cfg.Indexes["index-wrapper.Person.email"] = "name:people"

	params := cfg.RouteParams()
	params["index-wrapper.Person.age"] = "name:ages"

	assert.Len(t, cfg.Indexes, 1)
	assert.Equal(t, "name:people", params["index-wrapper.Person.email"])
}

func TestConfig_ResolvedPaths(t *testing.T) {
	cfg := NewConfig()
	root := filepath.Join(string(filepath.Separator), "proj")

	assert.Equal(t, filepath.Join(root, ".indexwrap", "legacy"), cfg.LegacyDir(root))
	assert.Equal(t, filepath.Join(root, ".indexwrap", "catalog.db"), cfg.CatalogPath(root))

	cfg.Catalog.Path = filepath.Join(string(filepath.Separator), "abs", "catalog.db")
	assert.Equal(t, cfg.Catalog.Path, cfg.CatalogPath(root))

	cfg.Legacy.Backend = "MEMORY"
	assert.Empty(t, cfg.LegacyDir(root))
}

func TestConfig_LogConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.FilePath = "/tmp/indexwrap.log"
	cfg.Logging.MaxFiles = 0

	lc := cfg.LogConfig()

	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "/tmp/indexwrap.log", lc.FilePath)
	assert.Equal(t, 10, lc.MaxSizeMB)
	assert.Equal(t, 5, lc.MaxFiles)
}

func TestConfig_WriteYAML_RoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Indexes["index-wrapper.Person.email"] = "name:people"

	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectFileName)))
	loaded, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	xdg := isolate(t)
	assert.Equal(t, filepath.Join(xdg, "indexwrap", "config.yaml"), GetUserConfigPath())
	assert.Equal(t, filepath.Join(xdg, "indexwrap"), GetUserConfigDir())
	assert.False(t, UserConfigExists())
}

func TestFindProjectRoot(t *testing.T) {
	t.Run("config file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".indexwrap.yaml"), "version: 1\n")
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		got, err := FindProjectRoot(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("git directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
		nested := filepath.Join(root, "pkg")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		got, err := FindProjectRoot(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})
}
