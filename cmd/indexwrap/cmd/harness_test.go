package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testProjectConfig = `version: 1
namespace: index-wrapper
indexes:
  index-wrapper.Person.email: "name:people-email"
  index-wrapper.Person.age: "name:in-memory,version:1.0"
legacy:
  backend: sqlite
`

// isolate points user configuration and INDEXWRAP_* variables away from the
// machine running the tests.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, v := range []string{
		"INDEXWRAP_NAMESPACE", "INDEXWRAP_LEGACY_BACKEND", "INDEXWRAP_LEGACY_PATH",
		"INDEXWRAP_CATALOG_PATH", "INDEXWRAP_NAME_CACHE_SIZE", "INDEXWRAP_LOG_LEVEL",
	} {
		t.Setenv(v, "")
	}
	return home
}

// newProject creates a project directory holding cfg as .indexwrap.yaml.
func newProject(t *testing.T, cfg string) string {
	t.Helper()
	isolate(t)
	dir := t.TempDir()
	if cfg != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".indexwrap.yaml"), []byte(cfg), 0o644))
	}
	return dir
}

// run executes one CLI invocation against dir and returns its stdout.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config-dir", dir, "--no-color"}, args...))
	err := cmd.Execute()
	_ = finish()
	return stdout.String(), err
}

// mustRun is run for invocations expected to succeed.
func mustRun(t *testing.T, dir, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, stdin, args...)
	require.NoError(t, err, "indexwrap %s", strings.Join(args, " "))
	return out
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}
