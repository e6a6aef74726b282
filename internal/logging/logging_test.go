package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPaths(t *testing.T) {
	assert.Contains(t, DefaultLogDir(), ".indexwrap")
	assert.Equal(t, "indexwrap.log", filepath.Base(DefaultLogPath()))
}

func TestDefaultAndDebugConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.Level)
	assert.Empty(t, cfg.FilePath)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)

	debug := cfg.WithDebug()
	assert.Equal(t, "debug", debug.Level)
	assert.Equal(t, DefaultLogPath(), debug.FilePath)

	cfg.FilePath = "/var/log/indexwrap.log"
	assert.Equal(t, "/var/log/indexwrap.log", cfg.WithDebug().FilePath)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func TestSetup_WritesJSONToFileAndTextToStderr(t *testing.T) {
	// Given: a file path and a captured stderr
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")
	var stderr bytes.Buffer

	logger, cleanup, err := Setup(Config{
		Level:     "debug",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  3,
		Stderr:    &stderr,
	})
	require.NoError(t, err)

	// When: logging one record
	logger.Info("route_established", slog.Int64("index_id", 7))
	cleanup()

	// Then: the file holds JSON and stderr holds text
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "route_established", rec["msg"])
	assert.EqualValues(t, 7, rec["index_id"])
	assert.Contains(t, stderr.String(), "msg=route_established")
}

func TestSetup_LevelFiltersRecords(t *testing.T) {
	var stderr bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "warn", Stderr: &stderr})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "shown")
}

func TestSetup_NoOutputs(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	require.NoError(t, err)
	defer cleanup()

	assert.NotPanics(t, func() { logger.Info("discarded") })
}

func TestFindLogFile(t *testing.T) {
	_, err := FindLogFile(filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "present.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	got, err := FindLogFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestRotatingWriter_Rotation(t *testing.T) {
	// Given: a writer whose limit is forced tiny
	path := filepath.Join(t.TempDir(), "rot.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	w.maxSize = 10
	defer func() { _ = w.Close() }()

	// When: writing past the limit three times
	for i := 0; i < 4; i++ {
		_, err := fmt.Fprintf(w, "line-%d-xx\n", i)
		require.NoError(t, err)
	}

	// Then: only maxFiles rotated files are kept
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	newest, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "line-2-xx\n", string(newest))
}

func TestRotatingWriter_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "c.log"), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.log")
	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = fmt.Fprintf(w, "g%d-%d\n", g, i)
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 400)
}
