package legacy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", BackendSQLite, false},
		{"sqlite", BackendSQLite, false},
		{" Bleve ", BackendBleve, false},
		{"memory", BackendMemory, false},
		{"lucene", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				assert.Equal(t, werrors.ErrCodeConfigInvalid, werrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStoreWithBackend(t *testing.T) {
	tests := []struct {
		backend Backend
		want    any
	}{
		{BackendSQLite, &SQLiteStore{}},
		{"", &SQLiteStore{}},
		{BackendBleve, &BleveStore{}},
		{BackendMemory, &MemoryStore{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			s, err := NewStoreWithBackend("", tt.backend)
			require.NoError(t, err)
			defer func() { _ = s.Close() }()
			assert.IsType(t, tt.want, s)
		})
	}

	_, err := NewStoreWithBackend("", "nope")
	assert.Error(t, err)
}

func TestDetectBackend(t *testing.T) {
	empty := t.TempDir()
	assert.Equal(t, Backend(""), DetectBackend(empty))
	assert.Equal(t, Backend(""), DetectBackend(filepath.Join(empty, "missing")))

	sq := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sq, SQLiteFileName), nil, 0o644))
	assert.Equal(t, BackendSQLite, DetectBackend(sq))

	bl := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(bl, "foo"+BleveSuffix), 0o755))
	assert.Equal(t, BackendBleve, DetectBackend(bl))
}

func TestOpen_LocksDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Given: an open store
	s, err := Open(ctx, dir, BackendSQLite)
	require.NoError(t, err)

	// Then: another opener sees the lock
	err = NewDirLock(dir).TryLock()
	assert.Equal(t, werrors.ErrCodeStoreLocked, werrors.GetCode(err))

	// When: closing
	require.NoError(t, s.Close())

	// Then: the lock is free again
	l := NewDirLock(dir)
	require.NoError(t, l.TryLock())
	require.NoError(t, l.Unlock())
}

func TestOpen_PrefersExistingBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Given: a bleve store with data
	s, err := Open(ctx, dir, BackendBleve)
	require.NoError(t, err)
	idx, err := s.ForEntities(ctx, "foo-bar", nil)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, index.Entity{ID: 3}, "bar", "x"))
	require.NoError(t, s.Close())

	// When: reopening with sqlite configured
	s, err = Open(ctx, dir, BackendSQLite)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	// Then: the bleve data is still reachable
	idx, err = s.ForEntities(ctx, "foo-bar", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, collect(t, idx, "bar", "x"))
	assert.NoFileExists(t, filepath.Join(dir, SQLiteFileName))
}

func TestOpen_MemoryIgnoresDir(t *testing.T) {
	s, err := Open(context.Background(), t.TempDir(), BackendMemory)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}
