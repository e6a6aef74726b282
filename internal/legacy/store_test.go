package legacy

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// storeFactories builds every backend, in memory and on disk.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite_mem": func(t *testing.T) Store {
			s, err := NewSQLiteStore("")
			require.NoError(t, err)
			return s
		},
		"sqlite_file": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), SQLiteFileName))
			require.NoError(t, err)
			return s
		},
		"bleve_mem": func(t *testing.T) Store {
			s, err := NewBleveStore("")
			require.NoError(t, err)
			return s
		},
		"bleve_dir": func(t *testing.T) Store {
			s, err := NewBleveStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
}

func collect(t *testing.T, idx Index, key string, value any) []int64 {
	t.Helper()
	hits, err := idx.Query(context.Background(), key, value)
	require.NoError(t, err)
	ids, err := index.Collect(hits)
	require.NoError(t, err)
	return ids
}

func TestStore_SetSemantics(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer func() { _ = s.Close() }()

			idx, err := s.ForEntities(ctx, "foo-bar", map[string]string{"name": "foo-bar"})
			require.NoError(t, err)
			assert.Equal(t, "foo-bar", idx.Name())

			// When: adding twice, plus a second entity and a different value
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 5}, "email", "a@b.com"))
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 5}, "email", "a@b.com"))
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 2}, "email", "a@b.com"))
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 9}, "email", "c@d.com"))

			// Then: duplicates collapse and ids come back ascending
			assert.Equal(t, []int64{2, 5}, collect(t, idx, "email", "a@b.com"))
			assert.Equal(t, []int64{9}, collect(t, idx, "email", "c@d.com"))
			assert.Empty(t, collect(t, idx, "email", "x@y.com"))
			assert.Empty(t, collect(t, idx, "name", "a@b.com"))

			// When: removing an entry and a missing entry
			require.NoError(t, idx.Remove(ctx, index.Entity{ID: 5}, "email", "a@b.com"))
			require.NoError(t, idx.Remove(ctx, index.Entity{ID: 77}, "email", "nope"))

			assert.Equal(t, []int64{2}, collect(t, idx, "email", "a@b.com"))
		})
	}
}

func TestStore_TypedValues(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer func() { _ = s.Close() }()

			idx, err := s.ForEntities(ctx, "typed", nil)
			require.NoError(t, err)

			require.NoError(t, idx.Add(ctx, index.Entity{ID: 1}, "age", 7))
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 2}, "age", "7"))
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 3}, "age", 7.5))

			assert.Equal(t, []int64{1}, collect(t, idx, "age", int64(7)))
			assert.Equal(t, []int64{2}, collect(t, idx, "age", "7"))
			assert.Equal(t, []int64{3}, collect(t, idx, "age", 7.5))

			err = idx.Add(ctx, index.Entity{ID: 4}, "age", []int{1})
			assert.ErrorIs(t, err, index.ErrUnsupportedValue)
			assert.Equal(t, werrors.ErrCodeUnsupportedValue, werrors.GetCode(err))
		})
	}
}

func TestStore_ParamsAndNames(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer func() { _ = s.Close() }()

			params := map[string]string{"name": "b-idx", "type": "exact"}
			first, err := s.ForEntities(ctx, "b-idx", params)
			require.NoError(t, err)
			_, err = s.ForEntities(ctx, "a-idx", nil)
			require.NoError(t, err)

			// Then: reopening with the same params returns the same data
			require.NoError(t, first.Add(ctx, index.Entity{ID: 1}, "k", "v"))
			again, err := s.ForEntities(ctx, "b-idx", map[string]string{"type": "exact", "name": "b-idx"})
			require.NoError(t, err)
			assert.Equal(t, params, again.Params())
			assert.Equal(t, []int64{1}, collect(t, again, "k", "v"))

			// And: different params are rejected
			_, err = s.ForEntities(ctx, "b-idx", map[string]string{"name": "other"})
			assert.Equal(t, werrors.ErrCodeConfigInvalid, werrors.GetCode(err))

			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a-idx", "b-idx"}, names)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer func() { _ = s.Close() }()

			idx, err := s.ForEntities(ctx, "gone", nil)
			require.NoError(t, err)
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 1}, "k", "v"))

			require.NoError(t, idx.Delete(ctx))

			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.NotContains(t, names, "gone")

			fresh, err := s.ForEntities(ctx, "gone", nil)
			require.NoError(t, err)
			assert.Empty(t, collect(t, fresh, "k", "v"))
		})
	}
}

func TestStore_ConcurrentFirstOpen(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer func() { _ = s.Close() }()

			// Given: 32 callers opening the same new index at once
			const callers = 32
			params := map[string]string{"name": "fresh"}
			errs := make([]error, callers)
			var wg sync.WaitGroup
			for i := range callers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					idx, err := s.ForEntities(ctx, "fresh", params)
					if err == nil {
						err = idx.Add(ctx, index.Entity{ID: int64(i + 1)}, "k", "v")
					}
					errs[i] = err
				}(i)
			}
			wg.Wait()

			// Then: every caller got the index and one index exists
			for i, err := range errs {
				assert.NoError(t, err, "caller %d", i)
			}
			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"fresh"}, names)

			idx, err := s.ForEntities(ctx, "fresh", params)
			require.NoError(t, err)
			assert.Len(t, collect(t, idx, "k", "v"), callers)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer func() { _ = s.Close() }()

			// Given: an index holding entries under two keys
			params := map[string]string{"name": "cleared"}
			idx, err := s.ForEntities(ctx, "cleared", params)
			require.NoError(t, err)
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 1}, "k", "v"))
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 2}, "k", "v"))
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 3}, "other", int64(7)))

			// When: it is cleared
			require.NoError(t, idx.Clear(ctx))

			// Then: no entries remain but the index and its params do
			assert.Empty(t, collect(t, idx, "k", "v"))
			assert.Empty(t, collect(t, idx, "other", int64(7)))
			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Contains(t, names, "cleared")
			assert.Equal(t, params, idx.Params())

			// And: the index still accepts entries
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 4}, "k", "v"))
			assert.Equal(t, []int64{4}, collect(t, idx, "k", "v"))
		})
	}
}

func TestStore_HitsAreSnapshots(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			defer func() { _ = s.Close() }()

			idx, err := s.ForEntities(ctx, "snap", nil)
			require.NoError(t, err)
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 1}, "k", "v"))

			// Given: open hits
			hits, err := idx.Query(ctx, "k", "v")
			require.NoError(t, err)

			// When: writing while the hits are open
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 2}, "k", "v"))

			// Then: the open hits are unaffected and a new query sees the write
			ids, err := index.Collect(hits)
			require.NoError(t, err)
			assert.Equal(t, []int64{1}, ids)
			assert.Equal(t, []int64{1, 2}, collect(t, idx, "k", "v"))
		})
	}
}

func TestPersistentStores_Reopen(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
	}{
		{"sqlite", BackendSQLite},
		{"bleve", BackendBleve},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			params := map[string]string{"name": "foo-bar"}

			// Given: data written and the store closed
			s, err := NewStoreWithBackend(dir, tt.backend)
			require.NoError(t, err)
			idx, err := s.ForEntities(ctx, "foo-bar", params)
			require.NoError(t, err)
			require.NoError(t, idx.Add(ctx, index.Entity{ID: 42}, "bar", "hello"))
			require.NoError(t, s.Close())

			// When: reopening
			s, err = NewStoreWithBackend(dir, tt.backend)
			require.NoError(t, err)
			defer func() { _ = s.Close() }()

			// Then: names, params and entries survive
			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"foo-bar"}, names)

			idx, err = s.ForEntities(ctx, "foo-bar", params)
			require.NoError(t, err)
			assert.Equal(t, []int64{42}, collect(t, idx, "bar", "hello"))
		})
	}
}

func TestMemoryStore_RejectsNegativeEntity(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryStore().ForEntities(ctx, "neg", nil)
	require.NoError(t, err)

	err = idx.Add(ctx, index.Entity{ID: -1}, "k", "v")
	assert.Equal(t, werrors.ErrCodeInvalidInput, werrors.GetCode(err))
	assert.NoError(t, idx.Remove(ctx, index.Entity{ID: -1}, "k", "v"))
}

func TestBleveStore_RejectsPathNames(t *testing.T) {
	s, err := NewBleveStore(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.ForEntities(context.Background(), "../escape", nil)
	assert.Equal(t, werrors.ErrCodeInvalidInput, werrors.GetCode(err))
}

func TestClosedStores_Fail(t *testing.T) {
	ctx := context.Background()

	sq, err := NewSQLiteStore("")
	require.NoError(t, err)
	require.NoError(t, sq.Close())
	require.NoError(t, sq.Close())
	_, err = sq.ForEntities(ctx, "x", nil)
	assert.Error(t, err)

	mem := NewMemoryStore()
	require.NoError(t, mem.Close())
	_, err = mem.ForEntities(ctx, "x", nil)
	assert.Error(t, err)
}
