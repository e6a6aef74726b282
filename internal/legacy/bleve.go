package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

const (
	// BleveSuffix names the per-index directory: <dir>/<name>.bleve
	BleveSuffix = ".bleve"

	bleveSep         = "\x1f"
	bleveParamsKey   = "legacy_params"
	bleveFieldKV     = "kv"
	bleveQueryPageSz = 1000
)

// bleveEntry is the indexed document. Its id is "<entity>\x1f<kv>".
type bleveEntry struct {
	KV string `json:"kv"`
}

// BleveStore keeps one Bleve index per legacy index.
type BleveStore struct {
	dir string

	mu      sync.Mutex
	open    map[string]*bleveIndex
	closed  bool
	mapping *mapping.IndexMappingImpl
}

var _ Store = (*BleveStore)(nil)

// NewBleveStore opens a store rooted at dir. An empty dir keeps every index
// in memory.
func NewBleveStore(dir string) (*BleveStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &BleveStore{
		dir:     dir,
		open:    make(map[string]*bleveIndex),
		mapping: createLegacyMapping(),
	}, nil
}

// createLegacyMapping maps the kv field with the keyword analyzer so the
// whole key/value term is matched exactly.
func createLegacyMapping() *mapping.IndexMappingImpl {
	kv := bleve.NewKeywordFieldMapping()
	kv.Store = false
	kv.IncludeInAll = false
	kv.IncludeTermVectors = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(bleveFieldKV, kv)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = keyword.Name
	return im
}

func (s *BleveStore) pathFor(name string) string {
	return filepath.Join(s.dir, name+BleveSuffix)
}

// ForEntities implements Store.
func (s *BleveStore) ForEntities(_ context.Context, name string, params map[string]string) (Index, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, werrors.New(werrors.ErrCodeInvalidInput,
			fmt.Sprintf("legacy index name %q is not a valid directory name", name), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("legacy store is closed")
	}

	if idx, ok := s.open[name]; ok {
		if err := checkParams(name, idx.params, params); err != nil {
			return nil, err
		}
		return idx, nil
	}

	bi, created, err := s.openOrCreate(name)
	if err != nil {
		return nil, err
	}

	var stored map[string]string
	if created {
		enc, err := encodeParams(params)
		if err != nil {
			_ = bi.Close()
			return nil, err
		}
		if err := bi.SetInternal([]byte(bleveParamsKey), []byte(enc)); err != nil {
			_ = bi.Close()
			return nil, storeFailed("store legacy params", err)
		}
		stored = cloneParams(params)
	} else {
		raw, err := bi.GetInternal([]byte(bleveParamsKey))
		if err != nil {
			_ = bi.Close()
			return nil, storeFailed("load legacy params", err)
		}
		if stored, err = decodeParams(raw); err != nil {
			_ = bi.Close()
			return nil, storeFailed("load legacy params", err)
		}
		if err := checkParams(name, stored, params); err != nil {
			_ = bi.Close()
			return nil, err
		}
	}

	idx := &bleveIndex{store: s, name: name, params: stored, index: bi}
	s.open[name] = idx
	return idx, nil
}

func (s *BleveStore) openOrCreate(name string) (bleve.Index, bool, error) {
	if s.dir == "" {
		bi, err := bleve.NewMemOnly(s.mapping)
		if err != nil {
			return nil, false, storeFailed("create legacy index", err)
		}
		return bi, true, nil
	}

	path := s.pathFor(name)
	bi, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		bi, err = bleve.New(path, s.mapping)
		if err != nil {
			return nil, false, storeFailed("create legacy index", err)
		}
		slog.Debug("legacy_index_created",
			slog.String("name", name),
			slog.String("path", path))
		return bi, true, nil
	}
	if err != nil {
		return nil, false, werrors.New(werrors.ErrCodeCorruptIndex, "cannot open legacy bleve index", err).
			WithDetail("path", path)
	}
	return bi, false, nil
}

// Names implements Store. Indexes on disk are listed whether open or not.
func (s *BleveStore) Names(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.open))
	for name := range s.open {
		seen[name] = struct{}{}
	}
	if s.dir != "" {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return nil, storeFailed("list legacy indexes", err)
		}
		for _, e := range entries {
			if e.IsDir() && strings.HasSuffix(e.Name(), BleveSuffix) {
				seen[strings.TrimSuffix(e.Name(), BleveSuffix)] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Close closes every open index.
func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for name, idx := range s.open {
		if err := idx.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	s.open = nil
	return errors.Join(errs...)
}

type bleveIndex struct {
	store  *BleveStore
	name   string
	params map[string]string

	mu    sync.RWMutex
	index bleve.Index
}

func (b *bleveIndex) Name() string { return b.name }

func (b *bleveIndex) Params() map[string]string { return cloneParams(b.params) }

func bleveTerm(key, enc string) string {
	return key + bleveSep + enc
}

func bleveDocID(entity int64, term string) string {
	return strconv.FormatInt(entity, 10) + bleveSep + term
}

func (b *bleveIndex) Add(_ context.Context, entity index.Entity, key string, value any) error {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return unsupportedValue(err)
	}
	term := bleveTerm(key, enc)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return fmt.Errorf("legacy index %s is deleted", b.name)
	}
	if err := b.index.Index(bleveDocID(entity.ID, term), bleveEntry{KV: term}); err != nil {
		return storeFailed("add legacy entry", err)
	}
	return nil
}

func (b *bleveIndex) Remove(_ context.Context, entity index.Entity, key string, value any) error {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return unsupportedValue(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return fmt.Errorf("legacy index %s is deleted", b.name)
	}
	if err := b.index.Delete(bleveDocID(entity.ID, bleveTerm(key, enc))); err != nil {
		return storeFailed("remove legacy entry", err)
	}
	return nil
}

// Query pages through term matches and returns them sorted by entity id.
func (b *bleveIndex) Query(ctx context.Context, key string, value any) (index.Hits, error) {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return nil, unsupportedValue(err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return nil, fmt.Errorf("legacy index %s is deleted", b.name)
	}

	q := bleve.NewTermQuery(bleveTerm(key, enc))
	q.SetField(bleveFieldKV)

	var ids []int64
	for from := 0; ; from += bleveQueryPageSz {
		req := bleve.NewSearchRequestOptions(q, bleveQueryPageSz, from, false)
		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, storeFailed("query legacy index", err)
		}
		for _, hit := range res.Hits {
			id, err := parseBleveDocID(hit.ID)
			if err != nil {
				return nil, werrors.New(werrors.ErrCodeCorruptIndex, err.Error(), err)
			}
			ids = append(ids, id)
		}
		if len(res.Hits) < bleveQueryPageSz {
			break
		}
	}
	slices.Sort(ids)
	return index.NewSliceHits(ids), nil
}

func parseBleveDocID(docID string) (int64, error) {
	head, _, ok := strings.Cut(docID, bleveSep)
	if !ok {
		return 0, fmt.Errorf("malformed legacy document id %q", docID)
	}
	return strconv.ParseInt(head, 10, 64)
}

// Clear deletes every entry document page by page. Params live in the
// index's internal storage and survive.
func (b *bleveIndex) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return fmt.Errorf("legacy index %s is deleted", b.name)
	}

	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), bleveQueryPageSz, 0, false)
		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return storeFailed("clear legacy index", err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return storeFailed("clear legacy index", err)
		}
	}
}

// Delete closes the index and removes its directory.
func (b *bleveIndex) Delete(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return nil
	}
	err := b.index.Close()
	b.index = nil

	s := b.store
	s.mu.Lock()
	delete(s.open, b.name)
	s.mu.Unlock()

	if err != nil {
		return storeFailed("close legacy index", err)
	}
	if s.dir != "" {
		if err := os.RemoveAll(s.pathFor(b.name)); err != nil {
			return storeFailed("remove legacy index", err)
		}
	}
	return nil
}
