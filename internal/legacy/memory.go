package legacy

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// MemoryStore keeps legacy indexes in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	indexes map[string]*memoryIndex
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{indexes: make(map[string]*memoryIndex)}
}

// ForEntities implements Store.
func (s *MemoryStore) ForEntities(_ context.Context, name string, params map[string]string) (Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("memory store is closed")
	}
	if idx, ok := s.indexes[name]; ok {
		if err := checkParams(name, idx.params, params); err != nil {
			return nil, err
		}
		return idx, nil
	}

	idx := &memoryIndex{
		store:    s,
		name:     name,
		params:   cloneParams(params),
		postings: make(map[string]map[string]*roaring64.Bitmap),
	}
	s.indexes[name] = idx
	return idx, nil
}

// Names implements Store.
func (s *MemoryStore) Names(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Close drops every index.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.indexes = nil
	return nil
}

func (s *MemoryStore) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, name)
}

// memoryIndex maps key -> encoded value -> bitmap of entity ids.
type memoryIndex struct {
	store  *MemoryStore
	name   string
	params map[string]string

	mu       sync.RWMutex
	postings map[string]map[string]*roaring64.Bitmap
}

func (m *memoryIndex) Name() string { return m.name }

func (m *memoryIndex) Params() map[string]string { return cloneParams(m.params) }

func (m *memoryIndex) Add(_ context.Context, entity index.Entity, key string, value any) error {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return unsupportedValue(err)
	}
	if entity.ID < 0 {
		return negativeEntity(entity.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.postings[key]
	if !ok {
		values = make(map[string]*roaring64.Bitmap)
		m.postings[key] = values
	}
	bm, ok := values[enc]
	if !ok {
		bm = roaring64.New()
		values[enc] = bm
	}
	bm.Add(uint64(entity.ID))
	return nil
}

func (m *memoryIndex) Remove(_ context.Context, entity index.Entity, key string, value any) error {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return unsupportedValue(err)
	}
	if entity.ID < 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	values, ok := m.postings[key]
	if !ok {
		return nil
	}
	if bm, ok := values[enc]; ok {
		bm.Remove(uint64(entity.ID))
		if bm.IsEmpty() {
			delete(values, enc)
		}
	}
	if len(values) == 0 {
		delete(m.postings, key)
	}
	return nil
}

func (m *memoryIndex) Query(_ context.Context, key string, value any) (index.Hits, error) {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return nil, unsupportedValue(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	bm, ok := m.postings[key][enc]
	if !ok {
		return index.NewSliceHits(nil), nil
	}
	// Iterate a snapshot so later writes do not disturb an open Hits.
	return &bitmapHits{it: bm.Clone().Iterator()}, nil
}

func (m *memoryIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	m.postings = make(map[string]map[string]*roaring64.Bitmap)
	m.mu.Unlock()
	return nil
}

func (m *memoryIndex) Delete(_ context.Context) error {
	m.mu.Lock()
	m.postings = make(map[string]map[string]*roaring64.Bitmap)
	m.mu.Unlock()
	m.store.remove(m.name)
	return nil
}

// bitmapHits walks a roaring64 iterator.
type bitmapHits struct {
	it      roaring64.IntPeekable64
	current int64
	done    bool
}

func (h *bitmapHits) Next() bool {
	if h.done || !h.it.HasNext() {
		h.done = true
		return false
	}
	h.current = int64(h.it.Next())
	return true
}

func (h *bitmapHits) ID() int64 { return h.current }

func (h *bitmapHits) Err() error { return nil }

func (h *bitmapHits) Close() error {
	h.done = true
	return nil
}
