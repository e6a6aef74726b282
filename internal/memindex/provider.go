// Package memindex is an in-process exact-match index engine. It is the
// default engine when no other provider is registered and serves as a
// delegate target for routed indexes.
package memindex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

const (
	// Key is the descriptor key of the engine.
	Key = "in-memory"
	// Version is the descriptor version of the engine.
	Version = "1.0"
)

// Provider holds one Index per index id.
type Provider struct {
	descriptor index.Descriptor

	mu      sync.Mutex
	indexes map[int64]*Index
	started atomic.Bool
}

var _ index.Provider = (*Provider)(nil)

// New returns a provider described as in-memory/1.0.
func New() *Provider {
	return NewWithDescriptor(index.Descriptor{Key: Key, Version: Version})
}

// NewWithDescriptor returns a provider with a custom descriptor, so several
// independent engines can be registered side by side.
func NewWithDescriptor(d index.Descriptor) *Provider {
	return &Provider{descriptor: d, indexes: make(map[int64]*Index)}
}

// Descriptor implements index.Provider.
func (p *Provider) Descriptor() index.Descriptor { return p.descriptor }

// Start implements index.Provider.
func (p *Provider) Start(context.Context) error {
	p.started.Store(true)
	return nil
}

// Started reports whether Start was called.
func (p *Provider) Started() bool { return p.started.Load() }

// Shutdown drops every index.
func (p *Provider) Shutdown(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexes = make(map[int64]*Index)
	return nil
}

// Index returns the index for id, creating it Populating when absent.
func (p *Provider) Index(id int64) *Index {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, ok := p.indexes[id]
	if !ok {
		idx = newIndex(p, id)
		p.indexes[id] = idx
	}
	return idx
}

// Has reports whether an index for id has been touched.
func (p *Provider) Has(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.indexes[id]
	return ok
}

func (p *Provider) drop(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.indexes, id)
}

// InitialState implements index.Provider.
func (p *Provider) InitialState(_ context.Context, id int64) (index.State, error) {
	return p.Index(id).State(), nil
}

// Populator implements index.Provider.
func (p *Provider) Populator(_ context.Context, id int64) (index.Populator, error) {
	return p.Index(id), nil
}

// OnlineAccessor implements index.Provider.
func (p *Provider) OnlineAccessor(_ context.Context, id int64) (index.Accessor, error) {
	idx := p.Index(id)
	if idx.State() != index.StateOnline {
		return nil, werrors.New(werrors.ErrCodeIndexNotOnline,
			fmt.Sprintf("index %d not online yet", id), index.ErrNotOnline)
	}
	return idx, nil
}

// Index is one in-memory index. It is both populator and accessor.
type Index struct {
	provider *Provider
	id       int64
	state    atomic.Int32

	mu       sync.RWMutex
	postings map[string]*roaring64.Bitmap
}

var (
	_ index.Populator = (*Index)(nil)
	_ index.Accessor  = (*Index)(nil)
)

func newIndex(p *Provider, id int64) *Index {
	idx := &Index{provider: p, id: id, postings: make(map[string]*roaring64.Bitmap)}
	idx.state.Store(int32(index.StatePopulating))
	return idx
}

// State returns the population state.
func (i *Index) State() index.State { return index.State(i.state.Load()) }

// Create clears any data and restarts population.
func (i *Index) Create(context.Context) error {
	i.mu.Lock()
	i.postings = make(map[string]*roaring64.Bitmap)
	i.mu.Unlock()
	i.state.Store(int32(index.StatePopulating))
	return nil
}

// Drop removes the index from its provider.
func (i *Index) Drop(ctx context.Context) error {
	_ = i.Create(ctx)
	i.provider.drop(i.id)
	return nil
}

// Add indexes one entity.
func (i *Index) Add(_ context.Context, entityID int64, value any) error {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return err
	}
	if entityID < 0 {
		return werrors.New(werrors.ErrCodeInvalidInput,
			fmt.Sprintf("entity id %d is negative", entityID), nil)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.add(entityID, enc)
	return nil
}

func (i *Index) add(entityID int64, enc string) {
	bm, ok := i.postings[enc]
	if !ok {
		bm = roaring64.New()
		i.postings[enc] = bm
	}
	bm.Add(uint64(entityID))
}

func (i *Index) remove(entityID int64, enc string) {
	if bm, ok := i.postings[enc]; ok && entityID >= 0 {
		bm.Remove(uint64(entityID))
		if bm.IsEmpty() {
			delete(i.postings, enc)
		}
	}
}

// Update applies records in order and stops at the first failure.
func (i *Index) Update(_ context.Context, records []index.MutationRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, rec := range records {
		if rec.EntityID < 0 {
			return werrors.New(werrors.ErrCodeInvalidInput,
				fmt.Sprintf("entity id %d is negative", rec.EntityID), nil)
		}
		switch rec.Mode {
		case index.ModeAdded:
			enc, err := index.EncodeValue(rec.After)
			if err != nil {
				return err
			}
			i.add(rec.EntityID, enc)
		case index.ModeChanged:
			before, err := index.EncodeValue(rec.Before)
			if err != nil {
				return err
			}
			after, err := index.EncodeValue(rec.After)
			if err != nil {
				return err
			}
			i.remove(rec.EntityID, before)
			i.add(rec.EntityID, after)
		case index.ModeRemoved:
			enc, err := index.EncodeValue(rec.Before)
			if err != nil {
				return err
			}
			i.remove(rec.EntityID, enc)
		default:
			return werrors.New(werrors.ErrCodeUnsupportedMutation,
				fmt.Sprintf("unsupported update mode %s", rec.Mode), index.ErrUnsupportedMode)
		}
	}
	return nil
}

// UpdateAndCommit is Update.
func (i *Index) UpdateAndCommit(ctx context.Context, records []index.MutationRecord) error {
	return i.Update(ctx, records)
}

// Recover is Update.
func (i *Index) Recover(ctx context.Context, records []index.MutationRecord) error {
	return i.Update(ctx, records)
}

// Force is a no-op.
func (i *Index) Force(context.Context) error { return nil }

// Close is a no-op.
func (i *Index) Close() error { return nil }

// ClosePopulation moves the index Online, or Failed when population did not
// complete.
func (i *Index) ClosePopulation(_ context.Context, populationCompletedSuccessfully bool) error {
	if populationCompletedSuccessfully {
		i.state.Store(int32(index.StateOnline))
	} else {
		i.state.Store(int32(index.StateFailed))
	}
	return nil
}

// NewReader returns a reader over the index.
func (i *Index) NewReader() (index.Reader, error) {
	return &reader{index: i}, nil
}

type reader struct {
	index  *Index
	closed bool
}

func (r *reader) Lookup(_ context.Context, value any) (index.Hits, error) {
	if r.closed {
		return nil, index.ErrReaderClosed
	}
	enc, err := index.EncodeValue(value)
	if err != nil {
		return nil, err
	}

	r.index.mu.RLock()
	defer r.index.mu.RUnlock()
	bm, ok := r.index.postings[enc]
	if !ok {
		return index.NewSliceHits(nil), nil
	}
	ids := make([]int64, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, int64(it.Next()))
	}
	return index.NewSliceHits(ids), nil
}

func (r *reader) Close() error {
	r.closed = true
	return nil
}
