package route

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexwrap/internal/catalog"
	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/internal/memindex"
	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// countingStore counts ForEntities calls.
type countingStore struct {
	legacy.Store
	opens atomic.Int32
}

func (s *countingStore) ForEntities(ctx context.Context, name string, params map[string]string) (legacy.Index, error) {
	s.opens.Add(1)
	return s.Store.ForEntities(ctx, name, params)
}

// failingStore refuses to open any index.
type failingStore struct {
	legacy.Store
}

func (failingStore) ForEntities(context.Context, string, map[string]string) (legacy.Index, error) {
	return nil, errors.New("disk full")
}

// brokenCatalog fails every lookup with a non-not-found error.
type brokenCatalog struct {
	index.Catalog
}

func (brokenCatalog) IndexDefinition(context.Context, int64) (index.IndexDefinition, error) {
	return index.IndexDefinition{}, errors.New("catalog offline")
}

type harness struct {
	catalog  *catalog.Memory
	store    *countingStore
	registry *Registry
	engine   *memindex.Provider
	routes   StaticRoutes
	metrics  *telemetry.Metrics
	router   *Router
	provider *Provider
}

// newHarness wires a provider over an in-memory catalog and legacy store.
// routes is shared with the router, so tests may add entries later.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		catalog:  catalog.NewMemory(),
		store:    &countingStore{Store: legacy.NewMemoryStore()},
		registry: NewRegistry(),
		engine:   memindex.New(),
		routes:   StaticRoutes{},
		metrics:  telemetry.New(prometheus.NewRegistry()),
	}
	t.Cleanup(func() { _ = h.store.Close() })

	h.registry.Register(h.engine, 0)
	h.router = NewRouter(RouterConfig{
		Namespace: "ns",
		Routes:    h.routes,
		Catalog:   h.catalog,
		Store:     h.store,
		Candidates: func() []index.Provider {
			return h.registry.Providers(h.provider)
		},
		Metrics: h.metrics,
	})
	h.provider = NewProvider(h.router, h.registry, h.metrics)
	h.registry.Register(h.provider, Priority)
	return h
}

func lookup(t *testing.T, acc index.Accessor, value any) []int64 {
	t.Helper()
	r, err := acc.NewReader()
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	hits, err := r.Lookup(context.Background(), value)
	require.NoError(t, err)
	ids, err := index.Collect(hits)
	require.NoError(t, err)
	return ids
}
