package route

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexwrap/internal/catalog"
	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/internal/memindex"
	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

func TestRouter_LegacyRoute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Given: Person.email configured with a name no engine carries
	h.catalog.Add(7, "Person", "email")
	h.routes["ns.Person.email"] = "name:person-email-index"

	// When: establishing the route
	target, ok, err := h.router.Establish(ctx, 7)

	// Then: a populating legacy adapter keyed on email
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindLegacy, target.Kind())
	adapter := target.Legacy()
	require.NotNil(t, adapter)
	assert.Equal(t, "person-email-index", adapter.Index().Name())
	assert.Equal(t, map[string]string{"name": "person-email-index"}, adapter.Index().Params())
	assert.Equal(t, index.StatePopulating, adapter.State())

	require.NoError(t, adapter.Add(ctx, 42, "a@b.com"))
	assert.Equal(t, []int64{42}, lookup(t, adapter, "a@b.com"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RouteEstablishTotal.WithLabelValues(telemetry.OutcomeLegacy)))
}

func TestRouter_DelegateRoute(t *testing.T) {
	h := newHarness(t)
	other := memindex.NewWithDescriptor(index.Descriptor{Key: "fulltext", Version: "2"})
	h.registry.Register(other, 0)

	tests := []struct {
		name  string
		value string
		want  index.Provider
	}{
		{"by name", "name:fulltext", other},
		{"by name and version", "name:fulltext,version:2", other},
		{"default engine by name", "name:in-memory", h.engine},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := int64(i + 1)
			h.catalog.Add(id, "Movie", tt.name)
			h.routes[ConfigKey("ns", "Movie", tt.name)] = tt.value

			target, ok, err := h.router.Establish(context.Background(), id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, KindDelegate, target.Kind())
			assert.Same(t, tt.want, target.Delegate())
		})
	}
	assert.Zero(t, h.store.opens.Load())
}

func TestRouter_VersionMismatchFallsToLegacy(t *testing.T) {
	h := newHarness(t)
	h.catalog.Add(1, "Movie", "title")
	h.routes["ns.Movie.title"] = "name:in-memory,version:9.9"

	target, ok, err := h.router.Establish(context.Background(), 1)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindLegacy, target.Kind())
	assert.Equal(t, "in-memory", target.Legacy().Index().Name())
}

func TestRouter_NoRoute(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{"unknown index", func(*harness) {}},
		{"no configuration entry", func(h *harness) {
			h.catalog.Add(1, "Person", "email")
		}},
		{"other namespace", func(h *harness) {
			h.catalog.Add(1, "Person", "email")
			h.routes["index-wrapper.Person.email"] = "name:people"
		}},
		{"malformed entry", func(h *harness) {
			h.catalog.Add(1, "Person", "email")
			h.routes["ns.Person.email"] = "name"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			_, ok, err := h.router.Establish(context.Background(), 1)

			require.NoError(t, err)
			assert.False(t, ok)
			assert.Zero(t, h.store.opens.Load())
			assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RouteEstablishTotal.WithLabelValues(telemetry.OutcomeNoRoute)))
		})
	}
}

func TestRouter_CatalogErrorPropagates(t *testing.T) {
	r := NewRouter(RouterConfig{
		Catalog: brokenCatalog{Catalog: catalog.NewMemory()},
		Store:   legacy.NewMemoryStore(),
	})

	_, ok, err := r.Establish(context.Background(), 5)

	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "error adding index rule for id 5")
	assert.Contains(t, err.Error(), "catalog offline")
}

func TestRouter_StoreErrorPropagates(t *testing.T) {
	cat := catalog.NewMemory()
	cat.Add(3, "Person", "name")
	r := NewRouter(RouterConfig{
		Routes:  StaticRoutes{"index-wrapper.Person.name": "name:people"},
		Catalog: cat,
		Store:   failingStore{},
	})

	_, ok, err := r.Establish(context.Background(), 3)

	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRouter_Prewarm(t *testing.T) {
	h := newHarness(t)
	h.catalog.Add(1, "Person", "email")
	h.catalog.AddRule(2, index.KindConstraint, "Person", "id")
	h.catalog.Add(3, "Movie", "title")
	h.routes["ns.Person.email"] = "name:people"
	h.routes["ns.Person.id"] = "name:ids"

	var seen []int64
	routed, err := h.router.Prewarm(context.Background(), func(ctx context.Context, id int64) (Target, bool, error) {
		seen = append(seen, id)
		return h.router.Establish(ctx, id)
	})

	// Then: constraint rules are skipped and unconfigured ones do not count
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, seen)
	assert.Equal(t, 1, routed)
}
