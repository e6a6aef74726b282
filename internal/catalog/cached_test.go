package catalog

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// countingCatalog counts name lookups reaching the inner catalog.
type countingCatalog struct {
	*Memory
	labelCalls int
}

func (c *countingCatalog) LabelName(ctx context.Context, id int64) (string, error) {
	c.labelCalls++
	return c.Memory.LabelName(ctx, id)
}

func TestCached_CachesNames(t *testing.T) {
	ctx := context.Background()
	inner := &countingCatalog{Memory: NewMemory()}
	def := inner.Add(1, "foo", "bar")
	m := telemetry.New(nil)
	c := NewCached(inner, 0, m)

	for i := 0; i < 3; i++ {
		name, err := c.LabelName(ctx, def.LabelID)
		require.NoError(t, err)
		assert.Equal(t, "foo", name)
	}

	assert.Equal(t, 1, inner.labelCalls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogNameCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogNameCacheTotal.WithLabelValues("miss")))

	prop, err := c.PropertyKeyName(ctx, def.PropertyKeyID)
	require.NoError(t, err)
	assert.Equal(t, "bar", prop)
}

func TestCached_DoesNotCacheFailuresOrRules(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	c := NewCached(inner, 4, nil)

	_, err := c.LabelName(ctx, 1)
	assert.ErrorIs(t, err, index.ErrNotFound)

	def := inner.Add(7, "foo", "bar")
	got, err := c.IndexDefinition(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	// Then: a removed rule is not served from cache
	inner.Remove(7)
	_, err = c.IndexDefinition(ctx, 7)
	assert.ErrorIs(t, err, index.ErrNotFound)

	defs, err := c.IndexDefinitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestMemory_Definitions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Add(3, "a", "x")
	m.AddRule(1, index.KindConstraint, "b", "y")

	defs, err := m.IndexDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, int64(1), defs[0].ID)
	assert.Equal(t, index.KindConstraint, defs[0].Kind)
	assert.Equal(t, int64(3), defs[1].ID)

	_, err = m.PropertyKeyName(ctx, 999)
	assert.ErrorIs(t, err, index.ErrNotFound)
}
