package catalog

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// DefaultNameCacheSize is the default number of cached names per kind.
const DefaultNameCacheSize = 1024

// Cached wraps a Catalog with LRU caches for label and property-key names.
// Token names never change once assigned, so cached names cannot go stale.
type Cached struct {
	inner      index.Catalog
	labels     *lru.Cache[int64, string]
	properties *lru.Cache[int64, string]
	metrics    *telemetry.Metrics
}

var _ index.Catalog = (*Cached)(nil)

// NewCached wraps inner. A non-positive size uses DefaultNameCacheSize.
func NewCached(inner index.Catalog, size int, metrics *telemetry.Metrics) *Cached {
	if size <= 0 {
		size = DefaultNameCacheSize
	}
	labels, _ := lru.New[int64, string](size)
	properties, _ := lru.New[int64, string](size)
	return &Cached{inner: inner, labels: labels, properties: properties, metrics: metrics}
}

// IndexDefinitions passes through.
func (c *Cached) IndexDefinitions(ctx context.Context) ([]index.IndexDefinition, error) {
	return c.inner.IndexDefinitions(ctx)
}

// IndexDefinition passes through.
func (c *Cached) IndexDefinition(ctx context.Context, id int64) (index.IndexDefinition, error) {
	return c.inner.IndexDefinition(ctx, id)
}

// LabelName resolves through the label cache.
func (c *Cached) LabelName(ctx context.Context, labelID int64) (string, error) {
	return c.lookup(ctx, c.labels, labelID, c.inner.LabelName)
}

// PropertyKeyName resolves through the property-key cache.
func (c *Cached) PropertyKeyName(ctx context.Context, propertyKeyID int64) (string, error) {
	return c.lookup(ctx, c.properties, propertyKeyID, c.inner.PropertyKeyName)
}

func (c *Cached) lookup(
	ctx context.Context,
	cache *lru.Cache[int64, string],
	id int64,
	load func(context.Context, int64) (string, error),
) (string, error) {
	if name, ok := cache.Get(id); ok {
		c.metrics.NameLookup(true)
		return name, nil
	}
	c.metrics.NameLookup(false)

	name, err := load(ctx, id)
	if err != nil {
		return "", err
	}
	cache.Add(id, name)
	return name, nil
}
