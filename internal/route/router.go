package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Routes is the configuration map consulted by the Router.
type Routes interface {
	Lookup(key string) (string, bool)
}

// StaticRoutes is a Routes backed by a map.
type StaticRoutes map[string]string

// Lookup implements Routes.
func (s StaticRoutes) Lookup(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// RouterConfig holds the Router's collaborators.
type RouterConfig struct {
	Namespace string
	Routes    Routes
	Catalog   index.Catalog
	Entities  index.EntityStore
	Store     legacy.Store

	// Candidates lists the engines a route may delegate to, in selection order.
	Candidates func() []index.Provider

	Tracer  trace.Tracer
	Metrics *telemetry.Metrics
}

// Router turns an index id into a Target. It holds no cache of its own.
type Router struct {
	namespace  string
	routes     Routes
	catalog    index.Catalog
	entities   index.EntityStore
	store      legacy.Store
	candidates func() []index.Provider
	tracer     trace.Tracer
	metrics    *telemetry.Metrics
}

// NewRouter returns a Router. Missing Entities, Routes, Candidates and
// Tracer fall back to identity handles, no routes, no engines and a no-op
// tracer.
func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		namespace:  cfg.Namespace,
		routes:     cfg.Routes,
		catalog:    cfg.Catalog,
		entities:   cfg.Entities,
		store:      cfg.Store,
		candidates: cfg.Candidates,
		tracer:     cfg.Tracer,
		metrics:    cfg.Metrics,
	}
	if r.namespace == "" {
		r.namespace = DefaultNamespace
	}
	if r.routes == nil {
		r.routes = StaticRoutes(nil)
	}
	if r.entities == nil {
		r.entities = index.IdentityEntities{}
	}
	if r.candidates == nil {
		r.candidates = func() []index.Provider { return nil }
	}
	if r.tracer == nil {
		r.tracer = noop.NewTracerProvider().Tracer("")
	}
	return r
}

// Establish decides the route for id. It returns ok=false, with a nil
// error, when the index definition or its names are unknown to the catalog
// or when no usable configuration entry exists. Other catalog errors and
// legacy store errors are returned.
func (r *Router) Establish(ctx context.Context, id int64) (Target, bool, error) {
	ctx, span := r.tracer.Start(ctx, "Router.Establish")
	defer span.End()
	span.SetAttributes(attribute.Int64("index.id", id))

	target, ok, err := r.establish(ctx, id)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "establish_failed")
		r.metrics.RouteEstablished(telemetry.OutcomeError)
	case !ok:
		r.metrics.RouteEstablished(telemetry.OutcomeNoRoute)
	default:
		span.SetAttributes(
			attribute.String("route.kind", target.Kind().String()),
			attribute.String("route.backend", target.Backend()),
		)
		r.metrics.RouteEstablished(target.Kind().String())
		slog.Debug("route_established",
			slog.Int64("index_id", id),
			slog.String("kind", target.Kind().String()),
			slog.String("backend", target.Backend()))
	}
	return target, ok, err
}

func (r *Router) establish(ctx context.Context, id int64) (Target, bool, error) {
	def, err := r.catalog.IndexDefinition(ctx, id)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			slog.Debug("route_index_unknown", slog.Int64("index_id", id))
			return Target{}, false, nil
		}
		return Target{}, false, fmt.Errorf("error adding index rule for id %d: %w", id, err)
	}

	label, err := r.catalog.LabelName(ctx, def.LabelID)
	if err != nil {
		return r.nameFailure(id, err)
	}
	property, err := r.catalog.PropertyKeyName(ctx, def.PropertyKeyID)
	if err != nil {
		return r.nameFailure(id, err)
	}

	key := ConfigKey(r.namespace, label, property)
	value, found := r.routes.Lookup(key)
	if !found {
		slog.Debug("route_not_configured", slog.Int64("index_id", id), slog.String("key", key))
		return Target{}, false, nil
	}
	spec, err := ParseSpec(value)
	if err != nil {
		slog.Warn("route_malformed",
			append([]any{slog.Int64("index_id", id), slog.String("key", key)},
				werrors.LogAttrs(err)...)...)
		return Target{}, false, nil
	}

	if p := Select(r.candidates(), spec.Name, spec.Version); p != nil {
		return DelegateTo(p), true, nil
	}

	idx, err := r.store.ForEntities(ctx, spec.Name, spec.Params)
	if err != nil {
		return Target{}, false, fmt.Errorf("open legacy index %q for id %d: %w", spec.Name, id, err)
	}
	adapter := legacy.NewAdapter(idx, property, r.entities,
		legacy.WithTracer(r.tracer), legacy.WithMetrics(r.metrics))
	return LegacyTo(adapter), true, nil
}

func (r *Router) nameFailure(id int64, err error) (Target, bool, error) {
	if errors.Is(err, index.ErrNotFound) {
		slog.Debug("route_name_unknown", slog.Int64("index_id", id), slog.String("error", err.Error()))
		return Target{}, false, nil
	}
	return Target{}, false, fmt.Errorf("error adding index rule for id %d: %w", id, err)
}

// Prewarm establishes a route for every index rule in the catalog through
// establish. Failures are logged and skipped.
func (r *Router) Prewarm(ctx context.Context, establish func(context.Context, int64) (Target, bool, error)) (int, error) {
	defs, err := r.catalog.IndexDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list index definitions: %w", err)
	}

	routed := 0
	for _, def := range defs {
		if def.Kind != index.KindIndex {
			continue
		}
		_, ok, err := establish(ctx, def.ID)
		if err != nil {
			slog.Warn("route_prewarm_failed",
				append([]any{slog.Int64("index_id", def.ID)}, werrors.LogAttrs(err)...)...)
			continue
		}
		if ok {
			routed++
		}
	}
	return routed, nil
}
