package cmd

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/Aman-CERP/indexwrap/internal/catalog"
	"github.com/Aman-CERP/indexwrap/internal/config"
	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/internal/memindex"
	"github.com/Aman-CERP/indexwrap/internal/route"
	"github.com/Aman-CERP/indexwrap/internal/telemetry"
)

const tracerName = "github.com/Aman-CERP/indexwrap"

// env is the host side of one CLI invocation: catalog, legacy store, the
// default engine and the routing provider built over them.
type env struct {
	root     string
	cfg      *config.Config
	catalog  *catalog.SQLiteCatalog
	store    legacy.Store
	engines  *route.Registry
	provider *route.Provider
	registry *prometheus.Registry
}

// openCatalog loads the configuration and opens only the catalog.
func openCatalog() (*config.Config, *catalog.SQLiteCatalog, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.NewSQLiteCatalog(cfg.CatalogPath(root))
	if err != nil {
		return nil, nil, werrors.StoreError("open catalog", err).
			WithDetail("path", cfg.CatalogPath(root))
	}
	return cfg, cat, nil
}

// openEnv wires and starts the routing provider. Legacy indexes whose
// population completed in an earlier invocation are brought online.
func openEnv(ctx context.Context) (*env, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, cat, err := openCatalog()
	if err != nil {
		return nil, err
	}
	e := &env{root: root, cfg: cfg, catalog: cat, registry: prometheus.NewRegistry()}

	backend, err := legacy.ParseBackend(cfg.Legacy.Backend)
	if err != nil {
		_ = e.Close(ctx)
		return nil, err
	}
	e.store, err = legacy.Open(ctx, cfg.LegacyDir(root), backend)
	if err != nil {
		_ = e.Close(ctx)
		return nil, err
	}

	metrics := telemetry.New(e.registry)
	e.engines = route.NewRegistry()
	e.engines.Register(memindex.New(), 0)
	for _, engine := range e.engines.Providers() {
		if err := engine.Start(ctx); err != nil {
			_ = e.Close(ctx)
			return nil, err
		}
	}

	e.provider, err = route.NewFactory().NewInstance(route.Dependencies{
		Catalog:   catalog.NewCached(cat, cfg.Catalog.NameCacheSize, metrics),
		Store:     e.store,
		Registry:  e.engines,
		Namespace: cfg.Namespace,
		Routes:    cfg.RouteParams(),
		Tracer:    otel.Tracer(tracerName),
		Metrics:   metrics,
	})
	if err != nil {
		_ = e.Close(ctx)
		return nil, err
	}

	if err := e.provider.Start(ctx); err != nil {
		_ = e.Close(ctx)
		return nil, err
	}
	if err := e.restoreOnline(ctx); err != nil {
		_ = e.Close(ctx)
		return nil, err
	}
	return e, nil
}

func (e *env) restoreOnline(ctx context.Context) error {
	for _, entry := range e.provider.Routes() {
		if entry.Target.Kind() != route.KindLegacy {
			continue
		}
		done, err := e.catalog.Populated(ctx, entry.IndexID)
		if err != nil {
			return err
		}
		if done {
			entry.Target.Legacy().MarkOnline(ctx)
		}
	}
	return nil
}

// routeLabel describes how id is served: the route kind, or "default".
func (e *env) routeLabel(id int64) (kind, backend string) {
	if target, ok := e.provider.Route(id); ok {
		return target.Kind().String(), target.Backend()
	}
	if engine, ok := e.engines.HighestPriority(e.provider); ok {
		return "default", engine.Descriptor().String()
	}
	return "default", "none"
}

// Close shuts the provider and the engines down and releases the store
// lock.
func (e *env) Close(ctx context.Context) error {
	var errs []error
	if e.provider != nil {
		e.logMetrics()
		errs = append(errs, e.provider.Shutdown(ctx))
	}
	if e.engines != nil {
		for _, engine := range e.engines.Providers(e.provider) {
			errs = append(errs, engine.Shutdown(ctx))
		}
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	if e.catalog != nil {
		errs = append(errs, e.catalog.Close())
	}
	return errors.Join(errs...)
}

// logMetrics writes the counters collected during this invocation at debug
// level.
func (e *env) logMetrics() {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	families, err := e.registry.Gather()
	if err != nil {
		slog.Debug("metrics_gather_failed", slog.String("error", err.Error()))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{slog.String("metric", mf.GetName())}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, slog.String(lp.GetName(), lp.GetValue()))
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, slog.Float64("value", m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				attrs = append(attrs, slog.Float64("value", m.GetGauge().GetValue()))
			}
			slog.Debug("metrics_snapshot", attrs...)
		}
	}
}

func parseIndexID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, werrors.ValidationError("index id must be a non-negative integer: "+s, err)
	}
	return id, nil
}
