package route

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Provider descriptor and registration priority.
const (
	ProviderKey     = "wrapper-index"
	ProviderVersion = "1.0"
	Priority        = 100
)

// Operation names used in metrics and logs.
const (
	opOnlineAccessor = "online_accessor"
	opInitialState   = "initial_state"
	opPopulator      = "populator"
)

const targetFallback = "fallback"

// Provider is the host-facing facade. Routed ids go to their delegate engine
// or legacy adapter; everything else goes to the default engine.
type Provider struct {
	router   *Router
	routes   *table
	registry *Registry
	metrics  *telemetry.Metrics
}

var _ index.Provider = (*Provider)(nil)

// NewProvider returns a facade over router. The default engine is the
// highest-priority provider in registry other than the facade itself.
func NewProvider(router *Router, registry *Registry, metrics *telemetry.Metrics) *Provider {
	return &Provider{
		router:   router,
		routes:   newTable(),
		registry: registry,
		metrics:  metrics,
	}
}

// Descriptor implements index.Provider.
func (p *Provider) Descriptor() index.Descriptor {
	return index.Descriptor{Key: ProviderKey, Version: ProviderVersion}
}

// Start establishes routes for every index rule already in the catalog.
// Rules created later are routed on first access.
func (p *Provider) Start(ctx context.Context) error {
	routed, err := p.router.Prewarm(ctx, p.establish)
	if err != nil {
		return err
	}
	slog.Info("route_prewarm_complete", slog.Int("routed", routed))
	return nil
}

// Shutdown implements index.Provider. Routes stay cached; the legacy store
// is closed by its owner.
func (p *Provider) Shutdown(context.Context) error {
	slog.Debug("route_provider_shutdown", slog.Int("routes", p.routes.len()))
	return nil
}

// Route returns the cached route for id without establishing one.
func (p *Provider) Route(id int64) (Target, bool) {
	return p.routes.get(id)
}

// Routes returns every cached route ordered by index id.
func (p *Provider) Routes() []Entry {
	return p.routes.entries()
}

// OnlineAccessor implements index.Provider. A legacy route fails with
// ErrNotOnline until its population closed successfully.
func (p *Provider) OnlineAccessor(ctx context.Context, id int64) (index.Accessor, error) {
	target, ok, err := p.resolve(ctx, opOnlineAccessor, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		def, err := p.fallback(opOnlineAccessor, id)
		if err != nil {
			return nil, err
		}
		return def.OnlineAccessor(ctx, id)
	}

	if target.Kind() == KindDelegate {
		return target.Delegate().OnlineAccessor(ctx, id)
	}
	adapter := target.Legacy()
	if adapter.State() != index.StateOnline {
		return nil, werrors.New(werrors.ErrCodeIndexNotOnline,
			fmt.Sprintf("index %d not online yet", id), index.ErrNotOnline).
			WithDetail("index_id", strconv.FormatInt(id, 10)).
			WithDetail("legacy_index", adapter.Index().Name()).
			WithSuggestion("Populate the index and close the population successfully first")
	}
	return adapter, nil
}

// InitialState implements index.Provider.
func (p *Provider) InitialState(ctx context.Context, id int64) (index.State, error) {
	target, ok, err := p.resolve(ctx, opInitialState, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		def, err := p.fallback(opInitialState, id)
		if err != nil {
			return 0, err
		}
		return def.InitialState(ctx, id)
	}

	if target.Kind() == KindDelegate {
		return target.Delegate().InitialState(ctx, id)
	}
	return target.Legacy().State(), nil
}

// Populator implements index.Provider.
func (p *Provider) Populator(ctx context.Context, id int64) (index.Populator, error) {
	target, ok, err := p.resolve(ctx, opPopulator, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		def, err := p.fallback(opPopulator, id)
		if err != nil {
			return nil, err
		}
		return def.Populator(ctx, id)
	}

	if target.Kind() == KindDelegate {
		return target.Delegate().Populator(ctx, id)
	}
	return target.Legacy(), nil
}

// resolve finds the cached route for id, establishing it at most once per
// call. ok is false when id has no route.
func (p *Provider) resolve(ctx context.Context, op string, id int64) (Target, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if target, ok := p.routes.get(id); ok {
			p.metrics.Dispatched(op, target.Kind().String())
			return target, true, nil
		}
		if attempt > 0 {
			break
		}
		_, ok, err := p.establish(ctx, id)
		if err != nil {
			return Target{}, false, err
		}
		if !ok {
			break
		}
	}
	return Target{}, false, nil
}

func (p *Provider) establish(ctx context.Context, id int64) (Target, bool, error) {
	target, ok, err := p.routes.establish(ctx, id, func(ctx context.Context) (Target, bool, error) {
		return p.router.Establish(ctx, id)
	})
	if ok {
		p.metrics.SetRouteCacheSize(p.routes.len())
	}
	return target, ok, err
}

func (p *Provider) fallback(op string, id int64) (index.Provider, error) {
	def, ok := p.registry.HighestPriority(p)
	if !ok {
		return nil, werrors.New(werrors.ErrCodeNoProvider,
			fmt.Sprintf("no route for index %d and no default provider registered", id), nil).
			WithDetail("index_id", strconv.FormatInt(id, 10))
	}
	p.metrics.Dispatched(op, targetFallback)
	slog.Debug("route_fallback",
		slog.Int64("index_id", id),
		slog.String("op", op),
		slog.String("provider", def.Descriptor().String()))
	return def, nil
}
