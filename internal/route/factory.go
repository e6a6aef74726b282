package route

import (
	"go.opentelemetry.io/otel/trace"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Dependencies are the collaborators a Provider is built from.
type Dependencies struct {
	Catalog  index.Catalog
	Entities index.EntityStore
	Store    legacy.Store
	Registry *Registry

	// Namespace prefixes configuration keys. Empty means DefaultNamespace.
	Namespace string
	// Routes is read once when the Provider is built.
	Routes map[string]string

	Tracer  trace.Tracer
	Metrics *telemetry.Metrics
}

// Factory builds the routing Provider and registers it.
type Factory struct {
	provider *Provider
}

// NewFactory returns a factory that builds a Provider from Dependencies.
func NewFactory() *Factory {
	return &Factory{}
}

// WithProvider makes the factory hand out p instead of building one.
func (f *Factory) WithProvider(p *Provider) *Factory {
	f.provider = p
	return f
}

// NewInstance returns the Provider for deps and registers it in
// deps.Registry with Priority.
func (f *Factory) NewInstance(deps Dependencies) (*Provider, error) {
	if f.provider != nil {
		if deps.Registry != nil {
			deps.Registry.Register(f.provider, Priority)
		}
		return f.provider, nil
	}

	switch {
	case deps.Catalog == nil:
		return nil, missing("catalog")
	case deps.Store == nil:
		return nil, missing("legacy store")
	case deps.Registry == nil:
		return nil, missing("provider registry")
	}

	routes := make(StaticRoutes, len(deps.Routes))
	for k, v := range deps.Routes {
		routes[k] = v
	}

	var p *Provider
	router := NewRouter(RouterConfig{
		Namespace: deps.Namespace,
		Routes:    routes,
		Catalog:   deps.Catalog,
		Entities:  deps.Entities,
		Store:     deps.Store,
		Candidates: func() []index.Provider {
			return deps.Registry.Providers(p)
		},
		Tracer:  deps.Tracer,
		Metrics: deps.Metrics,
	})
	p = NewProvider(router, deps.Registry, deps.Metrics)
	deps.Registry.Register(p, Priority)
	return p, nil
}

func missing(what string) error {
	return werrors.InternalError("missing dependency: "+what, nil)
}
