package route

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/indexwrap/internal/legacy"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Kind tells delegate routes from legacy routes.
type Kind int

// Route kinds.
const (
	KindDelegate Kind = iota + 1
	KindLegacy
)

func (k Kind) String() string {
	switch k {
	case KindDelegate:
		return "delegate"
	case KindLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// Target is where an index id is routed: a delegate engine or a legacy
// adapter, never both.
type Target struct {
	kind     Kind
	delegate index.Provider
	adapter  *legacy.Adapter
}

// DelegateTo routes to an engine.
func DelegateTo(p index.Provider) Target {
	return Target{kind: KindDelegate, delegate: p}
}

// LegacyTo routes to a legacy adapter.
func LegacyTo(a *legacy.Adapter) Target {
	return Target{kind: KindLegacy, adapter: a}
}

// Kind returns the route kind. The zero Target has no kind.
func (t Target) Kind() Kind { return t.kind }

// Delegate returns the engine of a delegate route, or nil.
func (t Target) Delegate() index.Provider { return t.delegate }

// Legacy returns the adapter of a legacy route, or nil.
func (t Target) Legacy() *legacy.Adapter { return t.adapter }

// Backend names what serves the route: the engine descriptor or the legacy
// index name.
func (t Target) Backend() string {
	switch t.kind {
	case KindDelegate:
		return t.delegate.Descriptor().String()
	case KindLegacy:
		return t.adapter.Index().Name()
	default:
		return ""
	}
}

func (t Target) String() string {
	return fmt.Sprintf("%s(%s)", t.kind, t.Backend())
}

// Entry is one established route.
type Entry struct {
	IndexID int64
	Target  Target
}

// table caches established routes. Establishment for one id runs at most
// once at a time, and a stored route is never replaced.
type table struct {
	mu     sync.RWMutex
	routes map[int64]Target
	group  singleflight.Group
}

func newTable() *table {
	return &table{routes: make(map[int64]Target)}
}

func (t *table) get(id int64) (Target, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	target, ok := t.routes[id]
	return target, ok
}

func (t *table) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

func (t *table) entries() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.routes))
	for id, target := range t.routes {
		out = append(out, Entry{IndexID: id, Target: target})
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.IndexID, b.IndexID) })
	return out
}

type outcome struct {
	target Target
	ok     bool
}

// establish returns the route for id, calling fn when none is cached.
// Concurrent callers for the same id share one fn call, which runs detached
// from the first caller's cancellation. Only successful outcomes are stored.
func (t *table) establish(ctx context.Context, id int64, fn func(context.Context) (Target, bool, error)) (Target, bool, error) {
	if target, ok := t.get(id); ok {
		return target, true, nil
	}

	v, err, _ := t.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		// A caller that lost the race may arrive after the winner stored.
		if target, ok := t.get(id); ok {
			return outcome{target: target, ok: true}, nil
		}

		target, ok, err := fn(context.WithoutCancel(ctx))
		if err != nil || !ok {
			return outcome{}, err
		}

		t.mu.Lock()
		defer t.mu.Unlock()
		if existing, found := t.routes[id]; found {
			return outcome{target: existing, ok: true}, nil
		}
		t.routes[id] = target
		return outcome{target: target, ok: true}, nil
	})
	if err != nil {
		return Target{}, false, err
	}
	o := v.(outcome)
	return o.target, o.ok, nil
}
