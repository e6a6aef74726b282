package legacy

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/internal/telemetry"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Adapter presents one legacy Index, keyed by one property name, as both the
// populator and the online accessor of a host index.
//
// It starts Populating and moves Online only through
// ClosePopulation(ctx, true). Writes are visible to readers immediately.
type Adapter struct {
	index    Index
	key      string
	entities index.EntityStore
	state    atomic.Int32

	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

var (
	_ index.Populator = (*Adapter)(nil)
	_ index.Accessor  = (*Adapter)(nil)
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithTracer sets the tracer used for mutation spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter wraps idx. key is the indexed property name; entities resolves
// entity ids to the handles idx stores.
func NewAdapter(idx Index, key string, entities index.EntityStore, opts ...Option) *Adapter {
	a := &Adapter{
		index:    idx,
		key:      key,
		entities: entities,
		tracer:   noop.NewTracerProvider().Tracer(""),
	}
	a.state.Store(int32(index.StatePopulating))
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current population state.
func (a *Adapter) State() index.State {
	return index.State(a.state.Load())
}

// Index returns the wrapped legacy index.
func (a *Adapter) Index() Index { return a.index }

// Create is a no-op: the legacy index already exists once opened.
func (a *Adapter) Create(context.Context) error { return nil }

// Drop is a no-op. Legacy indexes outlive the host index; remove them with
// the store.
func (a *Adapter) Drop(context.Context) error { return nil }

// Force is a no-op: every write is already durable in the store.
func (a *Adapter) Force(context.Context) error { return nil }

// Close is a no-op: readers hold no adapter-level resources.
func (a *Adapter) Close() error { return nil }

// Add indexes one entity under value.
func (a *Adapter) Add(ctx context.Context, entityID int64, value any) error {
	if err := a.add(ctx, entityID, value); err != nil {
		return err
	}
	a.metrics.Mutation(index.ModeAdded.String())
	return nil
}

// Remove drops one entity from under value. Removing a missing entry is a no-op.
func (a *Adapter) Remove(ctx context.Context, entityID int64, value any) error {
	if err := a.remove(ctx, entityID, value); err != nil {
		return err
	}
	a.metrics.Mutation(index.ModeRemoved.String())
	return nil
}

func (a *Adapter) add(ctx context.Context, entityID int64, value any) error {
	entity, err := a.entities.Entity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("resolve entity %d: %w", entityID, err)
	}
	return a.index.Add(ctx, entity, a.key, value)
}

func (a *Adapter) remove(ctx context.Context, entityID int64, value any) error {
	entity, err := a.entities.Entity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("resolve entity %d: %w", entityID, err)
	}
	return a.index.Remove(ctx, entity, a.key, value)
}

// Clear empties the legacy index and moves the adapter back to Populating.
// The index and its params are kept.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.index.Clear(ctx); err != nil {
		return err
	}
	if a.state.Swap(int32(index.StatePopulating)) == int32(index.StateOnline) {
		a.metrics.LegacyOffline()
	}
	slog.Info("legacy_index_cleared", slog.String("index", a.index.Name()))
	return nil
}

// Update applies records in order. It stops at the first failing record;
// earlier records stay applied.
func (a *Adapter) Update(ctx context.Context, records []index.MutationRecord) error {
	ctx, span := a.tracer.Start(ctx, "LegacyAdapter.Update")
	defer span.End()
	span.SetAttributes(
		attribute.String("legacy.index", a.index.Name()),
		attribute.Int("legacy.records", len(records)),
	)

	for i, rec := range records {
		if err := a.apply(ctx, rec); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record_failed")
			slog.Debug("legacy_update_failed",
				slog.String("index", a.index.Name()),
				slog.Int("record", i),
				slog.Int64("entity_id", rec.EntityID),
				slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}

// UpdateAndCommit is Update: every write is committed as it is applied.
func (a *Adapter) UpdateAndCommit(ctx context.Context, records []index.MutationRecord) error {
	return a.Update(ctx, records)
}

// Recover is Update. Replaying a record is harmless because the store has
// set semantics.
func (a *Adapter) Recover(ctx context.Context, records []index.MutationRecord) error {
	return a.Update(ctx, records)
}

// apply counts one mutation per record under the record's mode.
func (a *Adapter) apply(ctx context.Context, rec index.MutationRecord) error {
	var err error
	switch rec.Mode {
	case index.ModeAdded:
		err = a.add(ctx, rec.EntityID, rec.After)
	case index.ModeChanged:
		if err = a.remove(ctx, rec.EntityID, rec.Before); err == nil {
			err = a.add(ctx, rec.EntityID, rec.After)
		}
	case index.ModeRemoved:
		err = a.remove(ctx, rec.EntityID, rec.Before)
	default:
		a.metrics.Mutation("unsupported")
		return werrors.New(werrors.ErrCodeUnsupportedMutation,
			fmt.Sprintf("unsupported update mode %s for entity %d", rec.Mode, rec.EntityID),
			index.ErrUnsupportedMode)
	}
	if err != nil {
		return err
	}
	a.metrics.Mutation(rec.Mode.String())
	return nil
}

// ClosePopulation moves the adapter Online when population completed
// successfully. A failed population leaves it Populating.
func (a *Adapter) ClosePopulation(_ context.Context, populationCompletedSuccessfully bool) error {
	if !populationCompletedSuccessfully {
		slog.Warn("legacy_population_incomplete",
			slog.String("index", a.index.Name()),
			slog.String("state", a.State().String()))
		return nil
	}
	if a.state.Swap(int32(index.StateOnline)) != int32(index.StateOnline) {
		a.metrics.LegacyOnline()
		slog.Info("legacy_index_online", slog.String("index", a.index.Name()))
	}
	return nil
}

// MarkOnline moves an adapter whose index was populated in an earlier
// process straight to Online.
func (a *Adapter) MarkOnline(ctx context.Context) {
	_ = a.ClosePopulation(ctx, true)
}

// NewReader returns a reader over the live index.
func (a *Adapter) NewReader() (index.Reader, error) {
	return &Reader{index: a.index, key: a.key}, nil
}
