package index

import "context"

// Provider is the secondary-index provider surface a host drives.
//
// Implementations must be thread-safe for concurrent use.
type Provider interface {
	// Descriptor identifies the provider. Selection by configuration matches
	// on Descriptor().Key and, optionally, Descriptor().Version.
	Descriptor() Descriptor

	// Start is called once before any index operation.
	Start(ctx context.Context) error

	// Shutdown releases provider-wide resources.
	Shutdown(ctx context.Context) error

	// OnlineAccessor returns the accessor used for writes and reads once the
	// index is online. Returns an error wrapping ErrNotOnline when it is not.
	OnlineAccessor(ctx context.Context, indexID int64) (Accessor, error)

	// InitialState reports the index state the host should start from.
	InitialState(ctx context.Context, indexID int64) (State, error)

	// Populator returns the populator used while the index is being built.
	Populator(ctx context.Context, indexID int64) (Populator, error)
}

// Populator builds an index.
type Populator interface {
	// Create prepares backing storage for a fresh population.
	Create(ctx context.Context) error

	// Drop removes backing storage.
	Drop(ctx context.Context) error

	// Add indexes one entity/value pair.
	Add(ctx context.Context, entityID int64, value any) error

	// Update applies mutation records observed during population, in order.
	Update(ctx context.Context, records []MutationRecord) error

	// ClosePopulation ends population. Only a successful completion moves the
	// index online.
	ClosePopulation(ctx context.Context, populationCompletedSuccessfully bool) error
}

// Accessor serves an online index.
type Accessor interface {
	// Drop removes backing storage.
	Drop(ctx context.Context) error

	// UpdateAndCommit applies mutation records, in order, and makes them visible.
	UpdateAndCommit(ctx context.Context, records []MutationRecord) error

	// Recover re-applies mutation records during crash recovery.
	Recover(ctx context.Context, records []MutationRecord) error

	// Force flushes pending state to durable storage.
	Force(ctx context.Context) error

	// Close releases reader-side resources.
	Close() error

	// NewReader returns a reader over the index.
	NewReader() (Reader, error)
}

// Reader is a short-lived lookup handle bound to one index.
type Reader interface {
	// Lookup returns the ids of entities whose indexed property equals value.
	Lookup(ctx context.Context, value any) (Hits, error)

	// Close releases the reader. Further use fails with ErrReaderClosed.
	Close() error
}

// Hits is a finite, single-pass sequence of entity ids. It cannot be
// restarted; call Lookup again to re-scan.
type Hits interface {
	Next() bool
	ID() int64
	Err() error
	Close() error
}

// Catalog is the host metadata catalog.
type Catalog interface {
	// IndexDefinitions lists every current schema rule.
	IndexDefinitions(ctx context.Context) ([]IndexDefinition, error)

	// IndexDefinition returns one rule or an error wrapping ErrNotFound.
	IndexDefinition(ctx context.Context, id int64) (IndexDefinition, error)

	// LabelName resolves a label id; unknown ids wrap ErrNotFound.
	LabelName(ctx context.Context, labelID int64) (string, error)

	// PropertyKeyName resolves a property key id; unknown ids wrap ErrNotFound.
	PropertyKeyName(ctx context.Context, propertyKeyID int64) (string, error)
}

// EntityStore resolves entity ids to handles.
type EntityStore interface {
	Entity(ctx context.Context, id int64) (Entity, error)
}
