package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Store opens legacy indexes by name.
type Store interface {
	// ForEntities opens the named index, creating it with params when it does
	// not exist. An existing index whose stored params differ is an error.
	ForEntities(ctx context.Context, name string, params map[string]string) (Index, error)

	// Names lists existing indexes, sorted.
	Names(ctx context.Context) ([]string, error)

	Close() error
}

// Index is one legacy exact-match index. Add is idempotent and removing a
// missing triple is a no-op.
type Index interface {
	Name() string
	Params() map[string]string
	Add(ctx context.Context, entity index.Entity, key string, value any) error
	Remove(ctx context.Context, entity index.Entity, key string, value any) error

	// Query returns the entities holding value under key, in ascending id order.
	Query(ctx context.Context, key string, value any) (index.Hits, error)

	// Clear removes every entry but keeps the index and its params.
	Clear(ctx context.Context) error

	// Delete removes the index and all its entries.
	Delete(ctx context.Context) error
}

// checkParams compares the params an index was created with against the
// params supplied to reopen it.
func checkParams(name string, stored, supplied map[string]string) error {
	if maps.Equal(stored, supplied) {
		return nil
	}
	return newParamsMismatch(name, stored, supplied)
}

func encodeParams(params map[string]string) (string, error) {
	if params == nil {
		params = map[string]string{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return string(data), nil
}

func decodeParams(data []byte) (map[string]string, error) {
	params := map[string]string{}
	if len(data) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return params, nil
}

func cloneParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	maps.Copy(out, params)
	return out
}
