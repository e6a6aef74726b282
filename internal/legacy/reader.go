package legacy

import (
	"context"

	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Reader answers exact-match lookups for one property key.
type Reader struct {
	index  Index
	key    string
	closed bool
}

var _ index.Reader = (*Reader)(nil)

// Lookup returns the ids of entities whose value equals value.
func (r *Reader) Lookup(ctx context.Context, value any) (index.Hits, error) {
	if r.closed {
		return nil, index.ErrReaderClosed
	}
	return r.index.Query(ctx, r.key, value)
}

// Close marks the reader closed. Hits already returned stay usable.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}
