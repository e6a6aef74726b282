package index

// SliceHits is a Hits over an in-memory id slice.
type SliceHits struct {
	ids []int64
	pos int
}

// NewSliceHits returns Hits yielding ids in order.
func NewSliceHits(ids []int64) *SliceHits {
	return &SliceHits{ids: ids, pos: -1}
}

// Next advances to the next id.
func (h *SliceHits) Next() bool {
	if h.pos+1 >= len(h.ids) {
		h.pos = len(h.ids)
		return false
	}
	h.pos++
	return true
}

// ID returns the current id.
func (h *SliceHits) ID() int64 {
	if h.pos < 0 || h.pos >= len(h.ids) {
		return 0
	}
	return h.ids[h.pos]
}

// Err always returns nil.
func (h *SliceHits) Err() error { return nil }

// Close exhausts the sequence.
func (h *SliceHits) Close() error {
	h.pos = len(h.ids)
	return nil
}

// Collect drains hits into a slice and closes it.
func Collect(h Hits) ([]int64, error) {
	defer func() { _ = h.Close() }()
	var ids []int64
	for h.Next() {
		ids = append(ids, h.ID())
	}
	return ids, h.Err()
}
