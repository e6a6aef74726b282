package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceHits_SinglePass(t *testing.T) {
	h := NewSliceHits([]int64{3, 5})

	assert.Equal(t, int64(0), h.ID())
	require.True(t, h.Next())
	assert.Equal(t, int64(3), h.ID())
	require.True(t, h.Next())
	assert.Equal(t, int64(5), h.ID())
	assert.False(t, h.Next())
	assert.False(t, h.Next())
	assert.NoError(t, h.Err())
}

func TestSliceHits_CloseExhausts(t *testing.T) {
	h := NewSliceHits([]int64{1, 2})
	require.True(t, h.Next())
	require.NoError(t, h.Close())
	assert.False(t, h.Next())
}

func TestCollect(t *testing.T) {
	ids, err := Collect(NewSliceHits([]int64{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = Collect(NewSliceHits(nil))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
