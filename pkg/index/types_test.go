package index

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "populating", StatePopulating.String())
	assert.Equal(t, "online", StateOnline.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestParseUpdateMode(t *testing.T) {
	tests := []struct {
		in      string
		want    UpdateMode
		wantErr bool
	}{
		{"added", ModeAdded, false},
		{"Changed", ModeChanged, false},
		{" removed ", ModeRemoved, false},
		{"renamed", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUpdateMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMutationRecord_JSON(t *testing.T) {
	var rec MutationRecord
	require.NoError(t, json.Unmarshal([]byte(`{"entity":4,"mode":"changed","before":"a","after":"b"}`), &rec))
	assert.Equal(t, Changed(4, "a", "b"), rec)

	err := json.Unmarshal([]byte(`{"entity":4,"mode":"moved"}`), &rec)
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	data, err := json.Marshal(Removed(2, "x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"entity":2,"before":"x","mode":"removed"}`, string(data))
}

func TestDescriptor_String(t *testing.T) {
	assert.Equal(t, "wrapper-index-1.0", Descriptor{Key: "wrapper-index", Version: "1.0"}.String())
}

func TestIdentityEntities(t *testing.T) {
	e, err := IdentityEntities{}.Entity(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, Entity{ID: 12}, e)
}
