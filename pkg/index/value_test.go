package index

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "a@b.com", "s:a@b.com"},
		{"empty string", "", "s:"},
		{"bool", true, "b:true"},
		{"int", 7, "i:7"},
		{"int8", int8(7), "i:7"},
		{"uint32", uint32(7), "i:7"},
		{"int64 negative", int64(-3), "i:-3"},
		{"float", 1.5, "f:1.5"},
		{"float32", float32(0.5), "f:0.5"},
		{"integral float stays float", 2.0, "f:2"},
		{"json integer", json.Number("42"), "i:42"},
		{"json float", json.Number("4.25"), "f:4.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeValue_StringAndNumberDiffer(t *testing.T) {
	s, err := EncodeValue("7")
	require.NoError(t, err)
	i, err := EncodeValue(7)
	require.NoError(t, err)

	assert.NotEqual(t, s, i)
}

func TestEncodeValue_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"slice", []string{"a"}},
		{"struct", struct{}{}},
		{"NaN", math.NaN()},
		{"uint64 overflow", uint64(math.MaxUint64)},
		{"bad json number", json.Number("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeValue(tt.value)
			assert.ErrorIs(t, err, ErrUnsupportedValue)
		})
	}
}
