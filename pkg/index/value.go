package index

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// EncodeValue returns the canonical, type-tagged form of a property value.
// Every integer type collapses to int64 so 7 and int8(7) match; integers and
// floats never match each other.
func EncodeValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return "s:" + x, nil
	case bool:
		return "b:" + strconv.FormatBool(x), nil
	case int:
		return encodeInt(int64(x)), nil
	case int8:
		return encodeInt(int64(x)), nil
	case int16:
		return encodeInt(int64(x)), nil
	case int32:
		return encodeInt(int64(x)), nil
	case int64:
		return encodeInt(x), nil
	case uint:
		return encodeUint(uint64(x))
	case uint8:
		return encodeInt(int64(x)), nil
	case uint16:
		return encodeInt(int64(x)), nil
	case uint32:
		return encodeInt(int64(x)), nil
	case uint64:
		return encodeUint(x)
	case float32:
		return encodeFloat(float64(x))
	case float64:
		return encodeFloat(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return encodeInt(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedValue, x.String())
		}
		return encodeFloat(f)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func encodeInt(i int64) string {
	return "i:" + strconv.FormatInt(i, 10)
}

func encodeUint(u uint64) (string, error) {
	if u > math.MaxInt64 {
		return "", fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u)
	}
	return encodeInt(int64(u)), nil
}

func encodeFloat(f float64) (string, error) {
	if math.IsNaN(f) {
		return "", fmt.Errorf("%w: NaN", ErrUnsupportedValue)
	}
	return "f:" + strconv.FormatFloat(f, 'g', -1, 64), nil
}
