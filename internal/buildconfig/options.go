package buildconfig

import (
	"fmt"
	"math"
)

// IntOption reads an integer handler option, returning def when the key is absent.
//
// Descriptor files decode numbers as int, JSON as float64; both are accepted as long as the
// value is integral.
func (r TransformRule) IntOption(key string, def int) (int, error) {
	v, ok := r.Options[key]
	if !ok {
		return def, nil
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, fmt.Errorf("option %s: %d out of range", key, n)
		}
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("option %s: %d out of range", key, n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt || n < math.MinInt {
			return 0, fmt.Errorf("option %s: %v is not an integer", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("option %s: expected an integer, got %T", key, v)
	}
}

// BoolOption reads a boolean handler option, returning def when the key is absent.
func (r TransformRule) BoolOption(key string, def bool) (bool, error) {
	v, ok := r.Options[key]
	if !ok {
		return def, nil
	}

	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("option %s: expected a boolean, got %T", key, v)
	}
	return b, nil
}
