package chat

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	defaultTxCount = 5
	minTxCount     = 1
	maxTxCount     = 50
)

// Slots is the normalized subset of parse slots after type coercion. At most
// one customer resolution path is used per request; CustomerID takes
// precedence over Name when both are present.
type Slots struct {
	CustomerID *int
	Name       string
	N          *int
}

// CoerceSlots normalizes a raw slot map from the parse service. Malformed
// values are treated as absent, never as errors.
func CoerceSlots(raw map[string]interface{}) Slots {
	var slots Slots
	if raw == nil {
		return slots
	}

	if id, ok := asInt(raw["customer_id"]); ok {
		slots.CustomerID = &id
	}
	if name, ok := raw["name"].(string); ok {
		slots.Name = strings.TrimSpace(name)
	}
	if n, ok := asInt(raw["n"]); ok {
		n = clampN(n)
		slots.N = &n
	}
	return slots
}

// TxCount returns the requested transaction count clamped into [1, 50],
// defaulting to 5 when absent.
func (s Slots) TxCount() int {
	if s.N == nil {
		return defaultTxCount
	}
	return clampN(*s.N)
}

func clampN(n int) int {
	if n < minTxCount {
		return minTxCount
	}
	if n > maxTxCount {
		return maxTxCount
	}
	return n
}

// asInt coerces the integer-like values JSON decoding can produce. Fractional
// floats and non-numeric strings are rejected.
func asInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != float64(int(x)) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
