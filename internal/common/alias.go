package common

import (
	"fmt"
	"strconv"
	"strings"
)

// FirstString resolves a logical input from a loosely-typed payload using an
// ordered list of accepted field names: the first present, non-blank alias
// wins. Numeric values are stringified so callers see one shape. The alias
// order is the precedence table; keep it visible at every call site.
func FirstString(m map[string]any, aliases ...string) (string, bool) {
	for _, key := range aliases {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		case int:
			return strconv.Itoa(t), true
		case bool:
			// booleans are never a valid field payload; skip
		default:
			if s := strings.TrimSpace(fmt.Sprint(t)); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// FirstRaw resolves the first present alias without any conversion.
func FirstRaw(m map[string]any, aliases ...string) (any, bool) {
	for _, key := range aliases {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	return nil, false
}
