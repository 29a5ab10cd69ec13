// Package fallback resolves a value from loosely shaped JSON payloads by
// trying an ordered list of accessors and keeping the first one that yields
// something usable.
package fallback

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Accessor pulls one candidate value out of a payload.
type Accessor func(m map[string]any) (any, bool)

// Key reads a top-level field. Nil and blank strings count as missing.
func Key(name string) Accessor {
	return func(m map[string]any) (any, bool) {
		v, ok := m[name]
		if !ok || v == nil {
			return nil, false
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return nil, false
		}
		return v, true
	}
}

// Path reads a nested field, e.g. Path("property", "id").
func Path(names ...string) Accessor {
	return func(m map[string]any) (any, bool) {
		cur := m
		for i, name := range names {
			if i == len(names)-1 {
				return Key(name)(cur)
			}
			next, ok := cur[name].(map[string]any)
			if !ok {
				return nil, false
			}
			cur = next
		}
		return nil, false
	}
}

// First returns the result of the first accessor that finds a value.
func First(m map[string]any, accessors ...Accessor) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, get := range accessors {
		if v, ok := get(m); ok {
			return v, true
		}
	}
	return nil, false
}

func keys(names []string) []Accessor {
	out := make([]Accessor, len(names))
	for i, n := range names {
		out[i] = Key(n)
	}
	return out
}

// String returns the first field among names that renders as a string.
// Numbers are formatted without exponent so numeric ids survive.
func String(m map[string]any, names ...string) (string, bool) {
	v, ok := First(m, keys(names)...)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// Int returns the first field among names that holds a whole number,
// accepting numeric strings as well.
func Int(m map[string]any, names ...string) (int, bool) {
	for _, name := range names {
		v, ok := Key(name)(m)
		if !ok {
			continue
		}
		if n, ok := AsInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

// AsInt converts a decoded JSON value to a whole number.
func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Bool returns the first boolean-ish field among names. 0/1 and
// "true"/"false" are accepted.
func Bool(m map[string]any, names ...string) (bool, bool) {
	for _, name := range names {
		v, ok := Key(name)(m)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case bool:
			return t, true
		case float64:
			return t != 0, true
		case string:
			if b, err := strconv.ParseBool(t); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// Object returns the first field among names that is a JSON object.
func Object(m map[string]any, names ...string) (map[string]any, bool) {
	for _, name := range names {
		if obj, ok := m[name].(map[string]any); ok {
			return obj, true
		}
	}
	return nil, false
}

// List returns the first field among names that is a JSON array.
func List(m map[string]any, names ...string) ([]any, bool) {
	for _, name := range names {
		if list, ok := m[name].([]any); ok {
			return list, true
		}
	}
	return nil, false
}
