package schema

import (
	"fmt"
	"reflect"
	"sort"
)

// NormalizeValue converts an attribute value into the canonical form used
// throughout the engine. Integers and float32 become float64, nested slices
// and maps are normalised recursively. Canonical values compare equal with
// the values decoded from JSON.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string, float64:
		return v
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = NormalizeValue(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = NormalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// computeAttrs fills defaults, rejects unknown names and reports missing
// required attributes. The result is nil for types without attributes.
func computeAttrs(owner string, specs map[string]AttrSpec, given map[string]any) (map[string]any, error) {
	for name := range given {
		if _, ok := specs[name]; !ok {
			return nil, fmt.Errorf("%s: %w %q", owner, ErrUnknownAttr, name)
		}
	}
	if len(specs) == 0 {
		return nil, nil
	}

	built := make(map[string]any, len(specs))
	for _, name := range sortedAttrNames(specs) {
		spec := specs[name]
		if v, ok := given[name]; ok {
			built[name] = NormalizeValue(v)
			continue
		}
		if !spec.HasDefault {
			return nil, fmt.Errorf("%s: %w %q", owner, ErrMissingAttr, name)
		}
		built[name] = NormalizeValue(spec.Default)
	}
	return built, nil
}

// checkAttrs validates an already built attribute map.
func checkAttrs(owner string, specs map[string]AttrSpec, attrs map[string]any) error {
	for name := range attrs {
		if _, ok := specs[name]; !ok {
			return fmt.Errorf("%s: %w %q", owner, ErrUnknownAttr, name)
		}
	}
	for _, name := range sortedAttrNames(specs) {
		if _, ok := attrs[name]; !ok {
			return fmt.Errorf("%s: %w %q", owner, ErrMissingAttr, name)
		}
	}
	return nil
}

func hasRequired(specs map[string]AttrSpec) bool {
	for _, s := range specs {
		if !s.HasDefault {
			return true
		}
	}
	return false
}

func defaultAttrs(specs map[string]AttrSpec) map[string]any {
	if len(specs) == 0 {
		return nil
	}
	out := make(map[string]any, len(specs))
	for name, s := range specs {
		if !s.HasDefault {
			return nil
		}
		out[name] = NormalizeValue(s.Default)
	}
	return out
}

func sortedAttrNames(specs map[string]AttrSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AttrsEqual compares two attribute maps. A nil map equals an empty one.
func AttrsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !reflect.DeepEqual(va, vb) {
			return false
		}
	}
	return true
}
