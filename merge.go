// FILE: lixenwraith/inputs/merge.go
package inputs

import (
	"reflect"
	"sort"
	"strings"
)

// Merge deep-merges maps in order: later maps override earlier ones on key collision,
// nested maps are merged key-wise. Top-level keys are folded to lower case, so keys that
// differ only by case collapse into one. The arguments are never mutated.
func Merge(maps ...map[string]any) map[string]any {
	return mergeAll(false, maps...)
}

// MergeCaseSensitive is Merge without top-level key folding.
func MergeCaseSensitive(maps ...map[string]any) map[string]any {
	return mergeAll(true, maps...)
}

func mergeAll(caseSensitive bool, maps ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, m := range maps {
		mergeInto(result, canonicalize(m, caseSensitive))
	}
	return result
}

// mergeInto merges a deep copy of src into dst. Both-map values recurse, anything else replaces.
// A typed map on the dst side is converted to map[string]any before it is merged into.
func mergeInto(dst, src map[string]any) {
	for key, srcVal := range src {
		srcMap, srcIsMap := asMap(srcVal)
		dstMap, dstIsMap := asMap(dst[key])
		if !dstIsMap || !srcIsMap {
			dst[key] = DeepCopy(srcVal)
			continue
		}
		if native, ok := dst[key].(map[string]any); !ok || native == nil {
			dst[key] = dstMap
		}
		mergeInto(dstMap, srcMap)
	}
}

// asMap returns v as a map[string]any when v is a map with string keys.
// map[string]any values are returned as is; other string-keyed maps are converted
// into a new map sharing their element values. A nil map yields an empty one.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		if m == nil {
			return make(map[string]any), true
		}
		return m, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// canonicalize returns a copy of m with top-level keys folded to their canonical form.
// Colliding spellings are merged in sorted key order so the outcome does not depend on
// map iteration order.
func canonicalize(m map[string]any, caseSensitive bool) map[string]any {
	if caseSensitive {
		return m
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	for _, k := range keys {
		mergeInto(out, map[string]any{canonicalKey(k, false): m[k]})
	}
	return out
}

// canonicalKey normalizes a lookup key.
func canonicalKey(key string, caseSensitive bool) string {
	if caseSensitive {
		return key
	}
	return strings.ToLower(key)
}

// DeepCopy copies maps and slices of any type recursively, preserving their types.
// Structs, pointers and scalars are returned as is.
func DeepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = DeepCopy(item)
		}
		return out
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DeepCopy(item)
		}
		return out
	case []byte:
		if val == nil {
			return val
		}
		out := make([]byte, len(val))
		copy(out, val)
		return out
	case []string:
		if val == nil {
			return val
		}
		out := make([]string, len(val))
		copy(out, val)
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		elemType := rv.Type().Elem()
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyElem(iter.Value(), elemType))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		elemType := rv.Type().Elem()
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyElem(rv.Index(i), elemType))
		}
		return out.Interface()
	default:
		return v
	}
}

// copyElem deep-copies a map or slice element so it can be stored back as elemType.
func copyElem(val reflect.Value, elemType reflect.Type) reflect.Value {
	c := DeepCopy(val.Interface())
	if c == nil {
		return reflect.Zero(elemType)
	}
	return reflect.ValueOf(c)
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return DeepCopy(m).(map[string]any)
}

// flattenMap converts a nested map to a flat map with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}

		if nestedMap, isMap := asMap(value); isMap && len(nestedMap) > 0 {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// Intermediate maps are created as needed; a non-map segment is replaced by a map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		if nextMap, isMap := asMap(current[segment]); isMap {
			current[segment] = nextMap
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isValidKeySegment checks if a single path segment is a valid bare key:
// ASCII letters, digits, underscores and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}
