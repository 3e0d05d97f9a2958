// Package compact serializes arbitrary summary values to size-bounded
// strings for the report prompt. Serialization never fails: cycles degrade to
// a marker, unsupported and non-finite values degrade to null, and anything
// past the character budget is hard-truncated.
package compact

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// TruncationMarker is appended when a serialized value exceeds its budget.
// Consumers must tolerate a truncated tail; the trailing structure is not
// guaranteed to be well-formed JSON.
const TruncationMarker = "...[truncated]"

// CircularMarker replaces any object encountered twice during serialization.
const CircularMarker = "[circular]"

// Compact serializes v as JSON and bounds the result to maxChars characters
// plus the truncation marker. maxChars <= 0 means unbounded.
func Compact(v any, maxChars int) string {
	clean := sanitize(reflect.ValueOf(v), map[uintptr]bool{})
	b, err := json.Marshal(clean)
	if err != nil {
		// Unreachable in practice: sanitize only emits marshalable values.
		return "{}"
	}
	s := string(b)
	if maxChars > 0 && len(s) > maxChars {
		s = s[:maxChars] + TruncationMarker
	}
	return s
}

// sanitize walks v into a tree of plain JSON-marshalable values. seen tracks
// reference identities (pointers, maps, slices) already visited so that
// self-referential structures terminate.
func sanitize(v reflect.Value, seen map[uintptr]bool) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return sanitize(v.Elem(), seen)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularMarker
		}
		seen[addr] = true
		return sanitize(v.Elem(), seen)

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularMarker
		}
		seen[addr] = true
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value(), seen)
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return []any{}
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularMarker
		}
		seen[addr] = true
		return sanitizeList(v, seen)

	case reflect.Array:
		return sanitizeList(v, seen)

	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, skip := jsonFieldName(f)
			if skip {
				continue
			}
			if f.Anonymous && f.Tag.Get("json") == "" {
				// Embedded struct without a tag flattens, like encoding/json.
				if inner, ok := sanitize(v.Field(i), seen).(map[string]any); ok {
					for k, val := range inner {
						out[k] = val
					}
					continue
				}
			}
			out[name] = sanitize(v.Field(i), seen)
		}
		return out

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f

	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil

	default:
		return v.Interface()
	}
}

func sanitizeList(v reflect.Value, seen map[uintptr]bool) any {
	out := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = sanitize(v.Index(i), seen)
	}
	return out
}

func jsonFieldName(f reflect.StructField) (name string, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name = f.Name
	if tag != "" {
		if comma := strings.Index(tag, ","); comma >= 0 {
			tag = tag[:comma]
		}
		if tag != "" {
			name = tag
		}
	}
	return name, false
}
