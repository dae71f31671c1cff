// Package casing rewrites object keys between the API convention (firstName)
// and the storage convention (first_name).
package casing

import (
	"strings"
)

// ToStorageCase rewrites every map key of v, recursively, so that each
// upper-case letter becomes an underscore followed by its lower-case form.
// Values that are neither maps nor slices are returned as is; nil is a leaf.
func ToStorageCase(v any) any {
	return convert(v, StorageKey)
}

// ToDomainCase is the inverse of ToStorageCase.
func ToDomainCase(v any) any {
	return convert(v, DomainKey)
}

func convert(v any, key func(string) string) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[key(k)] = convert(item, key)
		}
		return out
	case []map[string]any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = convert(item, key)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = convert(item, key)
		}
		return out
	default:
		return v
	}
}

func StorageKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func DomainKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' && i+1 < len(key) && key[i+1] >= 'a' && key[i+1] <= 'z' {
			b.WriteByte(key[i+1] - ('a' - 'A'))
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
