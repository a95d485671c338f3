// Package codec implements deterministic JSON canonicalization and
// content hashing: sorted map keys, no insignificant whitespace, UTF-8,
// numbers in shortest round-trip form. Built directly on encoding/json.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dictcore/dictcore/internal/coreerrors"
)

// LargeContentThreshold is the size (in canonical-encoded bytes) at or above
// which the codec defers full hashing.
const LargeContentThreshold = 256 * 1024

// SkipLargeContentChecksum is the sentinel checksum recorded for payloads
// that crossed LargeContentThreshold or carry a reserved binary_data field.
const SkipLargeContentChecksum = "skip-large-content"

// Canonicalize renders v as canonical JSON: object keys sorted
// lexicographically, no insignificant whitespace, numbers in their
// shortest round-trip form (delegated to encoding/json's float formatting,
// which already produces shortest round-trip output as of Go 1.x).
//
// v must be a JSON-compatible value: map[string]any, []any, string,
// float64/int, bool, nil, or a type implementing json.Marshaler. Anything
// else fails with coreerrors.EncodeError.
func Canonicalize(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return encode(normalized)
}

// normalize walks v, turning any map into a sortedMap wrapper so that
// encode() below emits keys in lexicographic order regardless of the
// iteration order Go's native map type would otherwise produce.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(sortedMap, 0, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			nv, err := normalize(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, kv{key: k, value: nv})
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			nv, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case string, float64, int, int64, bool, nil, json.Number:
		return val, nil
	case json.Marshaler:
		return val, nil
	default:
		return nil, coreerrors.EncodeError(fmt.Sprintf("%T", v))
	}
}

// kv is a single normalized key/value pair; sortedMap is an ordered
// sequence of them so MarshalJSON can emit keys in the order already
// sorted by normalize, rather than re-deriving order from a Go map.
type kv struct {
	key   string
	value any
}

type sortedMap []kv

func (m sortedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(pair.key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := encode(pair.value)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, coreerrors.EncodeError(fmt.Sprintf("%T", v))
	}
	// json.Encoder.Encode appends a trailing newline; canonical output must
	// not carry insignificant whitespace.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// HasBinaryDataField reports whether a map-shaped content value carries the
// reserved "binary_data" key that forces the skip-large-content path.
func HasBinaryDataField(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m["binary_data"]
	return ok
}
