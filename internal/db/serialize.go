package db

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Preview bounds for grid cells. Anything larger is truncated and flagged
// so the UI can offer a full fetch.
const (
	textPreviewLimit = 512
	blobPreviewLimit = 256
)

// Value is a serialized cell value ready for JSON encoding. The "kind"
// key is always one of "null", "number", "text" or "blob".
type Value map[string]any

// Preview encodes a raw cell value in the bounded form used by row
// listings. Text is cut at 512 runes, blobs at 256 bytes; numbers and
// nulls pass through unchanged.
func Preview(v any) Value {
	switch val := v.(type) {
	case nil:
		return Value{"kind": "null"}
	case int64:
		return Value{"kind": "number", "value": val}
	case float64:
		if repr, ok := nonFinite(val); ok {
			return Value{"kind": "text", "preview": repr, "length": len(repr), "hasMore": false}
		}
		return Value{"kind": "number", "value": val}
	case string:
		length := utf8.RuneCountInString(val)
		if length > textPreviewLimit {
			runes := []rune(val)
			return Value{
				"kind":    "text",
				"preview": string(runes[:textPreviewLimit]),
				"length":  length,
				"hasMore": true,
			}
		}
		return Value{"kind": "text", "preview": val, "length": length, "hasMore": false}
	case []byte:
		cut := len(val)
		if cut > blobPreviewLimit {
			cut = blobPreviewLimit
		}
		return Value{
			"kind":            "blob",
			"size":            len(val),
			"preview":         base64.StdEncoding.EncodeToString(val[:cut]),
			"previewEncoding": "base64",
			"hasMore":         len(val) > cut,
		}
	default:
		repr := fmt.Sprintf("%v", val)
		return Value{"kind": "text", "preview": repr, "length": len(repr), "hasMore": false}
	}
}

// Full encodes a raw cell value without bounds, for single-cell fetches
// and file saving. It agrees with Preview on "kind" for every input.
func Full(v any) Value {
	switch val := v.(type) {
	case nil:
		return Value{"kind": "null"}
	case int64:
		return Value{"kind": "number", "value": val}
	case float64:
		if repr, ok := nonFinite(val); ok {
			return Value{"kind": "text", "value": repr}
		}
		return Value{"kind": "number", "value": val}
	case string:
		return Value{"kind": "text", "value": val, "length": utf8.RuneCountInString(val)}
	case []byte:
		return Value{
			"kind":     "blob",
			"size":     len(val),
			"data":     base64.StdEncoding.EncodeToString(val),
			"encoding": "base64",
		}
	default:
		return Value{"kind": "text", "value": fmt.Sprintf("%v", val)}
	}
}

// nonFinite returns the printable form of NaN and the infinities. JSON
// cannot carry them as numbers, so both serializers demote them to text.
func nonFinite(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64), true
	}
	return "", false
}
