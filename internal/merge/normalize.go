// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge normalizes bibliography entries and reconciles an original
// entry with metadata fetched from an external provider.
package merge

import (
	"strings"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// quoteReplacer maps the typographic right single quote to an ASCII apostrophe.
var quoteReplacer = strings.NewReplacer("’", "'")

// NormalizeField lower-cases the key and replaces right single quotation
// marks in the value. Nothing else is altered.
func NormalizeField(f types.Field) types.Field {
	return types.Field{
		Key:   strings.ToLower(f.Key),
		Value: quoteReplacer.Replace(f.Value),
	}
}

// NormalizeFields normalizes every field, preserving order. Fields whose
// keys collide after normalization collapse into one at the first position,
// carrying the last value.
func NormalizeFields(fields []types.Field) []types.Field {
	out := make([]types.Field, 0, len(fields))
	at := make(map[string]int, len(fields))
	for _, f := range fields {
		n := NormalizeField(f)
		if i, ok := at[n.Key]; ok {
			out[i].Value = n.Value
			continue
		}
		at[n.Key] = len(out)
		out = append(out, n)
	}
	return out
}

// NormalizeEntry returns a new entry with a lower-case type, the same
// citation key, and normalized fields in their original order.
func NormalizeEntry(e types.Entry) types.Entry {
	return types.Entry{
		Type:   strings.ToLower(e.Type),
		Key:    e.Key,
		Fields: NormalizeFields(e.Fields),
	}
}
