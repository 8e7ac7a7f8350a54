// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Field is a single key/value attribute of a bibliography entry. Keys are
// compared case-insensitively; values are carried verbatim, including any
// brace quoting.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Entry is one bibliographic record: a type tag, a citation key, and an
// ordered list of fields with unique (case-insensitive) keys.
type Entry struct {
	// Type is the entry type tag (e.g. "article", "inproceedings").
	Type string `json:"type" yaml:"type"`

	// Key is the citation key. It is never replaced by a resolved entry's key.
	Key string `json:"key" yaml:"key"`

	// Fields holds the entry attributes in source order.
	Fields []Field `json:"fields" yaml:"fields"`
}

// Lookup returns the value for key and whether it is present.
func (e Entry) Lookup(key string) (string, bool) {
	for _, f := range e.Fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Get returns the value for key, or "" when absent.
func (e Entry) Get(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// Has reports whether the entry carries a field named key.
func (e Entry) Has(key string) bool {
	_, ok := e.Lookup(key)
	return ok
}

// DOI returns the trimmed doi field.
func (e Entry) DOI() string {
	return strings.TrimSpace(e.Get("doi"))
}

// Clone returns a deep copy so callers can derive new entries without
// aliasing the field slice.
func (e Entry) Clone() Entry {
	out := Entry{Type: e.Type, Key: e.Key}
	if e.Fields != nil {
		out.Fields = make([]Field, len(e.Fields))
		copy(out.Fields, e.Fields)
	}
	return out
}

// Without returns a copy of the entry with every field whose key matches one
// of keys (case-insensitively) removed. Absent keys are ignored.
func (e Entry) Without(keys ...string) Entry {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[strings.ToLower(k)] = true
	}
	out := Entry{Type: e.Type, Key: e.Key, Fields: make([]Field, 0, len(e.Fields))}
	for _, f := range e.Fields {
		if drop[strings.ToLower(f.Key)] {
			continue
		}
		out.Fields = append(out.Fields, f)
	}
	return out
}
