// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"strings"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// Conflict records a field whose original and resolved values differed.
type Conflict struct {
	Field    string `json:"field" yaml:"field"`
	Existing string `json:"existing" yaml:"existing"`
	Incoming string `json:"incoming" yaml:"incoming"`
	Chosen   string `json:"chosen" yaml:"chosen"`
}

// Diagnostics collects the non-fatal observations made while merging.
type Diagnostics struct {
	// OriginalType and ResolvedType are set when the entry types differ.
	OriginalType string `json:"original_type,omitempty" yaml:"original_type,omitempty"`
	ResolvedType string `json:"resolved_type,omitempty" yaml:"resolved_type,omitempty"`
	ChosenType   string `json:"chosen_type,omitempty" yaml:"chosen_type,omitempty"`

	Conflicts []Conflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// TypeChanged reports whether the merge saw differing entry types.
func (d Diagnostics) TypeChanged() bool {
	return d.ChosenType != ""
}

// MergeField resolves one field given the existing and incoming values for
// the same key. Equal values return existing untouched and a nil conflict.
func MergeField(existing, incoming types.Field) (types.Field, *Conflict) {
	if existing.Value == incoming.Value {
		return existing, nil
	}

	var value string
	switch existing.Key {
	case "title", "booktitle":
		value = ReconcileTitle(existing.Value, incoming.Value)
	case "doi":
		value = incoming.Value
	default:
		value = incoming.Value
	}

	return types.Field{Key: existing.Key, Value: value}, &Conflict{
		Field:    existing.Key,
		Existing: existing.Value,
		Incoming: incoming.Value,
		Chosen:   value,
	}
}

// Entries merges an original entry with a resolved entry describing the
// same publication. The citation key always comes from original. Neither
// input is modified.
//
// Resolved-derived fields come first in resolved order, followed by fields
// only the original has, in original order.
func Entries(original, resolved types.Entry) (types.Entry, Diagnostics) {
	var diag Diagnostics

	entryType := resolved.Type
	if entryType == "" {
		entryType = original.Type
	}
	if !strings.EqualFold(resolved.Type, original.Type) {
		diag.OriginalType = original.Type
		diag.ResolvedType = resolved.Type
		diag.ChosenType = entryType
	}

	existingFields := NormalizeFields(original.Fields)
	incomingFields := NormalizeFields(resolved.Fields)

	existingByKey := make(map[string]types.Field, len(existingFields))
	for _, f := range existingFields {
		existingByKey[f.Key] = f
	}
	incomingKeys := make(map[string]bool, len(incomingFields))
	for _, f := range incomingFields {
		incomingKeys[f.Key] = true
	}

	fields := make([]types.Field, 0, len(existingFields)+len(incomingFields))
	seen := make(map[string]bool, len(incomingFields))
	for _, f := range incomingFields {
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true

		existing, ok := existingByKey[f.Key]
		if !ok {
			fields = append(fields, f)
			continue
		}
		merged, conflict := MergeField(existing, f)
		if conflict != nil {
			diag.Conflicts = append(diag.Conflicts, *conflict)
		}
		fields = append(fields, merged)
	}

	for _, f := range existingFields {
		if incomingKeys[f.Key] || seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		fields = append(fields, f)
	}

	return types.Entry{Type: entryType, Key: original.Key, Fields: fields}, diag
}
