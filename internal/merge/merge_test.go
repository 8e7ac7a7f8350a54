// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// fieldMap flattens an entry's fields for order-independent comparison.
func fieldMap(e types.Entry) map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Key] = f.Value
	}
	return m
}

// --- NormalizeField / NormalizeEntry ---

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name string
		in   types.Field
		want types.Field
	}{
		{"lower-cases key", types.Field{Key: "TITLE", Value: "X"}, types.Field{Key: "title", Value: "X"}},
		{"replaces right single quote", types.Field{Key: "title", Value: "Alice’s Work’s"}, types.Field{Key: "title", Value: "Alice's Work's"}},
		{"leaves left quote and braces", types.Field{Key: "Title", Value: "‘{Q}uoted"}, types.Field{Key: "title", Value: "‘{Q}uoted"}},
		{"empty value", types.Field{Key: "Note", Value: ""}, types.Field{Key: "note", Value: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeField(tt.in))
		})
	}
}

func TestNormalizeEntry(t *testing.T) {
	in := types.Entry{
		Type: "InProceedings",
		Key:  "Smith2020",
		Fields: []types.Field{
			{Key: "Title", Value: "Smith’s Method"},
			{Key: "DOI", Value: "10.1/ABC"},
		},
	}

	got := NormalizeEntry(in)

	assert.Equal(t, "inproceedings", got.Type)
	assert.Equal(t, "Smith2020", got.Key, "citation key casing is preserved")
	assert.Equal(t, []types.Field{
		{Key: "title", Value: "Smith's Method"},
		{Key: "doi", Value: "10.1/ABC"},
	}, got.Fields)

	// Input is not mutated.
	assert.Equal(t, "Title", in.Fields[0].Key)
}

func TestNormalizeEntryIdempotent(t *testing.T) {
	entries := []types.Entry{
		{Type: "ARTICLE", Key: "k", Fields: []types.Field{{Key: "Title", Value: "It’s {DNA}"}}},
		{Type: "misc", Key: "k2"},
		{Type: "Book", Key: "k3", Fields: []types.Field{{Key: "author", Value: "O’Neil, A."}, {Key: "YEAR", Value: "1999"}}},
	}
	for _, e := range entries {
		once := NormalizeEntry(e)
		twice := NormalizeEntry(once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeFieldsCollapsesDuplicateKeys(t *testing.T) {
	in := []types.Field{
		{Key: "Title", Value: "A"},
		{Key: "year", Value: "2001"},
		{Key: "title", Value: "B’s"},
	}

	got := NormalizeFields(in)

	assert.Equal(t, []types.Field{
		{Key: "title", Value: "B's"},
		{Key: "year", Value: "2001"},
	}, got)
	assert.Equal(t, got, NormalizeFields(got))
	assert.Len(t, in, 3)
}

// --- ReconcileTitle ---

func TestReconcileTitle(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming string
		want     string
	}{
		{"braced existing kept", "{Deep} Learning", "deep learning", "{Deep} Learning"},
		{"braced incoming kept", "Deep Learning", "{Deep} Learning", "{Deep} Learning"},
		{"real difference takes incoming", "Deep Learning", "Shallow Learning", "Shallow Learning"},
		{"real difference ignores existing braces", "{Deep} Learning", "Shallow Learning", "Shallow Learning"},
		{"both braced keeps existing", "{Deep} {L}earning", "{D}eep Learning", "{Deep} {L}earning"},
		{"no braces differing case takes incoming", "deep learning", "Deep Learning", "Deep Learning"},
		{"identical", "Same", "Same", "Same"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconcileTitle(tt.existing, tt.incoming))
		})
	}
}

func TestStripBraces(t *testing.T) {
	assert.Equal(t, "A BC D", StripBraces("{A} {{B}C} D"))
	assert.Equal(t, "", StripBraces("{}"))
}

// --- MergeField ---

func TestMergeField(t *testing.T) {
	tests := []struct {
		name         string
		existing     types.Field
		incoming     types.Field
		want         string
		wantConflict bool
	}{
		{"equal values keep existing", types.Field{Key: "year", Value: "2020"}, types.Field{Key: "year", Value: "2020"}, "2020", false},
		{"doi incoming wins", types.Field{Key: "doi", Value: "10.1/OLD"}, types.Field{Key: "doi", Value: "10.1/new"}, "10.1/new", true},
		{"title reconciled", types.Field{Key: "title", Value: "{BERT} rocks"}, types.Field{Key: "title", Value: "BERT Rocks"}, "{BERT} rocks", true},
		{"booktitle reconciled", types.Field{Key: "booktitle", Value: "Proc. X"}, types.Field{Key: "booktitle", Value: "{Proc}. X"}, "{Proc}. X", true},
		{"other keys incoming wins", types.Field{Key: "pages", Value: "1-2"}, types.Field{Key: "pages", Value: "1--2"}, "1--2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conflict := MergeField(tt.existing, tt.incoming)
			assert.Equal(t, tt.existing.Key, got.Key)
			assert.Equal(t, tt.want, got.Value)
			if !tt.wantConflict {
				assert.Nil(t, conflict)
				assert.Equal(t, tt.existing, got)
				return
			}
			require.NotNil(t, conflict)
			assert.Equal(t, tt.existing.Key, conflict.Field)
			assert.Equal(t, tt.existing.Value, conflict.Existing)
			assert.Equal(t, tt.incoming.Value, conflict.Incoming)
			assert.Equal(t, tt.want, conflict.Chosen)
		})
	}
}

func TestMergeFieldDOIAlwaysIncoming(t *testing.T) {
	for _, existing := range []string{"", "10.1/a", "10.1/A", "garbage"} {
		got, _ := MergeField(types.Field{Key: "doi", Value: existing}, types.Field{Key: "doi", Value: "10.1/A"})
		assert.Equal(t, "10.1/A", got.Value)
	}
}

// --- Entries ---

func TestEntriesKeepsOriginalKey(t *testing.T) {
	original := types.Entry{Type: "article", Key: "mine2020", Fields: []types.Field{{Key: "title", Value: "T"}}}
	resolved := types.Entry{Type: "article", Key: "DBLP:journals/x/Y20", Fields: []types.Field{{Key: "title", Value: "T"}}}

	got, diag := Entries(original, resolved)

	assert.Equal(t, "mine2020", got.Key)
	assert.False(t, diag.TypeChanged())
	assert.Empty(t, diag.Conflicts)
}

func TestEntriesFieldUnion(t *testing.T) {
	original := types.Entry{
		Type: "article",
		Key:  "k",
		Fields: []types.Field{
			{Key: "Title", Value: "{Deep} Learning"},
			{Key: "note", Value: "read this"},
			{Key: "year", Value: "2019"},
		},
	}
	resolved := types.Entry{
		Type: "article",
		Key:  "other",
		Fields: []types.Field{
			{Key: "title", Value: "Deep learning"},
			{Key: "doi", Value: "10.1/xyz"},
			{Key: "YEAR", Value: "2020"},
		},
	}

	got, diag := Entries(original, resolved)

	assert.Equal(t, map[string]string{
		"title": "{Deep} Learning",
		"note":  "read this",
		"doi":   "10.1/xyz",
		"year":  "2020",
	}, fieldMap(got))
	assert.Len(t, diag.Conflicts, 2)

	// Inputs are untouched.
	assert.Equal(t, "Title", original.Fields[0].Key)
	assert.Equal(t, "YEAR", resolved.Fields[2].Key)
}

func TestEntriesFieldOrder(t *testing.T) {
	original := types.Entry{Type: "misc", Key: "k", Fields: []types.Field{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}}
	resolved := types.Entry{Type: "misc", Key: "r", Fields: []types.Field{{Key: "c", Value: "3"}, {Key: "b", Value: "9"}}}

	got, _ := Entries(original, resolved)

	keys := make([]string, len(got.Fields))
	for i, f := range got.Fields {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys)
}

func TestEntriesTypeMismatch(t *testing.T) {
	tests := []struct {
		name        string
		original    string
		resolved    string
		wantType    string
		wantChanged bool
	}{
		{"resolved type wins", "misc", "article", "article", true},
		{"empty resolved falls back", "book", "", "book", true},
		{"same type ignoring case", "Article", "article", "article", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diag := Entries(types.Entry{Type: tt.original, Key: "k"}, types.Entry{Type: tt.resolved, Key: "r"})
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantChanged, diag.TypeChanged())
			if tt.wantChanged {
				assert.Equal(t, tt.original, diag.OriginalType)
				assert.Equal(t, tt.resolved, diag.ResolvedType)
			}
		})
	}
}
