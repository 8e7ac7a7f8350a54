// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryLookup(t *testing.T) {
	e := Entry{Fields: []Field{{Key: "DOI", Value: "  10.1/xyz "}, {Key: "title", Value: "T"}}}

	v, ok := e.Lookup("doi")
	assert.True(t, ok)
	assert.Equal(t, "  10.1/xyz ", v)
	assert.Equal(t, "10.1/xyz", e.DOI())
	assert.True(t, e.Has("Title"))
	assert.False(t, e.Has("year"))
	assert.Empty(t, e.Get("year"))
}

func TestEntryCloneDoesNotAlias(t *testing.T) {
	e := Entry{Type: "article", Key: "k", Fields: []Field{{Key: "title", Value: "A"}}}
	c := e.Clone()
	c.Fields[0].Value = "B"
	assert.Equal(t, "A", e.Fields[0].Value)

	assert.Nil(t, Entry{Key: "k"}.Clone().Fields)
}

func TestEntryWithout(t *testing.T) {
	e := Entry{Type: "article", Key: "k", Fields: []Field{
		{Key: "URL", Value: "u"},
		{Key: "doi", Value: "d"},
		{Key: "note", Value: "n"},
	}}

	got := e.Without("url", "note", "absent")
	assert.Equal(t, []Field{{Key: "doi", Value: "d"}}, got.Fields)
	assert.Equal(t, "k", got.Key)
	assert.Len(t, e.Fields, 3, "receiver is unchanged")
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, []string{ResolverDBLP, ResolverDOI, ResolverCrossref}, c.Resolve.Order)
	assert.Contains(t, c.Filter.PerType["article"], "url")
	assert.True(t, c.Filter.DropRedundantISSN)
	assert.Equal(t, 3, c.HTTP.MaxRetries)
	assert.Equal(t, 1, c.Enrich.Workers)
}
