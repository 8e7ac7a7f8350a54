// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bib converts between BibTeX text and the entry model.
package bib

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/nickng/bibtex"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// parseMu serializes calls into the parser, which keeps its state in
// package-level variables.
var parseMu sync.Mutex

// Parse reads BibTeX from r. A syntax error anywhere in the input fails the
// whole parse with an error; it never terminates the process. Fields keep
// their source order and "quoted" values keep their inner braces.
func Parse(r io.Reader) ([]types.Entry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibtex: %w", err)
	}
	src, layouts, err := prescan(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing bibtex: %w", err)
	}

	parseMu.Lock()
	lib, err := bibtex.Parse(strings.NewReader(src))
	parseMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parsing bibtex: %w", err)
	}

	entries := make([]types.Entry, 0, len(lib.Entries))
	for i, be := range lib.Entries {
		var order []string
		if len(layouts) == len(lib.Entries) {
			order = layouts[i].fields
		}
		entries = append(entries, fromBibEntry(be, order))
	}
	return entries, nil
}

// ParseString is Parse over a string.
func ParseString(s string) ([]types.Entry, error) {
	return Parse(strings.NewReader(s))
}

// ParseFirst returns the first entry in s. It is how resolvers read a
// provider's BibTeX response.
func ParseFirst(s string) (types.Entry, error) {
	entries, err := ParseString(s)
	if err != nil {
		return types.Entry{}, err
	}
	if len(entries) == 0 {
		return types.Entry{}, ErrNoEntries
	}
	return entries[0], nil
}

// fromBibEntry flattens a parsed entry, emitting fields in order. A name
// written twice appears once, at its first position, with the parser's
// (last) value. Fields missing from order follow, sorted by key.
func fromBibEntry(be *bibtex.BibEntry, order []string) types.Entry {
	e := types.Entry{
		Type:   be.Type,
		Key:    be.CiteName,
		Fields: make([]types.Field, 0, len(be.Fields)),
	}
	done := make(map[string]bool, len(be.Fields))
	for _, k := range order {
		v, ok := be.Fields[k]
		if !ok || done[k] {
			continue
		}
		done[k] = true
		e.Fields = append(e.Fields, types.Field{Key: k, Value: stringValue(v)})
	}

	var rest []string
	for k := range be.Fields {
		if !done[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		e.Fields = append(e.Fields, types.Field{Key: k, Value: stringValue(be.Fields[k])})
	}
	return e
}

func stringValue(s bibtex.BibString) string {
	switch v := s.(type) {
	case nil:
		return ""
	case *bibtex.BibVar:
		if v.Value == nil {
			return v.Key
		}
		return stringValue(v.Value)
	case *bibtex.BibComposite:
		var b strings.Builder
		for _, part := range *v {
			b.WriteString(stringValue(part))
		}
		return b.String()
	default:
		return v.String()
	}
}
