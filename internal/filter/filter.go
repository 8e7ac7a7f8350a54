// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter strips unwanted fields from bibliography entries before
// they are written.
package filter

import (
	"sort"
	"strings"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// Filter removes the fields named by a FilterConfig. The configuration is
// copied at construction, so later changes to the caller's slices and maps
// do not leak in.
type Filter struct {
	global            []string
	perType           map[string][]string
	dropRedundantISSN bool
}

// New builds a Filter from cfg.
func New(cfg types.FilterConfig) *Filter {
	f := &Filter{
		global:            lowerAll(cfg.Global),
		perType:           make(map[string][]string, len(cfg.PerType)),
		dropRedundantISSN: cfg.DropRedundantISSN,
	}
	for typ, keys := range cfg.PerType {
		f.perType[strings.ToLower(typ)] = lowerAll(keys)
	}
	return f
}

// Keys returns the sorted, de-duplicated set of field keys to remove from e:
// the global list, the list for e's type, and issn when e has both an issn
// and a doi.
func (f *Filter) Keys(e types.Entry) []string {
	set := make(map[string]struct{}, len(f.global)+4)
	for _, k := range f.global {
		set[k] = struct{}{}
	}
	for _, k := range f.perType[strings.ToLower(e.Type)] {
		set[k] = struct{}{}
	}
	if f.dropRedundantISSN && e.Has("issn") && e.Has("doi") {
		set["issn"] = struct{}{}
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply returns a copy of e without the fields selected by Keys. Keys that
// are not present are ignored.
func (f *Filter) Apply(e types.Entry) types.Entry {
	return e.Without(f.Keys(e)...)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
