// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// DefaultDOIBase is the DOI resolution endpoint.
const DefaultDOIBase = "https://doi.org/"

// DOI resolves an entry through doi.org content negotiation, asking for
// BibTeX.
type DOI struct {
	// BaseURL is prepended to the DOI. Tests point it at a stub server.
	BaseURL string
	opts    Options
}

// NewDOI returns a doi.org resolver.
func NewDOI(opts Options) *DOI {
	return &DOI{BaseURL: DefaultDOIBase, opts: opts}
}

// Name returns the resolver identifier.
func (r *DOI) Name() string { return types.ResolverDOI }

// Resolve fetches the BibTeX record for the entry's DOI.
func (r *DOI) Resolve(ctx context.Context, e types.Entry) (types.Entry, error) {
	doi := e.DOI()
	if doi == "" {
		return types.Entry{}, ErrNoDOI
	}
	return FetchByDOI(ctx, r.BaseURL, doi, r.opts)
}

// FetchByDOI retrieves the BibTeX record for doi from a content-negotiating
// resolver at base. Snowballing reuses it for reference DOIs.
func FetchByDOI(ctx context.Context, base, doi string, opts Options) (types.Entry, error) {
	b := request(base+doi, opts).Accept(bibtexAccept)
	return fetchEntry(ctx, b)
}
