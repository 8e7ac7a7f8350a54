// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// DefaultCrossrefBase is the Crossref works endpoint.
const DefaultCrossrefBase = "https://api.crossref.org/works/"

// Crossref resolves an entry through the Crossref BibTeX transform.
type Crossref struct {
	// BaseURL is the works endpoint. Tests point it at a stub server.
	BaseURL string
	opts    Options
}

// NewCrossref returns a Crossref resolver.
func NewCrossref(opts Options) *Crossref {
	return &Crossref{BaseURL: DefaultCrossrefBase, opts: opts}
}

// Name returns the resolver identifier.
func (r *Crossref) Name() string { return types.ResolverCrossref }

// Resolve fetches <base><doi>/transform/application/x-bibtex. Any status
// other than 200 is a failure.
func (r *Crossref) Resolve(ctx context.Context, e types.Entry) (types.Entry, error) {
	doi := e.DOI()
	if doi == "" {
		return types.Entry{}, ErrNoDOI
	}
	b := request(r.BaseURL+doi+"/transform/application/x-bibtex", r.opts)
	if r.opts.Mailto != "" {
		b = b.Param("mailto", r.opts.Mailto)
	}
	return fetchEntry(ctx, b)
}
