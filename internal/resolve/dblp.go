// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/delanoflipse/pretty-bib/internal/merge"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// DefaultDBLPSearch is the DBLP publication search API.
const DefaultDBLPSearch = "https://dblp.org/search/publ/api"

// DBLP resolves an entry by searching DBLP for its title and cross-checking
// the DOI of each hit.
type DBLP struct {
	// SearchURL is the publication search endpoint. Tests point it at a
	// stub server.
	SearchURL string
	opts      Options
}

// NewDBLP returns a DBLP resolver.
func NewDBLP(opts Options) *DBLP {
	return &DBLP{SearchURL: DefaultDBLPSearch, opts: opts}
}

// Name returns the resolver identifier.
func (r *DBLP) Name() string { return types.ResolverDBLP }

// Resolve searches DBLP by title and returns the BibTeX of the first hit
// whose record can be fetched. Hits are scanned in order; a hit whose DOI
// differs from the entry's stops the scan with ErrDOIMismatch. A hit whose
// .bib fetch fails is skipped.
func (r *DBLP) Resolve(ctx context.Context, e types.Entry) (types.Entry, error) {
	doi := e.DOI()
	if doi == "" {
		return types.Entry{}, ErrNoDOI
	}
	title := searchTitle(e)
	if title == "" {
		return types.Entry{}, ErrNoTitle
	}

	var body string
	err := request(r.SearchURL, r.opts).
		Param("q", merge.StripBraces(title)).
		Param("format", "json").
		Accept("application/json").
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return types.Entry{}, fmt.Errorf("dblp search: %w", err)
	}

	hits := gjson.Get(body, "result.hits.hit")
	var lastErr error
	for _, hit := range hits.Array() {
		hitDOI := hit.Get("info.doi").String()
		if !strings.EqualFold(hitDOI, doi) {
			return types.Entry{}, fmt.Errorf("%w: got %q, want %q", ErrDOIMismatch, hitDOI, doi)
		}

		pubURL := hit.Get("info.url").String()
		if pubURL == "" {
			continue
		}

		found, err := fetchEntry(ctx, request(pubURL+".bib", r.opts).Accept(bibtexAccept))
		if err != nil {
			lastErr = err
			continue
		}
		return found, nil
	}

	if lastErr != nil {
		return types.Entry{}, fmt.Errorf("%w: %v", ErrNoHits, lastErr)
	}
	return types.Entry{}, ErrNoHits
}

// CacheKey pairs the DOI with the brace-stripped search title, since a
// corrected title can change which record DBLP returns.
func (r *DBLP) CacheKey(e types.Entry) string {
	return strings.ToLower(e.DOI()) + "|" + strings.ToLower(merge.StripBraces(searchTitle(e)))
}

// searchTitle prefers shorttitle, falling back to title.
func searchTitle(e types.Entry) string {
	if t := strings.TrimSpace(e.Get("shorttitle")); t != "" {
		return t
	}
	return strings.TrimSpace(e.Get("title"))
}
