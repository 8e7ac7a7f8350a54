// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"

	"github.com/carlmjohnson/requests"

	"github.com/delanoflipse/pretty-bib/internal/bib"
	"github.com/delanoflipse/pretty-bib/internal/httputil"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

const bibtexAccept = "application/x-bibtex; charset=utf-8"

// request starts a builder with the shared client, User-Agent and status
// check. Rate-limit retries live in the client's transport.
func request(url string, opts Options) *requests.Builder {
	b := requests.URL(url).AddValidator(httputil.CheckOK)
	if opts.Client != nil {
		b = b.Client(opts.Client)
	}
	if opts.UserAgent != "" {
		ua := opts.UserAgent
		if opts.Mailto != "" {
			ua = fmt.Sprintf("%s (mailto:%s)", ua, opts.Mailto)
		}
		b = b.UserAgent(ua)
	}
	return b
}

// fetchEntry GETs url and parses the first BibTeX record of the response.
func fetchEntry(ctx context.Context, b *requests.Builder) (types.Entry, error) {
	var body string
	if err := b.ToString(&body).Fetch(ctx); err != nil {
		return types.Entry{}, err
	}
	e, err := bib.ParseFirst(body)
	if err != nil {
		return types.Entry{}, fmt.Errorf("parsing response: %w", err)
	}
	return e, nil
}
