// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snowball expands a bibliography with the works its entries cite,
// using Crossref reference lists.
package snowball

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/delanoflipse/pretty-bib/internal/bib"
	"github.com/delanoflipse/pretty-bib/internal/httputil"
	"github.com/delanoflipse/pretty-bib/internal/logging"
	"github.com/delanoflipse/pretty-bib/internal/resolve"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// Snowballer collects the references of entries and resolves them to BibTeX.
type Snowballer struct {
	// WorksURL is the Crossref works endpoint, with trailing slash.
	WorksURL string
	// DOIBase is the content-negotiating DOI resolver used for references.
	DOIBase string

	opts resolve.Options
	log  *log.Logger
}

// New returns a Snowballer talking to the public Crossref and doi.org
// endpoints.
func New(opts resolve.Options, logger *log.Logger) *Snowballer {
	return &Snowballer{
		WorksURL: resolve.DefaultCrossrefBase,
		DOIBase:  resolve.DefaultDOIBase,
		opts:     opts,
		log:      logging.OrDiscard(logger),
	}
}

// Result holds the references discovered in a run. References are the raw
// Crossref reference objects in discovery order, one per distinct DOI.
type Result struct {
	References []json.RawMessage
	DOIs       []string
	Entries    []types.Entry
	Failed     int
}

// Run gathers the references of every entry that has a DOI, de-duplicates
// them by DOI across the run and fetches a BibTeX record for each. Per-entry
// and per-reference failures are logged and skipped.
func (s *Snowballer) Run(ctx context.Context, entries []types.Entry) (Result, error) {
	var res Result
	seen := make(map[string]bool)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		l := s.log.With("key", e.Key)
		l.Info("processing", "type", e.Type)

		doi := e.DOI()
		if doi == "" {
			continue
		}

		work, err := s.work(ctx, doi)
		if err != nil {
			l.Warn("fetching work failed", "doi", doi, "err", err)
			continue
		}
		refs := work.Get("message.reference").Array()
		l.Info("work", "doi", doi,
			"referenced_by", work.Get("message.is-referenced-by-count").Int(),
			"references", len(refs))

		for _, ref := range refs {
			refDOI := ref.Get("DOI").String()
			if refDOI == "" {
				title := ref.Get("article-title").String()
				if title == "" {
					continue
				}
				l.Debug("looking up doi", "title", title)
				refDOI, err = s.lookupDOI(ctx, title)
				if err != nil {
					l.Warn("doi lookup failed", "title", title, "err", err)
					continue
				}
				if refDOI == "" {
					continue
				}
				l.Debug("found doi", "doi", refDOI)
			}

			norm := strings.ToLower(strings.TrimSpace(refDOI))
			if seen[norm] {
				continue
			}
			seen[norm] = true
			res.DOIs = append(res.DOIs, refDOI)
			res.References = append(res.References, json.RawMessage(ref.Raw))
		}
	}

	for _, doi := range res.DOIs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e, err := resolve.FetchByDOI(ctx, s.DOIBase, doi, s.opts)
		if err != nil {
			s.log.Warn("resolving reference failed", "doi", doi, "err", err)
			res.Failed++
			continue
		}
		res.Entries = append(res.Entries, e)
	}
	return res, nil
}

// work fetches the Crossref works record for doi.
func (s *Snowballer) work(ctx context.Context, doi string) (gjson.Result, error) {
	var body string
	err := s.request(s.WorksURL+doi).
		Accept("application/json; charset=utf-8").
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(body) {
		return gjson.Result{}, fmt.Errorf("invalid JSON from %s", s.WorksURL)
	}
	return gjson.Parse(body), nil
}

// lookupDOI returns the DOI of Crossref's best bibliographic match for
// title, or "" when nothing matched.
func (s *Snowballer) lookupDOI(ctx context.Context, title string) (string, error) {
	var body string
	err := s.request(strings.TrimSuffix(s.WorksURL, "/")).
		Param("query.bibliographic", title).
		Param("rows", "1").
		Accept("application/json; charset=utf-8").
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return "", err
	}
	return gjson.Get(body, "message.items.0.DOI").String(), nil
}

func (s *Snowballer) request(url string) *requests.Builder {
	b := requests.URL(url).AddValidator(httputil.CheckOK)
	if s.opts.Client != nil {
		b = b.Client(s.opts.Client)
	}
	if s.opts.UserAgent != "" {
		b = b.UserAgent(s.opts.UserAgent)
	}
	if s.opts.Mailto != "" {
		b = b.Param("mailto", s.opts.Mailto)
	}
	return b
}

// WriteOutputs writes the reference metadata to <base>.json and the
// resolved entries to <base>.snowball.bib.
func WriteOutputs(res Result, base string, f bib.Format) error {
	refs := res.References
	if refs == nil {
		refs = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(refs, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling references: %w", err)
	}
	if err := os.WriteFile(base+".json", data, 0o644); err != nil {
		return fmt.Errorf("writing references: %w", err)
	}
	return bib.WriteFile(base+".snowball.bib", res.Entries, f)
}
