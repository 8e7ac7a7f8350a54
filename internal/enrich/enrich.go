// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich runs bibliography entries through resolution, merging and
// filtering.
package enrich

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/stream"

	"github.com/delanoflipse/pretty-bib/internal/filter"
	"github.com/delanoflipse/pretty-bib/internal/logging"
	"github.com/delanoflipse/pretty-bib/internal/merge"
	"github.com/delanoflipse/pretty-bib/internal/resolve"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// Status values for an Outcome.
const (
	StatusResolved = "resolved"
	StatusKept     = "kept"
)

// Outcome describes what happened to one entry.
type Outcome struct {
	Key      string             `json:"key" yaml:"key"`
	Type     string             `json:"type" yaml:"type"`
	Status   string             `json:"status" yaml:"status"`
	Resolver string             `json:"resolver,omitempty" yaml:"resolver,omitempty"`
	Attempts []resolve.Attempt  `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Merge    *merge.Diagnostics `json:"merge,omitempty" yaml:"merge,omitempty"`
	Removed  []string           `json:"removed,omitempty" yaml:"removed,omitempty"`
}

// Report holds the outcome of an enrichment run. Entries and Outcomes are in
// input order.
type Report struct {
	Resolved int       `json:"resolved" yaml:"resolved"`
	Kept     int       `json:"kept" yaml:"kept"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`

	Entries []types.Entry `json:"-" yaml:"-"`
}

// Total returns the number of entries processed.
func (r Report) Total() int {
	return r.Resolved + r.Kept
}

// Options configures Run.
type Options struct {
	Chain  *resolve.Chain
	Filter *filter.Filter
	Logger *log.Logger

	// Workers bounds how many entries resolve at once. Values below 2 run
	// sequentially.
	Workers int
}

// Run enriches entries. Resolver failures never abort the run: the entry is
// kept as written, normalized and filtered. Only context cancellation stops
// Run early, in which case the partial report is returned with the error.
func Run(ctx context.Context, entries []types.Entry, opts Options) (Report, error) {
	logger := logging.OrDiscard(opts.Logger)
	if opts.Chain == nil {
		return Report{}, errors.New("enrich: no resolver chain")
	}
	flt := opts.Filter
	if flt == nil {
		flt = filter.New(types.FilterConfig{})
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	report := Report{
		Outcomes: make([]Outcome, 0, len(entries)),
		Entries:  make([]types.Entry, 0, len(entries)),
	}

	s := stream.New().WithMaxGoroutines(workers)
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		s.Go(func() stream.Callback {
			out, oc := processEntry(ctx, e, opts.Chain, flt, logger)
			// Callbacks run in submission order, one at a time.
			return func() {
				report.Entries = append(report.Entries, out)
				report.Outcomes = append(report.Outcomes, oc)
				if oc.Status == StatusResolved {
					report.Resolved++
				} else {
					report.Kept++
				}
			}
		})
	}
	s.Wait()

	return report, ctx.Err()
}

func processEntry(ctx context.Context, e types.Entry, chain *resolve.Chain, flt *filter.Filter, logger *log.Logger) (types.Entry, Outcome) {
	l := logger.With("key", e.Key)
	l.Info("processing", "doi", e.DOI())

	oc := Outcome{Key: e.Key}
	out := e

	res, err := chain.Resolve(ctx, e)
	oc.Attempts = res.Attempts
	if err != nil {
		l.Warn("keeping original", "err", err)
		oc.Status = StatusKept
	} else {
		merged, diag := merge.Entries(e, res.Entry)
		if diag.TypeChanged() {
			l.Warn("entry type mismatch", "original", diag.OriginalType, "resolved", diag.ResolvedType, "chosen", diag.ChosenType)
		}
		for _, c := range diag.Conflicts {
			l.Debug("field conflict", "field", c.Field, "existing", c.Existing, "incoming", c.Incoming, "chosen", c.Chosen)
		}
		l.Info("resolved", "resolver", res.Resolver)
		oc.Status = StatusResolved
		oc.Resolver = res.Resolver
		if diag.TypeChanged() || len(diag.Conflicts) > 0 {
			oc.Merge = &diag
		}
		out = merged
	}

	out = merge.NormalizeEntry(out)
	oc.Removed = presentKeys(out, flt.Keys(out))
	out = flt.Apply(out)
	oc.Type = out.Type
	return out, oc
}

// presentKeys returns the members of keys that e actually carries.
func presentKeys(e types.Entry, keys []string) []string {
	var out []string
	for _, k := range keys {
		if e.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
