// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve looks up canonical metadata for bibliography entries from
// external providers (doi.org, Crossref, DBLP).
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/delanoflipse/pretty-bib/internal/logging"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// Resolver fetches the canonical record for an entry from one provider.
// Every failure is reported as an error; the chain treats any error as
// "no result" and moves on.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, e types.Entry) (types.Entry, error)
}

var (
	// ErrNoDOI means the entry has no usable doi field.
	ErrNoDOI = errors.New("entry has no doi")

	// ErrNoTitle means the entry has neither shorttitle nor title.
	ErrNoTitle = errors.New("entry has no title")

	// ErrDOIMismatch means a DBLP search hit carried a different DOI.
	ErrDOIMismatch = errors.New("search hit doi does not match")

	// ErrNoHits means a search returned nothing usable.
	ErrNoHits = errors.New("no usable search hits")

	// ErrUnresolved is returned by Chain.Resolve when every resolver failed.
	ErrUnresolved = errors.New("unresolved")
)

// Attempt records one resolver's failure for an entry.
type Attempt struct {
	Resolver string `json:"resolver" yaml:"resolver"`
	Error    string `json:"error" yaml:"error"`
}

// Result is the outcome of a successful chain resolution.
type Result struct {
	Entry    types.Entry
	Resolver string
	Attempts []Attempt
}

// Chain tries resolvers in order and stops at the first success.
type Chain struct {
	resolvers []Resolver
	log       *log.Logger
}

// NewChain returns a chain over resolvers. A nil logger discards diagnostics.
func NewChain(logger *log.Logger, resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers, log: logging.OrDiscard(logger)}
}

// Names lists the resolvers in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, len(c.resolvers))
	for i, r := range c.resolvers {
		names[i] = r.Name()
	}
	return names
}

// Resolve returns the first successful resolution of e. When all resolvers
// fail the error wraps ErrUnresolved and each resolver's error, and the
// returned Result still lists the attempts.
func (c *Chain) Resolve(ctx context.Context, e types.Entry) (Result, error) {
	var res Result
	errs := []error{ErrUnresolved}
	for _, r := range c.resolvers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		got, err := r.Resolve(ctx, e)
		if err != nil {
			c.log.Debug("resolver failed", "key", e.Key, "resolver", r.Name(), "err", err)
			res.Attempts = append(res.Attempts, Attempt{Resolver: r.Name(), Error: err.Error()})
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			continue
		}
		res.Entry = got
		res.Resolver = r.Name()
		return res, nil
	}
	return res, errors.Join(errs...)
}

// Options carries what the built-in resolvers need to talk to their
// providers.
type Options struct {
	Client    *http.Client
	UserAgent string
	Mailto    string
}

// ByName builds the built-in resolver called name.
func ByName(name string, opts Options) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case types.ResolverDBLP:
		return NewDBLP(opts), nil
	case types.ResolverDOI:
		return NewDOI(opts), nil
	case types.ResolverCrossref:
		return NewCrossref(opts), nil
	default:
		return nil, fmt.Errorf("unknown resolver %q (want one of %s, %s, %s)",
			name, types.ResolverDBLP, types.ResolverDOI, types.ResolverCrossref)
	}
}

// FromNames builds resolvers in the given order. It fails on the first
// unknown name, before any request is made.
func FromNames(names []string, opts Options) ([]Resolver, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no resolvers configured")
	}
	out := make([]Resolver, 0, len(names))
	for _, n := range names {
		r, err := ByName(n, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
