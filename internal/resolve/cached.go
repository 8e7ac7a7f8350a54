// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/delanoflipse/pretty-bib/internal/logging"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// Cache stores successful resolutions keyed by resolver name and a lookup
// key, normally the DOI.
type Cache interface {
	Get(ctx context.Context, resolver, doi string) (types.Entry, bool, error)
	Put(ctx context.Context, resolver, doi string, e types.Entry) error
}

// cacheKeyer is implemented by resolvers whose result depends on more than
// the DOI.
type cacheKeyer interface {
	CacheKey(e types.Entry) string
}

// Cached wraps a Resolver with a Cache. Lookups and stores are keyed by the
// lower-cased DOI, or by the inner resolver's CacheKey when it has one;
// entries without a DOI go straight to the inner resolver. Cache errors are
// logged and never fail a resolution.
type Cached struct {
	inner Resolver
	cache Cache
	log   *log.Logger
}

// WithCache decorates r with c.
func WithCache(r Resolver, c Cache, logger *log.Logger) *Cached {
	return &Cached{inner: r, cache: c, log: logging.OrDiscard(logger)}
}

// Name returns the inner resolver's name.
func (c *Cached) Name() string { return c.inner.Name() }

// Resolve serves from the cache when possible and records fresh results.
func (c *Cached) Resolve(ctx context.Context, e types.Entry) (types.Entry, error) {
	doi := strings.ToLower(e.DOI())
	if doi == "" {
		return c.inner.Resolve(ctx, e)
	}
	if k, ok := c.inner.(cacheKeyer); ok {
		doi = k.CacheKey(e)
	}

	hit, ok, err := c.cache.Get(ctx, c.inner.Name(), doi)
	if err != nil {
		c.log.Warn("cache read failed", "resolver", c.inner.Name(), "doi", doi, "err", err)
	} else if ok {
		c.log.Debug("cache hit", "resolver", c.inner.Name(), "doi", doi)
		return hit, nil
	}

	got, err := c.inner.Resolve(ctx, e)
	if err != nil {
		return types.Entry{}, err
	}
	if err := c.cache.Put(ctx, c.inner.Name(), doi, got); err != nil {
		c.log.Warn("cache write failed", "resolver", c.inner.Name(), "doi", doi, "err", err)
	}
	return got, nil
}
