// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the resolvers.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRetryAfter is used when a 429 response carries no usable
// Retry-After header.
var DefaultRetryAfter = 5 * time.Second

// MaxRetryAfter caps any single wait, whatever the server asks for.
var MaxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 3

// sleep waits for d or until ctx is done. Tests replace it to avoid real waits.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// RetryAfter returns how long to wait before retrying resp. The header may
// hold delta-seconds or an HTTP date. When it is absent or unparseable the
// fallback is DefaultRetryAfter doubled per prior attempt.
func RetryAfter(resp *http.Response, attempt int) time.Duration {
	d := DefaultRetryAfter << attempt
	if h := resp.Header.Get("Retry-After"); h != "" {
		if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
			d = time.Duration(secs) * time.Second
		} else if t, err := http.ParseTime(h); err == nil {
			d = time.Until(t)
			if d < 0 {
				d = 0
			}
		}
	}
	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d
}

// Transport is an http.RoundTripper that paces requests with a token bucket
// and retries HTTP 429 (Too Many Requests), waiting as directed by the
// Retry-After header.
//
// On each 429 the response body is drained and closed before sleeping. If
// the request context is cancelled during a wait RoundTrip returns
// ctx.Err(). After MaxRetries retries the last 429 response is returned, so
// the caller's status check turns it into a StatusError.
type Transport struct {
	// Base performs the actual round trip (default http.DefaultTransport).
	Base http.RoundTripper

	// Limiter paces requests. Nil disables pacing.
	Limiter *rate.Limiter

	// MaxRetries bounds 429 retries (default 3).
	MaxRetries int
}

// NewTransport returns a Transport allowing rps requests per second. A
// non-positive rps disables pacing.
func NewTransport(base http.RoundTripper, rps float64, maxRetries int) *Transport {
	t := &Transport{Base: base, MaxRetries: maxRetries}
	if rps > 0 {
		t.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	maxRetries := t.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	ctx := req.Context()

	for attempt := 0; ; attempt++ {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		resp, err := base.RoundTrip(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := RetryAfter(resp, attempt)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// NewClient returns an http.Client whose transport paces and retries
// according to rps and maxRetries.
func NewClient(timeout time.Duration, rps float64, maxRetries int) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(http.DefaultTransport, rps, maxRetries),
	}
}

// CheckOK returns a *StatusError unless resp has status 200. Its signature
// matches a requests validator.
func CheckOK(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL.String()
	}
	return &StatusError{URL: u, StatusCode: resp.StatusCode}
}
