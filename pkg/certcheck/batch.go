// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcheck

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of checks a batch runs at once.
const DefaultConcurrency = 4

// BatchItem is the outcome of one check in a batch.
type BatchItem struct {
	// URL is the endpoint that was checked.
	URL string

	// Result is the check result. Nil when Err is set.
	Result *Result

	// Err is the error returned for this endpoint, if any.
	Err error
}

// CheckAll runs Check for every request with at most concurrency checks in
// flight. Items are returned in input order. A failing item never stops the
// others; when any item failed the returned error is an *AggregateError.
func (c *Checker) CheckAll(ctx context.Context, reqs []Request, concurrency int) ([]BatchItem, error) {
	return c.runBatch(ctx, len(reqs), concurrency, func(ctx context.Context, i int) BatchItem {
		req := reqs[i]
		res, err := c.Check(ctx, &req)
		return BatchItem{URL: req.URL, Result: res, Err: err}
	})
}

// InspectAll runs Inspect for every URL with at most concurrency inspections
// in flight, with the same ordering and error semantics as CheckAll.
func (c *Checker) InspectAll(ctx context.Context, urls []string, concurrency int) ([]BatchItem, error) {
	return c.runBatch(ctx, len(urls), concurrency, func(ctx context.Context, i int) BatchItem {
		res, err := c.Inspect(ctx, urls[i])
		return BatchItem{URL: urls[i], Result: res, Err: err}
	})
}

func (c *Checker) runBatch(
	ctx context.Context,
	n, concurrency int,
	run func(ctx context.Context, i int) BatchItem,
) ([]BatchItem, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	items := make([]BatchItem, n)

	// Workers never return an error so one failure cannot cancel the rest.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range n {
		g.Go(func() error {
			items[i] = run(gctx, i)
			return nil
		})
	}
	_ = g.Wait()

	var failed []ItemError
	for _, item := range items {
		if item.Err != nil {
			failed = append(failed, ItemError{URL: item.URL, Err: item.Err})
		}
	}
	if len(failed) > 0 {
		c.logger.Warn("batch completed with failures", "total", n, "failed", len(failed))
		return items, &AggregateError{Items: failed}
	}

	c.logger.Debug("batch completed", "total", n)
	return items, nil
}
