// Package refresh re-runs the read queries that back the visible state
// after an install, uninstall or default change.
package refresh

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSettle is how long Refresh waits after the queries finish so
// observers see the refreshed state before the operation is reported done.
const DefaultSettle = 50 * time.Millisecond

// Query is one named re-fetch.
type Query struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result lists the queries that failed, sorted by name.
type Result struct {
	Failed []string
}

// OK reports whether every query succeeded.
func (r Result) OK() bool { return len(r.Failed) == 0 }

// Coordinator runs refresh queries in parallel.
type Coordinator struct {
	settle time.Duration
	limit  int
	log    *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSettle overrides the post-refresh delay. Zero disables it.
func WithSettle(d time.Duration) Option {
	return func(c *Coordinator) {
		c.settle = d
	}
}

// WithConcurrency caps how many queries run at once. Zero or less means
// no cap.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		c.limit = n
	}
}

// WithLogger sets the logger used to report failed queries.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		settle: DefaultSettle,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh runs every query and waits for all of them. A failing query is
// logged and recorded in the Result; it never stops the others and never
// makes Refresh fail. The returned error is non-nil only when ctx ends
// before the settle delay elapses.
func (c *Coordinator) Refresh(ctx context.Context, queries ...Query) (Result, error) {
	var (
		mu     sync.Mutex
		failed []string
	)

	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	for _, q := range queries {
		g.Go(func() error {
			if err := run(ctx, q); err != nil {
				c.log.Warn("refresh query failed", zap.String("query", q.Name), zap.Error(err))
				mu.Lock()
				failed = append(failed, q.Name)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	res := Result{Failed: failed}
	c.log.Debug("refresh finished", zap.Int("queries", len(queries)), zap.Strings("failed", failed))

	if c.settle <= 0 {
		return res, ctx.Err()
	}
	t := time.NewTimer(c.settle)
	defer t.Stop()
	select {
	case <-t.C:
		return res, nil
	case <-ctx.Done():
		return res, ctx.Err()
	}
}

func run(ctx context.Context, q Query) (err error) {
	if q.Run == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query panicked: %v", r)
		}
	}()
	return q.Run(ctx)
}
