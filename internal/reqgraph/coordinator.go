package reqgraph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atlaspack-core/atlaspack/internal/diagnostics"
)

// Coordinator resolves requests against a Tracker, dispatching the actual
// Run calls to a WorkerPool. Resolve handles one request; ResolveAll runs a
// batch from concurrent goroutines, and the Tracker's mutex serializes their
// StartRequest/FinishRequest calls.
type Coordinator struct {
	Tracker *Tracker
	Pool    *WorkerPool
	Logger  *slog.Logger
	Options GlobalOptions
}

// NewCoordinator wires a Tracker and WorkerPool together. A nil logger
// falls back to slog.Default() rather than panicking on first use.
func NewCoordinator(tracker *Tracker, pool *WorkerPool, logger *slog.Logger, opts GlobalOptions) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{Tracker: tracker, Pool: pool, Logger: logger, Options: opts}
}

// Resolve runs one request to completion, using any cached result a
// previous call (or previous build, via carry-over) already produced.
// dependent, if non-zero, registers a request-to-request invalidation edge.
func (c *Coordinator) Resolve(ctx context.Context, req Request, dependent NodeID) (RequestOutput, error) {
	id := ID(req)

	if out, ok := c.Tracker.StartRequest(req, dependent); ok {
		return out, nil
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", req.TypeTag(), ctx.Err())
	default:
	}

	var (
		out   RequestOutput
		diags []diagnostics.Diagnostic
		invs  []Invalidation
		err   error
	)
	<-c.Pool.Go(func() {
		out, diags, invs, err = req.Run(ctx, c.Pool, c.Options)
	})
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled: the node is left Incomplete so the next build
			// re-runs it.
			return nil, fmt.Errorf("%s: %w", req.TypeTag(), ctx.Err())
		}
		c.Logger.Error("request failed", "type", req.TypeTag(), "error", err)
		_ = c.Tracker.FinishRequest(id, nil, append(diags, diagnostics.Newf(diagnostics.KindUnknown, req.TypeTag(), "%v", err)), nil)
		return nil, err
	}

	if ferr := c.Tracker.FinishRequest(id, out, diags, invs); ferr != nil {
		return nil, ferr
	}

	bag := diagnostics.Bag{Items: diags}
	if bag.HasErrors() {
		return nil, fmt.Errorf("request %s produced %d error diagnostic(s)", req.TypeTag(), len(bag.Errors()))
	}
	return out, nil
}

// ResolveAll runs a batch of requests concurrently and waits for all of
// them, honoring the guarantee that sibling requests impose no
// ordering on each other. Per-request errors are collected rather than
// aborting the batch, so one failing asset doesn't stop its independent
// siblings.
func (c *Coordinator) ResolveAll(ctx context.Context, reqs []Request, dependent NodeID) ([]RequestOutput, []error) {
	outs := make([]RequestOutput, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	wg.Add(len(reqs))
	for i, r := range reqs {
		i, r := i, r
		go func() {
			defer wg.Done()
			outs[i], errs[i] = c.Resolve(ctx, r, dependent)
		}()
	}
	wg.Wait()
	return outs, errs
}
