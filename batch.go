package symcore

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SimplifyAll normalizes exprs concurrently with at most Config.Workers
// goroutines (GOMAXPROCS when zero). Results keep the input order. The first
// error cancels the remaining work and is returned with its index.
func (eng *Engine) SimplifyAll(ctx context.Context, exprs []Expr) ([]Result, error) {
	out := make([]Result, len(exprs))
	g, gctx := errgroup.WithContext(ctx)
	workers := eng.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i, e := range exprs {
		g.Go(func() error {
			res, err := eng.Simplify(gctx, e)
			if err != nil {
				return fmt.Errorf("expression %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
