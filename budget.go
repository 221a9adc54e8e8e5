package symcore

import (
	"context"
	"errors"
	"time"
)

// budget is checked before the engine expands any node.
type budget struct {
	ctx      context.Context
	deadline time.Time
	maxNodes uint
	nodes    uint
}

func newBudget(ctx context.Context, cfg Config) budget {
	b := budget{ctx: ctx, maxNodes: cfg.MaxComplexityNodes}
	if cfg.TimeBudget > 0 {
		b.deadline = time.Now().Add(cfg.TimeBudget)
	}
	return b
}

func (b *budget) check() Guard {
	if err := b.ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return GuardTimeout
		}
		return GuardCanceled
	}
	if !b.deadline.IsZero() && time.Now().After(b.deadline) {
		return GuardTimeout
	}
	if b.maxNodes > 0 && b.nodes >= b.maxNodes {
		return GuardComplexity
	}
	b.nodes++
	return GuardNone
}
