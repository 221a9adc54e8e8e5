package symcore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/njchilds90/symcore/internal/logging"
)

// maxRewriteDepth bounds how many successive rule rewrites a single node may
// go through within one pass.
const maxRewriteDepth = 32

// Guard marks which resource guards tripped during a request. Trips are not
// errors: the best-known tree is still returned.
type Guard uint8

const (
	// GuardNone: no guard fired.
	GuardNone Guard = 0
	// GuardExponent: a numeric power exceeded the exponent or result-size limit.
	GuardExponent Guard = 1 << (iota - 1)
	// GuardComplexity: a pass visited more than MaxComplexityNodes nodes.
	GuardComplexity
	// GuardTimeout: TimeBudget or the context deadline expired.
	GuardTimeout
	// GuardCanceled: the context was canceled.
	GuardCanceled
)

var guardNames = []struct {
	g    Guard
	name string
}{
	{GuardExponent, "exponent"},
	{GuardComplexity, "complexity"},
	{GuardTimeout, "timeout"},
	{GuardCanceled, "canceled"},
}

// Has reports whether flag is set.
func (g Guard) Has(flag Guard) bool { return g&flag != 0 }

// aborting reports guards that stop the pass and forbid caching.
func (g Guard) aborting() bool { return g&(GuardComplexity|GuardTimeout|GuardCanceled) != 0 }

func (g Guard) String() string {
	if g == GuardNone {
		return "none"
	}
	var parts []string
	for _, n := range guardNames {
		if g.Has(n.g) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Names lists the tripped guards.
func (g Guard) Names() []string {
	var out []string
	for _, n := range guardNames {
		if g.Has(n.g) {
			out = append(out, n.name)
		}
	}
	return out
}

// Result is the outcome of a simplification.
type Result struct {
	Expr       Expr
	Guard      Guard
	Iterations int
}

// Tripped reports whether any guard fired.
func (r Result) Tripped() bool { return r.Guard != GuardNone }

// ============================================================
// Engine
// ============================================================

// Engine drives the rule modules to a fixpoint. It is safe for concurrent
// use; the only shared mutable state is the cache.
type Engine struct {
	cfg         Config
	limits      Limits
	rules       []Rule
	cache       Cache
	logger      *slog.Logger
	metrics     *Metrics
	fingerprint uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache replaces the default in-memory cache. nil disables caching.
func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger sets the engine logger. nil keeps the current one.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records engine outcomes on m. nil disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRules registers extra rule families. They run after the built-in ones.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = append(e.rules, rules...) }
}

// NewEngine validates cfg and builds an engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		limits: cfg.Limits(),
		rules:  defaultRules(cfg),
		logger: logging.NewNop(),
	}
	if cfg.CacheSize > 0 {
		e.cache = NewLRUCache(cfg.CacheSize)
	}
	for _, opt := range opts {
		opt(e)
	}
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	e.fingerprint = cfg.fingerprint(names)
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Cache returns the engine cache, or nil when caching is disabled.
func (e *Engine) Cache() Cache { return e.cache }

func (e *Engine) ResetCache() {
	if e.cache != nil {
		e.cache.Reset()
	}
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic("symcore: default config rejected: " + err.Error())
	}
	return e
})

// Simplify normalizes e with a fresh engine built from cfg.
func Simplify(e Expr, cfg Config) (Expr, error) {
	eng, err := NewEngine(cfg, WithCache(nil))
	if err != nil {
		return nil, err
	}
	res, err := eng.Simplify(context.Background(), e)
	if err != nil {
		return nil, err
	}
	return res.Expr, nil
}

// Simplify rewrites expr to its normal form. Arithmetic failures abort the
// request; guard trips are reported in Result.Guard.
func (e *Engine) Simplify(ctx context.Context, expr Expr) (Result, error) {
	start := time.Now()
	res, err := e.simplify(ctx, expr)
	e.metrics.observeSimplify(res.Guard, err, time.Since(start))
	if err != nil {
		return Result{}, err
	}
	if res.Tripped() {
		e.logger.Warn("simplification guard tripped", "guard", res.Guard.String(), "iterations", res.Iterations)
	}
	return res, nil
}

func (e *Engine) simplify(ctx context.Context, expr Expr) (Result, error) {
	if err := Validate(expr); err != nil {
		return Result{}, err
	}
	r := e.newRun(ctx)
	cur := expr
	res := Result{Expr: expr}
	for i := 0; i < int(e.cfg.MaxIterations); i++ {
		r.budget.nodes = 0
		next, err := r.simplify(cur, 0)
		if err != nil {
			return Result{}, err
		}
		res.Iterations = i + 1
		changed := !next.Equal(cur)
		e.logger.Debug("simplify pass", "iteration", i+1, "changed", changed, "nodes", r.budget.nodes)
		cur = next
		if !changed || r.aborted {
			break
		}
	}
	res.Expr = cur
	res.Guard = r.guard | r.rc.guard
	return res, nil
}

// run is the state of one request.
type run struct {
	eng     *Engine
	ctx     context.Context
	budget  budget
	rc      RuleContext
	guard   Guard
	aborted bool
}

func (e *Engine) newRun(ctx context.Context) *run {
	return &run{
		eng:    e,
		ctx:    ctx,
		budget: newBudget(ctx, e.cfg),
		rc:     RuleContext{Config: e.cfg, Limits: e.limits},
	}
}

func (r *run) trip(g Guard) {
	r.guard |= g
	if g.aborting() {
		r.aborted = true
	}
}

func (r *run) simplify(e Expr, depth int) (Expr, error) {
	if r.aborted {
		return e, nil
	}
	if g := r.budget.check(); g != GuardNone {
		r.trip(g)
		return e, nil
	}

	var key uint64
	if r.eng.cache != nil {
		key = hashExpr(e, r.eng.fingerprint)
		if entry, ok := r.eng.cache.Get(r.ctx, key); ok && entry.Input.Equal(e) {
			r.eng.metrics.cacheLookup(true)
			r.rc.guard |= entry.Guard
			return entry.Output, nil
		}
		r.eng.metrics.cacheLookup(false)
	}

	// collect the guards raised inside this subtree
	outerGuard, outerRC := r.guard, r.rc.guard
	r.guard, r.rc.guard = GuardNone, GuardNone
	out, err := r.rewrite(e, depth)
	sub := r.guard | r.rc.guard
	r.guard, r.rc.guard = outerGuard|r.guard, outerRC|r.rc.guard
	if err != nil {
		return nil, err
	}
	if r.eng.cache != nil && !r.aborted && !sub.aborting() {
		r.eng.cache.Put(r.ctx, key, CacheEntry{Input: e, Output: out, Guard: sub})
	}
	return out, nil
}

func (r *run) rewrite(e Expr, depth int) (Expr, error) {
	node := e
	if children := e.Children(); len(children) > 0 {
		next := make([]Expr, len(children))
		changed := false
		for i, c := range children {
			s, err := r.simplify(c, depth)
			if err != nil {
				return nil, err
			}
			next[i] = s
			if s != c && !s.Equal(c) {
				changed = true
			}
		}
		if changed {
			node = e.rebuild(next)
		}
	}
	if r.aborted {
		return node, nil
	}

	if v, ok, err := evalLiteral(&r.rc, node); err != nil {
		return nil, err
	} else if ok {
		node = v
	}

	for _, rule := range r.eng.rules {
		out, ok, err := rule.Rewrite(&r.rc, node)
		if err != nil {
			return nil, fmt.Errorf("%s rules: %w", rule.Name(), err)
		}
		if !ok || out == nil || out.Equal(node) {
			continue
		}
		if depth >= maxRewriteDepth {
			return out, nil
		}
		return r.simplify(out, depth+1)
	}
	return node, nil
}

// evalLiteral folds operators applied directly to numeric literals.
func evalLiteral(rc *RuleContext, e Expr) (Expr, bool, error) {
	switch x := e.(type) {
	case *Binary:
		if x.op == OpDiv {
			if n, ok := numOf(x.right); ok && n.IsZero() {
				return nil, false, divByZero("div")
			}
		}
		a, okA := numOf(x.left)
		b, okB := numOf(x.right)
		if !okA || !okB {
			return nil, false, nil
		}
		var v Number
		var err error
		switch x.op {
		case OpAdd:
			v, err = a.Add(b)
		case OpSub:
			v, err = a.Sub(b)
		case OpMul:
			v, err = a.Mul(b)
		case OpDiv:
			v, err = a.Div(b)
		default:
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return NNumber(v), true, nil
	case *Func:
		return evalDecimalFunc(rc, x)
	}
	return nil, false, nil
}
