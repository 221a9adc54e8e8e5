package symcore

import (
	"context"
	"fmt"
	"math/big"
)

// Evaluate substitutes every binding into e and normalizes the result.
// Bindings are applied simultaneously, so a value may mention another
// bound name without being substituted again.
func (eng *Engine) Evaluate(ctx context.Context, e Expr, bindings map[string]Expr) (Result, error) {
	if err := Validate(e); err != nil {
		return Result{}, err
	}
	for name, v := range bindings {
		if err := Validate(v); err != nil {
			return Result{}, fmt.Errorf("binding %q: %w", name, err)
		}
	}
	return eng.Simplify(ctx, substituteAll(e, bindings))
}

func substituteAll(e Expr, bindings map[string]Expr) Expr {
	if s, ok := e.(*Sym); ok {
		if v, ok := bindings[s.name]; ok {
			return v
		}
		return s
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	for i, c := range children {
		children[i] = substituteAll(c, bindings)
	}
	return e.rebuild(children)
}

// TaylorSeries expands e around variable = point up to and including the
// given order: sum of f^(k)(point)/k! * (variable - point)^k.
func (eng *Engine) TaylorSeries(ctx context.Context, e Expr, variable string, point Expr, order int) (Result, error) {
	if order < 0 {
		return Result{}, &MalformedError{Node: "order", Reason: fmt.Sprintf("series order %d is negative", order)}
	}
	if err := Validate(point); err != nil {
		return Result{}, err
	}
	cur, err := eng.Simplify(ctx, e)
	if err != nil {
		return Result{}, err
	}
	guard := cur.Guard
	x := S(variable)
	shift := SubOf(x, point)
	fact := big.NewInt(1)
	terms := make([]Expr, 0, order+1)
	for k := 0; k <= order; k++ {
		if k > 0 {
			fact.Mul(fact, big.NewInt(int64(k)))
		}
		at, err := eng.Simplify(ctx, Substitute(cur.Expr, variable, point))
		if err != nil {
			return Result{}, fmt.Errorf("series term %d: %w", k, err)
		}
		guard |= at.Guard
		terms = append(terms, MulOf(DivOf(at.Expr, NBig(new(big.Int).Set(fact))), PowOf(shift, N(int64(k)))))
		if k == order {
			break
		}
		cur, err = eng.Differentiate(ctx, cur.Expr, variable)
		if err != nil {
			return Result{}, fmt.Errorf("series term %d: %w", k+1, err)
		}
		guard |= cur.Guard
	}
	res, err := eng.Simplify(ctx, AddOf(terms...))
	if err != nil {
		return Result{}, err
	}
	res.Guard |= guard
	return res, nil
}
