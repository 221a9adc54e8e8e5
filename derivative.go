package symcore

import (
	"context"
	"fmt"
)

// ============================================================
// Differentiation
// ============================================================

// derivativeTemplates give f'(u) for the chain rule d f(u) = f'(u) * du.
var derivativeTemplates = map[string]func(u Expr) Expr{
	"sin": func(u Expr) Expr { return CosOf(u) },
	"cos": func(u Expr) Expr { return MulOf(N(-1), SinOf(u)) },
	"tan": func(u Expr) Expr { return PowOf(CosOf(u), N(-2)) },
	"sec": func(u Expr) Expr { return MulOf(FuncOf("sec", u), TanOf(u)) },
	"csc": func(u Expr) Expr { return MulOf(N(-1), FuncOf("csc", u), FuncOf("cot", u)) },
	"cot": func(u Expr) Expr { return MulOf(N(-1), PowOf(SinOf(u), N(-2))) },
	"asin": func(u Expr) Expr {
		return PowOf(SubOf(N(1), PowOf(u, N(2))), F(-1, 2))
	},
	"acos": func(u Expr) Expr {
		return MulOf(N(-1), PowOf(SubOf(N(1), PowOf(u, N(2))), F(-1, 2)))
	},
	"atan": func(u Expr) Expr { return DivOf(N(1), AddOf(N(1), PowOf(u, N(2)))) },
	"sinh": func(u Expr) Expr { return FuncOf("cosh", u) },
	"cosh": func(u Expr) Expr { return FuncOf("sinh", u) },
	"tanh": func(u Expr) Expr { return PowOf(FuncOf("cosh", u), N(-2)) },
	"exp":  func(u Expr) Expr { return ExpOf(u) },
	"ln":   func(u Expr) Expr { return DivOf(N(1), u) },
	// log with one argument is base 10
	"log":  func(u Expr) Expr { return DivOf(N(1), MulOf(u, LnOf(N(10)))) },
	"sqrt": func(u Expr) Expr { return DivOf(N(1), MulOf(N(2), SqrtOf(u))) },
	"abs":  func(u Expr) Expr { return DivOf(AbsOf(u), u) },
}

// Differentiate returns the normalized derivative of e with respect to
// variable using the shared default engine.
func Differentiate(e Expr, variable string) (Expr, error) {
	res, err := defaultEngine().Differentiate(context.Background(), e, variable)
	if err != nil {
		return nil, err
	}
	return res.Expr, nil
}

// Differentiate derives e and normalizes the raw derivative.
func (eng *Engine) Differentiate(ctx context.Context, e Expr, variable string) (Result, error) {
	res, err := eng.differentiate(ctx, e, variable)
	eng.metrics.observeDerivative(err)
	return res, err
}

func (eng *Engine) differentiate(ctx context.Context, e Expr, variable string) (Result, error) {
	if err := Validate(e); err != nil {
		return Result{}, err
	}
	if variable == "" {
		return Result{}, &MalformedError{Node: "variable", Reason: "empty name"}
	}
	raw, err := derive(e, variable)
	if err != nil {
		return Result{}, err
	}
	return eng.Simplify(ctx, raw)
}

// DiffN returns the n-th derivative, normalizing after every step.
func (eng *Engine) DiffN(ctx context.Context, e Expr, variable string, n int) (Result, error) {
	if n < 0 {
		return Result{}, &MalformedError{Node: "order", Reason: fmt.Sprintf("derivative order %d is negative", n)}
	}
	res, err := eng.Simplify(ctx, e)
	if err != nil {
		return Result{}, err
	}
	guard := res.Guard
	for i := 0; i < n; i++ {
		res, err = eng.Differentiate(ctx, res.Expr, variable)
		if err != nil {
			return Result{}, fmt.Errorf("derivative %d: %w", i+1, err)
		}
		guard |= res.Guard
	}
	res.Guard = guard
	return res, nil
}

// Gradient returns the partial derivatives of e in the order of vars.
func (eng *Engine) Gradient(ctx context.Context, e Expr, vars []string) ([]Expr, error) {
	out := make([]Expr, len(vars))
	for i, v := range vars {
		res, err := eng.Differentiate(ctx, e, v)
		if err != nil {
			return nil, fmt.Errorf("d/d%s: %w", v, err)
		}
		out[i] = res.Expr
	}
	return out, nil
}

// derive builds the raw, unnormalized derivative.
func derive(e Expr, v string) (Expr, error) {
	if !DependsOn(e, v) {
		return N(0), nil
	}
	switch x := e.(type) {
	case *Sym:
		return N(1), nil
	case *Unary:
		d, err := derive(x.arg, v)
		if err != nil {
			return nil, err
		}
		return NegOf(d), nil
	case *Binary:
		return deriveBinary(x, v)
	case *Func:
		return deriveFunc(x, v)
	}
	return N(0), nil
}

func deriveBinary(x *Binary, v string) (Expr, error) {
	if x.op == OpPow {
		return derivePow(x.left, x.right, v)
	}
	a, b := x.left, x.right
	da, err := derive(a, v)
	if err != nil {
		return nil, err
	}
	db, err := derive(b, v)
	if err != nil {
		return nil, err
	}
	switch x.op {
	case OpAdd:
		return AddOf(da, db), nil
	case OpSub:
		return SubOf(da, db), nil
	case OpMul:
		return AddOf(MulOf(da, b), MulOf(a, db)), nil
	case OpDiv:
		return DivOf(SubOf(MulOf(da, b), MulOf(a, db)), PowOf(b, N(2))), nil
	}
	return nil, &MalformedError{Node: x.op.String(), Reason: "unknown operator"}
}

func derivePow(b, ex Expr, v string) (Expr, error) {
	bDep, eDep := DependsOn(b, v), DependsOn(ex, v)
	switch {
	case !eDep:
		db, err := derive(b, v)
		if err != nil {
			return nil, err
		}
		return MulOf(ex, PowOf(b, AddOf(ex, N(-1))), db), nil
	case !bDep:
		de, err := derive(ex, v)
		if err != nil {
			return nil, err
		}
		return MulOf(PowOf(b, ex), LnOf(b), de), nil
	}
	// logarithmic differentiation: (b^e)' = b^e * (e'*ln(b) + e*b'/b)
	db, err := derive(b, v)
	if err != nil {
		return nil, err
	}
	de, err := derive(ex, v)
	if err != nil {
		return nil, err
	}
	return MulOf(PowOf(b, ex), AddOf(MulOf(de, LnOf(b)), DivOf(MulOf(ex, db), b))), nil
}

func deriveFunc(f *Func, v string) (Expr, error) {
	if f.name == "log" && len(f.args) == 2 {
		return derive(DivOf(LnOf(f.args[0]), LnOf(f.args[1])), v)
	}
	tmpl, ok := derivativeTemplates[f.name]
	if !ok || len(f.args) != 1 {
		return nil, &NoDerivativeRuleError{Func: f.name}
	}
	du, err := derive(f.args[0], v)
	if err != nil {
		return nil, err
	}
	return MulOf(tmpl(f.args[0]), du), nil
}
