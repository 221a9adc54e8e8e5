package symcore

import (
	"errors"
	"math"
	"math/big"
)

// ============================================================
// Decimal evaluation
// ============================================================

var floatFuncs = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"sec":  func(x float64) float64 { return 1 / math.Cos(x) },
	"csc":  func(x float64) float64 { return 1 / math.Sin(x) },
	"cot":  func(x float64) float64 { return 1 / math.Tan(x) },
	"asin": math.Asin,
	"acos": math.Acos,
	"atan": math.Atan,
	"sinh": math.Sinh,
	"cosh": math.Cosh,
	"tanh": math.Tanh,
	"exp":  math.Exp,
	"ln":   math.Log,
	"log":  math.Log10,
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
}

// approxFloat wraps a finite float64. Precision is capped at 53 bits since
// that is all a float64 carries.
func approxFloat(v float64, prec uint) Number {
	if prec == 0 || prec > 53 {
		prec = 53
	}
	return Number{kind: KindDecimal, d: new(big.Float).SetPrec(prec).SetFloat64(v)}
}

// growthFuncs overflow a float64 long before their argument is large, so
// their argument is held to the exponent guard like a power.
var growthFuncs = map[string]bool{"exp": true, "sinh": true, "cosh": true}

// evalFloatFunc returns ErrDeferred when the exponent guard refuses the
// evaluation.
func evalFloatFunc(name string, args []Number, prec uint, lim Limits) (Number, bool, error) {
	fn, ok := floatFuncs[name]
	if !ok {
		return Number{}, false, nil
	}
	if growthFuncs[name] && len(args) == 1 && exponentTooLarge(args[0], lim) {
		return Number{}, false, ErrDeferred
	}
	var v float64
	switch {
	case name == "log" && len(args) == 2:
		v = math.Log(args[0].Float64()) / math.Log(args[1].Float64())
	case len(args) == 1:
		v = fn(args[0].Float64())
	default:
		return Number{}, false, nil
	}
	switch {
	case math.IsNaN(v):
		return Number{}, false, domainError(name, "argument outside the domain")
	case math.IsInf(v, 0) && growthFuncs[name]:
		return Number{}, false, &ArithmeticError{Op: name, Reason: "overflow", Err: ErrArithmetic}
	case math.IsInf(v, 0):
		return Number{}, false, domainError(name, "pole")
	}
	return approxFloat(v, prec), true, nil
}

// numericArgs returns the arguments of f when all are real literals.
func numericArgs(f *Func) ([]Number, bool, bool) {
	args := make([]Number, len(f.args))
	inexact := false
	for i, a := range f.args {
		n, ok := numOf(a)
		if !ok || !n.IsReal() {
			return nil, false, false
		}
		args[i] = n
		inexact = inexact || !n.IsExact()
	}
	return args, true, inexact
}

// evalDecimalFunc evaluates functions of decimal literals. Inputs are already
// approximate, so this never loses exactness. sqrt and ln are left to their
// rules, which also handle negative arguments.
func evalDecimalFunc(rc *RuleContext, f *Func) (Expr, bool, error) {
	if f.name == "sqrt" || f.name == "ln" {
		return nil, false, nil
	}
	args, ok, inexact := numericArgs(f)
	if !ok || !inexact {
		return nil, false, nil
	}
	prec := DefaultPrecision
	for _, a := range args {
		if p := a.Precision(); p > 0 && p < prec {
			prec = p
		}
	}
	v, ok, err := evalFloatFunc(f.name, args, prec, rc.Limits)
	if errors.Is(err, ErrDeferred) {
		rc.Defer(GuardExponent)
		return nil, false, nil
	}
	if err != nil || !ok {
		return nil, false, err
	}
	return NNumber(v), true, nil
}

// approxRules run last, and only when AllowApproximation is set: whatever
// exact form survived is evaluated to a decimal.
type approxRules struct{}

func (approxRules) Name() string { return "approx" }

func (approxRules) Rewrite(rc *RuleContext, e Expr) (Expr, bool, error) {
	prec := rc.Config.DecimalPrecision
	switch x := e.(type) {
	case *Const:
		switch x.name {
		case ConstPi:
			return matched(NNumber(approxFloat(math.Pi, prec)))
		case ConstE:
			return matched(NNumber(approxFloat(math.E, prec)))
		}
	case *Func:
		args, ok, _ := numericArgs(x)
		if !ok {
			return noMatch()
		}
		v, ok, err := evalFloatFunc(x.name, args, prec, rc.Limits)
		if errors.Is(err, ErrDeferred) {
			rc.Defer(GuardExponent)
			return noMatch()
		}
		if err != nil || !ok {
			return nil, false, err
		}
		return matched(NNumber(v))
	case *Binary:
		if x.op != OpPow {
			return noMatch()
		}
		b, okB := numOf(x.left)
		p, okP := numOf(x.right)
		if !okB || !okP || p.IsInteger() || !b.IsReal() {
			return noMatch()
		}
		v, err := approxFloat(b.Float64(), prec).Pow(p, rc.Limits)
		if errors.Is(err, ErrDeferred) {
			rc.Defer(GuardExponent)
			return noMatch()
		}
		if err != nil {
			return noMatch()
		}
		return matched(NNumber(v))
	}
	return noMatch()
}

// Approximate simplifies e with decimal evaluation enabled at prec bits.
func Approximate(e Expr, prec uint) (Expr, error) {
	cfg := DefaultConfig()
	cfg.AllowApproximation = true
	if prec > 0 {
		cfg.DecimalPrecision = prec
	}
	return Simplify(e, cfg)
}
