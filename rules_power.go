package symcore

import (
	"errors"
	"math"
	"math/big"
)

// ============================================================
// Power rules: exponent laws, guarded numeric powers, exp/ln
// ============================================================

type powerRules struct{}

func (powerRules) Name() string { return "power" }

func (powerRules) Rewrite(rc *RuleContext, e Expr) (Expr, bool, error) {
	switch x := e.(type) {
	case *Binary:
		if x.op == OpPow {
			return rewritePow(rc, x.left, x.right)
		}
	case *Func:
		return rewriteExpLog(rc, x)
	}
	return noMatch()
}

// PowNumber evaluates base^exp under lim. When a guard refuses the
// evaluation the unevaluated power is returned with deferred set. Exact
// operands without an exact result stay symbolic (2^(3/2) → 2*sqrt(2)).
func PowNumber(base, exp Number, lim Limits) (out Expr, deferred bool, err error) {
	v, err := base.Pow(exp, lim)
	switch {
	case err == nil:
		return NNumber(v), false, nil
	case errors.Is(err, ErrDeferred):
		return PowOf(NNumber(base), NNumber(exp)), true, nil
	case errors.Is(err, ErrInexact):
		return symbolicPow(base, exp, lim), false, nil
	}
	return nil, false, err
}

// symbolicPow rewrites base^(p/2) as base^k * sqrt(base) with p = 2k+1.
func symbolicPow(base, exp Number, lim Limits) Expr {
	unevaluated := PowOf(NNumber(base), NNumber(exp))
	r, ok := exp.BigRat()
	if !ok || r.Denom().Cmp(big.NewInt(2)) != 0 {
		return unevaluated
	}
	k := new(big.Int).Sub(r.Num(), big.NewInt(1))
	k.Rsh(k, 1)
	whole, err := base.Pow(Number{kind: KindInteger, i: k}, lim)
	if err != nil {
		return unevaluated
	}
	return MulOf(NNumber(whole), SqrtOf(NNumber(base)))
}

func rewritePow(rc *RuleContext, base, exp Expr) (Expr, bool, error) {
	bn, baseNum := numOf(base)
	en, expNum := numOf(exp)
	if baseNum && expNum {
		if bn.IsZero() && en.IsZero() {
			return noMatch()
		}
		out, deferred, err := PowNumber(bn, en, rc.Limits)
		if err != nil {
			return nil, false, err
		}
		if deferred {
			rc.Defer(GuardExponent)
			return noMatch()
		}
		return matched(out)
	}
	switch {
	case expNum && en.IsZero():
		return matched(N(1))
	case baseNum && bn.IsOne():
		return matched(N(1))
	case baseNum && bn.IsZero():
		if isPositive(exp) {
			return matched(N(0))
		}
		return noMatch()
	}
	if !expNum {
		if f, ok := isFunc(exp, "ln"); ok && E.Equal(base) {
			return matched(f.args[0])
		}
		return distributeNonNegative(base, exp)
	}
	if r, ok := en.BigRat(); ok && r.Cmp(big.NewRat(1, 2)) == 0 {
		return matched(SqrtOf(base))
	}
	if !en.IsInteger() {
		return distributeNonNegative(base, exp)
	}
	n := en.int()
	switch b := base.(type) {
	case *Func:
		if b.name == "sqrt" && len(b.args) == 1 {
			r := b.args[0]
			if n.Bit(0) == 0 {
				return matched(PowOf(r, NBig(new(big.Int).Rsh(n, 1))))
			}
			if n.CmpAbs(big.NewInt(1)) > 0 {
				k := new(big.Int).Sub(n, big.NewInt(1))
				return matched(MulOf(PowOf(r, NBig(k.Rsh(k, 1))), b))
			}
		}
	case *Const:
		if b.name == ConstI {
			return matched(imaginaryPower(n))
		}
	case *Unary:
		if n.Bit(0) == 0 {
			return matched(PowOf(b.arg, exp))
		}
		return matched(NegOf(PowOf(b.arg, exp)))
	case *Binary:
		switch b.op {
		case OpMul:
			fs := mulFactors(b)
			out := make([]Expr, len(fs))
			for i, f := range fs {
				out[i] = PowOf(f, exp)
			}
			return matched(MulOf(out...))
		case OpPow:
			return matched(PowOf(b.left, MulOf(b.right, exp)))
		case OpDiv:
			if n.Sign() > 0 {
				return matched(DivOf(PowOf(b.left, exp), PowOf(b.right, exp)))
			}
		}
	}
	return noMatch()
}

// imaginaryPower returns i^n for integer n.
func imaginaryPower(n *big.Int) Expr {
	m := new(big.Int).Mod(n, big.NewInt(4)).Int64()
	switch m {
	case 0:
		return N(1)
	case 1:
		return I
	case 2:
		return N(-1)
	}
	return MulOf(N(-1), I)
}

// distributeNonNegative applies (a*b)^x → a^x*b^x when every factor is
// provably non-negative.
func distributeNonNegative(base, exp Expr) (Expr, bool, error) {
	b, ok := base.(*Binary)
	if !ok || b.op != OpMul {
		return noMatch()
	}
	fs := mulFactors(b)
	for _, f := range fs {
		if !isNonNegative(f) {
			return noMatch()
		}
	}
	out := make([]Expr, len(fs))
	for i, f := range fs {
		out[i] = PowOf(f, exp)
	}
	return matched(MulOf(out...))
}

func rewriteExpLog(rc *RuleContext, f *Func) (Expr, bool, error) {
	if len(f.args) == 0 {
		return noMatch()
	}
	arg := f.args[0]
	switch f.name {
	case "exp":
		if isNumValue(arg, 0) {
			return matched(N(1))
		}
		if g, ok := isFunc(arg, "ln"); ok {
			return matched(g.args[0])
		}
	case "ln":
		return rewriteLn(rc, arg)
	case "log":
		if isNumValue(arg, 1) {
			return matched(N(0))
		}
		if len(f.args) == 2 && arg.Equal(f.args[1]) {
			return matched(N(1))
		}
	case "abs":
		if n, ok := numOf(arg); ok && n.IsReal() {
			return matched(NNumber(n.Abs()))
		}
		if isNonNegative(arg) {
			return matched(arg)
		}
		if isNegativeForm(arg) {
			return matched(AbsOf(negate(arg)))
		}
	}
	return noMatch()
}

func rewriteLn(rc *RuleContext, arg Expr) (Expr, bool, error) {
	if E.Equal(arg) {
		return matched(N(1))
	}
	if g, ok := isFunc(arg, "exp"); ok {
		return matched(g.args[0])
	}
	if p, ok := arg.(*Binary); ok && p.op == OpPow && E.Equal(p.left) {
		return matched(p.right)
	}
	n, ok := numOf(arg)
	if !ok || !n.IsReal() {
		return noMatch()
	}
	switch {
	case n.IsZero():
		return nil, false, domainError("ln", "logarithm of zero")
	case n.Sign() < 0:
		if !rc.Config.AllowComplex {
			return nil, false, domainError("ln", "logarithm of a negative number")
		}
		return matched(AddOf(LnOf(NNumber(n.Neg())), MulOf(I, Pi)))
	case n.IsOne():
		return matched(N(0))
	case !n.IsExact():
		return matched(NNumber(approxFloat(math.Log(n.Float64()), n.Precision())))
	}
	return noMatch()
}
