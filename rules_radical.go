package symcore

import (
	"math/big"
)

// ============================================================
// Radical rules
// ============================================================

type radicalRules struct{}

func (radicalRules) Name() string { return "radical" }

func (radicalRules) Rewrite(rc *RuleContext, e Expr) (Expr, bool, error) {
	switch x := e.(type) {
	case *Func:
		if x.name == "sqrt" && len(x.args) == 1 {
			return rewriteSqrt(rc, x.args[0])
		}
	case *Binary:
		switch x.op {
		case OpAdd:
			return combineRadicals(x)
		case OpMul:
			return mergeRadicals(x)
		case OpDiv:
			return rationalize(x)
		}
	}
	return noMatch()
}

func rewriteSqrt(rc *RuleContext, r Expr) (Expr, bool, error) {
	if n, ok := numOf(r); ok {
		return sqrtNumber(rc, n)
	}
	if p, ok := r.(*Binary); ok && p.op == OpPow {
		if n, ok := numOf(p.right); ok && n.IsInteger() && n.Sign() > 0 && n.int().Bit(0) == 0 && isReal(p.left) {
			half := new(big.Int).Rsh(n.int(), 1)
			return matched(PowOf(AbsOf(p.left), NBig(half)))
		}
	}
	if out, ok := denest(r); ok {
		return matched(out)
	}
	// pull the square part out of a positive integer coefficient
	c, rest := splitCoeff(r)
	if rest != nil && c.IsInteger() && c.Sign() > 0 {
		k, m := Squarefree(c.int())
		if k.Cmp(big.NewInt(1)) > 0 {
			return matched(MulOf(NBig(k), SqrtOf(MulOf(NBig(m), rest))))
		}
	}
	return noMatch()
}

func sqrtNumber(rc *RuleContext, n Number) (Expr, bool, error) {
	if n.kind == KindComplex {
		return noMatch()
	}
	if n.Sign() < 0 {
		if !rc.Config.AllowComplex {
			return nil, false, domainError("sqrt", "square root of a negative number")
		}
		return matched(MulOf(I, SqrtOf(NNumber(n.Neg()))))
	}
	switch n.kind {
	case KindInteger:
		k, m := Squarefree(n.int())
		if m.Cmp(big.NewInt(1)) == 0 {
			return matched(NBig(k))
		}
		if k.Cmp(big.NewInt(1)) == 0 {
			return noMatch()
		}
		return matched(MulOf(NBig(k), SqrtOf(NBig(m))))
	case KindRational:
		p, q := n.r.Num(), n.r.Denom()
		return matched(MulOf(NRat(new(big.Rat).SetFrac(big.NewInt(1), q)), SqrtOf(NBig(new(big.Int).Mul(p, q)))))
	}
	z := new(big.Float).SetPrec(n.d.Prec()).Sqrt(n.d)
	return matched(NNumber(Decimal(z)))
}

// denest handles sqrt(a ± b*sqrt(c)) = sqrt(m) ± sqrt(n) for exact rationals
// with m+n = a and 4mn = b²c. Other nested forms are left alone.
func denest(r Expr) (Expr, bool) {
	terms := addTerms(r)
	if len(terms) != 2 {
		return nil, false
	}
	var a, s, c Number
	var hasA, hasS bool
	for _, t := range terms {
		if n, ok := numOf(t); ok {
			a, hasA = n, true
			continue
		}
		coef, rest := splitCoeff(t)
		if f, ok := isFunc(rest, "sqrt"); ok {
			if cn, ok := numOf(f.args[0]); ok {
				s, c, hasS = coef, cn, true
			}
		}
	}
	if !hasA || !hasS || !a.IsExact() || !s.IsExact() || !c.IsExact() || !a.IsReal() || !c.IsReal() {
		return nil, false
	}
	if a.Sign() <= 0 || c.Sign() <= 0 || s.IsZero() {
		return nil, false
	}
	b := s.Abs()
	b2c := mustMul(mustMul(b, b), c)
	disc := mustSub(mustMul(a, a), b2c)
	if disc.Sign() < 0 {
		return nil, false
	}
	d, ok := Root(disc, 2)
	if !ok {
		return nil, false
	}
	two := Int(2)
	m, _ := mustAdd(a, d).Div(two)
	n, _ := mustSub(a, d).Div(two)
	if m.Sign() <= 0 || n.Sign() < 0 {
		return nil, false
	}
	// square back: (√m ± √n)² = m + n ± 2√(mn)
	if !mustAdd(m, n).Equal(a) || !mustMul(Int(4), mustMul(m, n)).Equal(b2c) {
		return nil, false
	}
	return AddOf(SqrtOf(NNumber(m)), MulOf(N(int64(s.Sign())), SqrtOf(NNumber(n)))), true
}

// combineRadicals collects c1*sqrt(r) + c2*sqrt(r) into (c1+c2)*sqrt(r).
func combineRadicals(sum *Binary) (Expr, bool, error) {
	terms := addTerms(sum)
	type group struct {
		coeff Number
		rad   Expr
		count int
	}
	var groups []*group
	index := map[string]*group{}
	var others []Expr
	merged := false
	for _, t := range terms {
		c, rest := splitCoeff(t)
		if _, ok := isFunc(rest, "sqrt"); !ok || rest == nil {
			others = append(others, t)
			continue
		}
		key := rest.String()
		if g, ok := index[key]; ok {
			g.coeff = mustAdd(g.coeff, c)
			g.count++
			merged = true
			continue
		}
		g := &group{coeff: c, rad: rest, count: 1}
		index[key] = g
		groups = append(groups, g)
	}
	if !merged {
		return noMatch()
	}
	for _, g := range groups {
		others = append(others, withCoeff(g.coeff, g.rad))
	}
	return matched(AddOf(others...))
}

// mergeRadicals joins square roots of non-negative radicands in a product.
func mergeRadicals(prod *Binary) (Expr, bool, error) {
	fs := mulFactors(prod)
	var radicands, others []Expr
	for _, f := range fs {
		if s, ok := isFunc(f, "sqrt"); ok && isNonNegative(s.args[0]) {
			radicands = append(radicands, s.args[0])
			continue
		}
		others = append(others, f)
	}
	if len(radicands) < 2 {
		return noMatch()
	}
	return matched(MulOf(append(others, SqrtOf(MulOf(radicands...)))...))
}

// rationalize merges sqrt(a)/sqrt(b) and clears square roots of positive
// numbers from denominators.
func rationalize(q *Binary) (Expr, bool, error) {
	sa, okA := isFunc(q.left, "sqrt")
	sb, okB := isFunc(q.right, "sqrt")
	if okA && okB && isNonNegative(sa.args[0]) && isPositive(sb.args[0]) {
		return matched(SqrtOf(DivOf(sa.args[0], sb.args[0])))
	}
	den := mulFactors(q.right)
	for i, f := range den {
		s, ok := isFunc(f, "sqrt")
		if !ok {
			continue
		}
		if n, ok := numOf(s.args[0]); !ok || !n.IsReal() || n.Sign() <= 0 {
			continue
		}
		rest := append(append([]Expr(nil), den[:i]...), s.args[0])
		rest = append(rest, den[i+1:]...)
		return matched(DivOf(MulOf(q.left, s), MulOf(rest...)))
	}
	return noMatch()
}
