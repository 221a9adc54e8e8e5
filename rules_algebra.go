package symcore

// ============================================================
// Algebraic rules
// ============================================================

// algebraRules keep sums, products and quotients in normal form:
// subtraction and negation become -1 coefficients, like terms and same-base
// powers are combined, and quotients hold their numeric coefficient in the
// numerator. Expansion only goes one way; factoring lives in Factor.
type algebraRules struct{}

func (algebraRules) Name() string { return "algebra" }

func (algebraRules) Rewrite(rc *RuleContext, e Expr) (Expr, bool, error) {
	switch x := e.(type) {
	case *Unary:
		if x.op == OpNeg {
			return matched(MulOf(N(-1), x.arg))
		}
	case *Binary:
		switch x.op {
		case OpSub:
			return matched(AddOf(x.left, MulOf(N(-1), x.right)))
		case OpAdd:
			if out, ok := addFractions(x); ok {
				return matched(out)
			}
			return collectLikeTerms(x)
		case OpMul:
			return rewriteProduct(x)
		case OpDiv:
			return reduceQuotient(x)
		case OpPow:
			return expandSquare(x)
		}
	}
	return noMatch()
}

func collectLikeTerms(sum *Binary) (Expr, bool, error) {
	type group struct {
		coeff Number
		rest  Expr
	}
	var groups []*group
	index := map[string]*group{}
	merged := false
	for _, t := range addTerms(sum) {
		c, rest := splitCoeff(t)
		key := ""
		if rest != nil {
			key = rest.String()
		}
		if g, ok := index[key]; ok {
			g.coeff = mustAdd(g.coeff, c)
			merged = true
			continue
		}
		g := &group{coeff: c, rest: rest}
		index[key] = g
		groups = append(groups, g)
	}
	if !merged {
		return noMatch()
	}
	out := make([]Expr, 0, len(groups))
	for _, g := range groups {
		out = append(out, withCoeff(g.coeff, g.rest))
	}
	return matched(AddOf(out...))
}

// addFractions puts a sum holding quotients over an explicit common
// denominator.
func addFractions(sum *Binary) (Expr, bool) {
	terms := addTerms(sum)
	var dens []Expr
	for _, t := range terms {
		if q, ok := t.(*Binary); ok && q.op == OpDiv && !containsExpr(dens, q.right) {
			dens = append(dens, q.right)
		}
	}
	if len(dens) == 0 {
		return nil, false
	}
	nums := make([]Expr, len(terms))
	for i, t := range terms {
		q, ok := t.(*Binary)
		if !ok || q.op != OpDiv {
			nums[i] = MulOf(append([]Expr{t}, dens...)...)
			continue
		}
		factors := []Expr{q.left}
		for _, d := range dens {
			if !d.Equal(q.right) {
				factors = append(factors, d)
			}
		}
		nums[i] = MulOf(factors...)
	}
	return DivOf(AddOf(nums...), MulOf(dens...)), true
}

func containsExpr(list []Expr, e Expr) bool {
	for _, x := range list {
		if x.Equal(e) {
			return true
		}
	}
	return false
}

func rewriteProduct(prod *Binary) (Expr, bool, error) {
	fs := mulFactors(prod)

	// products holding quotients become one quotient
	var nums, dens []Expr
	for _, f := range fs {
		if q, ok := f.(*Binary); ok && q.op == OpDiv {
			nums = append(nums, q.left)
			dens = append(dens, q.right)
			continue
		}
		nums = append(nums, f)
	}
	if len(dens) > 0 {
		return matched(DivOf(MulOf(nums...), MulOf(dens...)))
	}

	// c*(a+b) → c*a + c*b
	if len(fs) == 2 {
		if c, ok := fs[0].(*Num); ok {
			if s, ok := fs[1].(*Binary); ok && s.op == OpAdd {
				terms := addTerms(s)
				out := make([]Expr, len(terms))
				for i, t := range terms {
					out[i] = MulOf(c, t)
				}
				return matched(AddOf(out...))
			}
		}
	}

	if out, ok := combinePowers(fs); ok {
		return matched(out)
	}
	return differenceOfSquares(fs)
}

// combinePowers merges x^a * x^b → x^(a+b) for structurally equal bases.
func combinePowers(fs []Expr) (Expr, bool) {
	type group struct {
		base Expr
		exps []Expr
	}
	var groups []*group
	index := map[string]*group{}
	var numeric []Expr
	merged := false
	for _, f := range fs {
		if _, ok := f.(*Num); ok {
			numeric = append(numeric, f)
			continue
		}
		base, exp := baseExp(f)
		key := base.String()
		if g, ok := index[key]; ok && g.base.Equal(base) {
			g.exps = append(g.exps, exp)
			merged = true
			continue
		}
		g := &group{base: base, exps: []Expr{exp}}
		index[key] = g
		groups = append(groups, g)
	}
	if !merged {
		return nil, false
	}
	out := numeric
	for _, g := range groups {
		out = append(out, PowOf(g.base, AddOf(g.exps...)))
	}
	return MulOf(out...), true
}

// differenceOfSquares expands c*(p+q)*(p-q) → c*(p^2 - q^2).
func differenceOfSquares(fs []Expr) (Expr, bool, error) {
	var coeff []Expr
	var sums [][]Expr
	for _, f := range fs {
		if _, ok := f.(*Num); ok {
			coeff = append(coeff, f)
			continue
		}
		s, ok := f.(*Binary)
		if !ok || s.op != OpAdd {
			return noMatch()
		}
		terms := addTerms(s)
		if len(terms) != 2 {
			return noMatch()
		}
		sums = append(sums, terms)
	}
	if len(sums) != 2 {
		return noMatch()
	}
	a, b := sums[0], sums[1]
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			p, q := a[i], a[1-i]
			if !p.Equal(b[j]) || !negate(q).Equal(b[1-j]) {
				continue
			}
			diff := AddOf(PowOf(p, N(2)), MulOf(N(-1), PowOf(q, N(2))))
			return matched(MulOf(append(coeff, diff)...))
		}
	}
	return noMatch()
}

func reduceQuotient(q *Binary) (Expr, bool, error) {
	a, b := q.left, q.right
	if nb, ok := numOf(b); ok {
		inv, err := nb.Inv()
		if err != nil {
			return nil, false, err
		}
		return matched(MulOf(NNumber(inv), a))
	}
	if na, ok := numOf(a); ok && na.IsExact() && na.IsZero() {
		return matched(N(0))
	}
	if a.Equal(b) {
		return matched(N(1))
	}
	if inner, ok := a.(*Binary); ok && inner.op == OpDiv {
		return matched(DivOf(inner.left, MulOf(inner.right, b)))
	}
	if inner, ok := b.(*Binary); ok && inner.op == OpDiv {
		return matched(DivOf(MulOf(a, inner.right), inner.left))
	}

	cn, nrest := splitCoeff(a)
	cd, drest := splitCoeff(b)
	changed := false
	coeff := cn
	if !cd.IsOne() {
		v, err := cn.Div(cd)
		if err != nil {
			return nil, false, err
		}
		coeff, changed = v, true
	}
	var num, den []Expr
	if nrest != nil {
		num = mulFactors(nrest)
	}
	if drest != nil {
		den = mulFactors(drest)
	}
	keptDen := den[:0:0]
	for _, df := range den {
		db, de := baseExp(df)
		hit := -1
		for i, nf := range num {
			if nb, _ := baseExp(nf); nb.Equal(db) {
				hit = i
				break
			}
		}
		if hit < 0 {
			keptDen = append(keptDen, df)
			continue
		}
		changed = true
		_, ne := baseExp(num[hit])
		exp := AddOf(ne, MulOf(N(-1), de))
		num = append(num[:hit], num[hit+1:]...)
		if n, ok := numOf(exp); ok && n.IsReal() {
			switch {
			case n.IsZero():
				continue
			case n.Sign() < 0:
				keptDen = append(keptDen, PowOf(db, NNumber(n.Neg())))
				continue
			}
		}
		num = append(num, PowOf(db, exp))
	}
	if !changed {
		return noMatch()
	}
	return matched(DivOf(MulOf(append([]Expr{NNumber(coeff)}, num...)...), MulOf(keptDen...)))
}

// expandSquare expands (a+b)^2 for two-term sums.
func expandSquare(p *Binary) (Expr, bool, error) {
	s, ok := p.left.(*Binary)
	if !ok || s.op != OpAdd || !isNumValue(p.right, 2) {
		return noMatch()
	}
	terms := addTerms(s)
	if len(terms) != 2 {
		return noMatch()
	}
	a, b := terms[0], terms[1]
	return matched(AddOf(PowOf(a, N(2)), MulOf(N(2), a, b), PowOf(b, N(2))))
}
