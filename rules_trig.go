package symcore

import (
	"math/big"
)

// ============================================================
// Trigonometric rules
// ============================================================

type trigRules struct{}

func (trigRules) Name() string { return "trig" }

func (trigRules) Rewrite(rc *RuleContext, e Expr) (Expr, bool, error) {
	switch x := e.(type) {
	case *Func:
		if _, ok := trigParity[x.name]; ok && len(x.args) == 1 {
			return rewriteTrigFunc(x.name, x.args[0])
		}
	case *Binary:
		switch x.op {
		case OpAdd:
			return pythagorean(x)
		case OpDiv:
			return sinOverCos(x)
		}
	}
	return noMatch()
}

const (
	parityOdd = iota
	parityEven
	parityAcos
)

var trigParity = map[string]int{
	"sin": parityOdd, "tan": parityOdd, "csc": parityOdd, "cot": parityOdd,
	"cos": parityEven, "sec": parityEven,
	"asin": parityOdd, "atan": parityOdd, "acos": parityAcos,
	"sinh": parityOdd, "tanh": parityOdd, "cosh": parityEven,
}

func rewriteTrigFunc(name string, u Expr) (Expr, bool, error) {
	if isNegativeForm(u) {
		v := FuncOf(name, negate(u))
		switch trigParity[name] {
		case parityOdd:
			return matched(MulOf(N(-1), v))
		case parityEven:
			return matched(v)
		case parityAcos:
			return matched(AddOf(Pi, MulOf(N(-1), v)))
		}
	}
	switch name {
	case "asin", "acos", "atan":
		if v, ok := inverseTrigTable[name][u.String()]; ok {
			return matched(v())
		}
		return noMatch()
	case "sinh", "tanh":
		if isNumValue(u, 0) {
			return matched(N(0))
		}
		return noMatch()
	case "cosh":
		if isNumValue(u, 0) {
			return matched(N(1))
		}
		return noMatch()
	}
	k, rest, ok := splitPiMultiple(u)
	if !ok {
		if isNumValue(u, 0) {
			return trigAt(name, new(big.Rat))
		}
		return noMatch()
	}
	period := big.NewRat(2, 1)
	if name == "tan" || name == "cot" {
		period = big.NewRat(1, 1)
	}
	kk := ratMod(k, period)
	if rest == nil {
		if out, ok, err := trigAt(name, kk); ok || err != nil {
			return out, ok, err
		}
		if kk.Cmp(k) != 0 {
			return matched(FuncOf(name, MulOf(NRat(kk), Pi)))
		}
		return noMatch()
	}
	return shiftTrig(name, kk, k, rest)
}

// shiftTrig applies sin(x + kπ) style reductions for symbolic x.
func shiftTrig(name string, kk, k *big.Rat, rest Expr) (Expr, bool, error) {
	f := func(n string) Expr { return FuncOf(n, rest) }
	neg := func(x Expr) Expr { return MulOf(N(-1), x) }
	switch {
	case kk.Sign() == 0:
		return matched(f(name))
	case kk.Cmp(big.NewRat(1, 1)) == 0 && name != "tan" && name != "cot":
		return matched(neg(f(name)))
	case kk.Cmp(big.NewRat(1, 2)) == 0:
		switch name {
		case "sin":
			return matched(f("cos"))
		case "cos":
			return matched(neg(f("sin")))
		}
	case kk.Cmp(big.NewRat(3, 2)) == 0:
		switch name {
		case "sin":
			return matched(neg(f("cos")))
		case "cos":
			return matched(f("sin"))
		}
	}
	if kk.Cmp(k) != 0 {
		return matched(FuncOf(name, AddOf(MulOf(NRat(kk), Pi), rest)))
	}
	return noMatch()
}

// splitPiMultiple writes u as k*pi + rest with exact rational k.
func splitPiMultiple(u Expr) (*big.Rat, Expr, bool) {
	k := new(big.Rat)
	var others []Expr
	found := false
	for _, t := range addTerms(u) {
		c, rest := splitCoeff(t)
		if r, ok := c.BigRat(); ok && rest != nil && Pi.Equal(rest) {
			k.Add(k, r)
			found = true
			continue
		}
		others = append(others, t)
	}
	if !found {
		return nil, nil, false
	}
	if len(others) == 0 {
		return k, nil, true
	}
	return k, AddOf(others...), true
}

// ratMod reduces k into [0, m).
func ratMod(k, m *big.Rat) *big.Rat {
	q := new(big.Rat).Quo(k, m)
	fl := new(big.Int).Div(q.Num(), q.Denom())
	return new(big.Rat).Sub(k, new(big.Rat).Mul(new(big.Rat).SetInt(fl), m))
}

func halfSqrt(n int64) Expr { return MulOf(F(1, 2), SqrtOf(N(n))) }

// sinTable holds sin(rπ) for reference angles r in [0, 1/2].
var sinTable = map[string]func() Expr{
	"0":   func() Expr { return N(0) },
	"1/6": func() Expr { return F(1, 2) },
	"1/4": func() Expr { return halfSqrt(2) },
	"1/3": func() Expr { return halfSqrt(3) },
	"1/2": func() Expr { return N(1) },
}

// tanTable holds tan(rπ) for r in [0, 1/2); tan(π/2) is a pole.
var tanTable = map[string]func() Expr{
	"0":   func() Expr { return N(0) },
	"1/6": func() Expr { return MulOf(F(1, 3), SqrtOf(N(3))) },
	"1/4": func() Expr { return N(1) },
	"1/3": func() Expr { return SqrtOf(N(3)) },
}

func piTimes(p, q int64) func() Expr { return func() Expr { return MulOf(F(p, q), Pi) } }

var inverseTrigTable = map[string]map[string]func() Expr{
	"asin": {
		"0": func() Expr { return N(0) }, "1/2": piTimes(1, 6), "1/2*sqrt(2)": piTimes(1, 4),
		"1/2*sqrt(3)": piTimes(1, 3), "1": piTimes(1, 2),
	},
	"acos": {
		"1": func() Expr { return N(0) }, "1/2*sqrt(3)": piTimes(1, 6), "1/2*sqrt(2)": piTimes(1, 4),
		"1/2": piTimes(1, 3), "0": piTimes(1, 2),
	},
	"atan": {
		"0": func() Expr { return N(0) }, "1/3*sqrt(3)": piTimes(1, 6), "1": piTimes(1, 4),
		"sqrt(3)": piTimes(1, 3),
	},
}

// sinAt evaluates sin(kπ) for k in [0, 2).
func sinAt(k *big.Rat) (Expr, bool) {
	one, half := big.NewRat(1, 1), big.NewRat(1, 2)
	r := new(big.Rat).Set(k)
	sign := int64(1)
	if r.Cmp(one) >= 0 {
		r.Sub(r, one)
		sign = -1
	}
	if r.Cmp(half) > 0 {
		r.Sub(one, r)
	}
	v, ok := sinTable[r.RatString()]
	if !ok {
		return nil, false
	}
	return MulOf(N(sign), v()), true
}

func cosAt(k *big.Rat) (Expr, bool) {
	return sinAt(ratMod(new(big.Rat).Add(k, big.NewRat(1, 2)), big.NewRat(2, 1)))
}

// tanAt evaluates tan(kπ) for k in [0, 1).
func tanAt(k *big.Rat) (Expr, bool, error) {
	half := big.NewRat(1, 2)
	switch k.Cmp(half) {
	case 0:
		return nil, false, domainError("tan", "pole at pi/2")
	case 1:
		v, ok := tanTable[new(big.Rat).Sub(big.NewRat(1, 1), k).RatString()]
		if !ok {
			return nil, false, nil
		}
		return MulOf(N(-1), v()), true, nil
	}
	v, ok := tanTable[k.RatString()]
	if !ok {
		return nil, false, nil
	}
	return v(), true, nil
}

// trigAt evaluates a trigonometric function at kπ with k already reduced
// into its period.
func trigAt(name string, k *big.Rat) (Expr, bool, error) {
	var v Expr
	var ok bool
	var err error
	switch name {
	case "sin", "csc":
		v, ok = sinAt(k)
	case "cos", "sec":
		v, ok = cosAt(k)
	case "tan", "cot":
		v, ok, err = tanAt(k)
		if name == "cot" {
			// cot(kπ) = tan(π/2 - kπ)
			alt := ratMod(new(big.Rat).Sub(big.NewRat(1, 2), k), big.NewRat(1, 1))
			v, ok, err = tanAt(alt)
			if err != nil {
				err = domainError("cot", "pole at integer multiples of pi")
			}
		}
	}
	if err != nil || !ok {
		return nil, false, err
	}
	switch name {
	case "csc", "sec":
		if isNumValue(v, 0) {
			return nil, false, domainError(name, "pole")
		}
		return matched(DivOf(N(1), v))
	}
	return matched(v)
}

// squaredTrig matches f(u)^2 for the given function names.
func squaredTrig(e Expr, names ...string) (string, Expr, bool) {
	base, exp := baseExp(e)
	if !isNumValue(exp, 2) {
		return "", nil, false
	}
	for _, n := range names {
		if f, ok := isFunc(base, n); ok {
			return n, f.args[0], true
		}
	}
	return "", nil, false
}

// pythagorean rewrites c*sin(u)^2 + c*cos(u)^2 → c and
// c*cosh(u)^2 - c*sinh(u)^2 → c.
func pythagorean(sum *Binary) (Expr, bool, error) {
	terms := addTerms(sum)
	for i := range terms {
		ci, ri := splitCoeff(terms[i])
		if ri == nil {
			continue
		}
		fi, ui, ok := squaredTrig(ri, "sin", "cos", "sinh", "cosh")
		if !ok {
			continue
		}
		for j := i + 1; j < len(terms); j++ {
			cj, rj := splitCoeff(terms[j])
			if rj == nil {
				continue
			}
			fj, uj, ok := squaredTrig(rj, "sin", "cos", "sinh", "cosh")
			if !ok || !ui.Equal(uj) {
				continue
			}
			var c Number
			switch {
			case (fi == "sin" && fj == "cos") || (fi == "cos" && fj == "sin"):
				if !ci.Equal(cj) {
					continue
				}
				c = ci
			case fi == "cosh" && fj == "sinh" && ci.Equal(cj.Neg()):
				c = ci
			case fi == "sinh" && fj == "cosh" && cj.Equal(ci.Neg()):
				c = cj
			default:
				continue
			}
			rest := make([]Expr, 0, len(terms)-1)
			for k, t := range terms {
				if k != i && k != j {
					rest = append(rest, t)
				}
			}
			return matched(AddOf(append(rest, NNumber(c))...))
		}
	}
	return noMatch()
}

// sinOverCos rewrites sin(u)^n/cos(u)^n → tan(u)^n, one way only.
func sinOverCos(q *Binary) (Expr, bool, error) {
	num, den := mulFactors(q.left), mulFactors(q.right)
	for i, nf := range num {
		nb, ne := baseExp(nf)
		s, ok := isFunc(nb, "sin")
		if !ok {
			continue
		}
		for j, df := range den {
			db, de := baseExp(df)
			c, ok := isFunc(db, "cos")
			if !ok || !c.args[0].Equal(s.args[0]) || !ne.Equal(de) {
				continue
			}
			newNum := append(append([]Expr(nil), num[:i]...), num[i+1:]...)
			newNum = append(newNum, PowOf(TanOf(s.args[0]), ne))
			newDen := append(append([]Expr(nil), den[:j]...), den[j+1:]...)
			if len(newDen) == 0 {
				return matched(MulOf(newNum...))
			}
			return matched(DivOf(MulOf(newNum...), MulOf(newDen...)))
		}
	}
	return noMatch()
}
