package symcore

import (
	"math/big"
	"sort"
)

// ============================================================
// Substitution and free symbols
// ============================================================

// Substitute replaces every occurrence of the symbol name with value. The
// result is rebuilt through the smart constructors but not simplified.
func Substitute(e Expr, name string, value Expr) Expr {
	if s, ok := e.(*Sym); ok {
		if s.name == name {
			return value
		}
		return s
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	for i, c := range children {
		children[i] = Substitute(c, name, value)
	}
	return e.rebuild(children)
}

func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	collectSymbols(e, out)
	return out
}

// SortedSymbols lists the free symbols of e in lexical order.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	if s, ok := e.(*Sym); ok {
		out[s.name] = struct{}{}
		return
	}
	for _, c := range e.Children() {
		collectSymbols(c, out)
	}
}

// DependsOn reports whether the symbol name occurs in e.
func DependsOn(e Expr, name string) bool {
	if s, ok := e.(*Sym); ok {
		return s.name == name
	}
	for _, c := range e.Children() {
		if DependsOn(c, name) {
			return true
		}
	}
	return false
}

// ============================================================
// Expansion
// ============================================================

// maxExpandPower bounds the integer powers of sums that Expand multiplies out.
const maxExpandPower = 10

// Expand distributes products over sums and multiplies out small
// non-negative integer powers. Quotients have their numerator expanded.
func Expand(e Expr) Expr {
	switch x := e.(type) {
	case *Unary:
		return expandProduct(N(-1), Expand(x.arg))
	case *Binary:
		switch x.op {
		case OpAdd:
			return AddOf(Expand(x.left), Expand(x.right))
		case OpSub:
			return AddOf(Expand(x.left), expandProduct(N(-1), Expand(x.right)))
		case OpMul:
			fs := mulFactors(x)
			for i, f := range fs {
				fs[i] = Expand(f)
			}
			return expandProduct(fs...)
		case OpDiv:
			return DivOf(Expand(x.left), Expand(x.right))
		case OpPow:
			base := Expand(x.left)
			if n, ok := numOf(x.right); ok && n.IsInteger() && n.Sign() >= 0 && n.int().Cmp(big.NewInt(maxExpandPower)) <= 0 {
				if _, isSum := base.(*Binary); isSum && len(addTerms(base)) > 1 {
					k := int(n.int().Int64())
					fs := make([]Expr, k)
					for i := range fs {
						fs[i] = base
					}
					return expandProduct(fs...)
				}
			}
			return PowOf(base, Expand(x.right))
		}
	case *Func:
		args := e.Children()
		for i, a := range args {
			args[i] = Expand(a)
		}
		return FuncOf(x.name, args...)
	}
	return e
}

func expandProduct(factors ...Expr) Expr {
	terms := []Expr{N(1)}
	for _, f := range factors {
		parts := addTerms(f)
		next := make([]Expr, 0, len(terms)*len(parts))
		for _, t := range terms {
			for _, p := range parts {
				next = append(next, MulOf(t, p))
			}
		}
		terms = next
	}
	return AddOf(terms...)
}

// ============================================================
// Polynomial utilities
// ============================================================

// factorDegree is the degree of a single factor in name: 1 for the symbol,
// n for a non-negative integer power of it, 0 otherwise.
func factorDegree(f Expr, name string) int {
	base, exp := baseExp(f)
	s, ok := base.(*Sym)
	if !ok || s.name != name {
		return 0
	}
	n, ok := numOf(exp)
	if !ok || !n.IsInteger() || n.Sign() < 0 || !n.int().IsInt64() {
		return 0
	}
	return int(n.int().Int64())
}

// Degree returns the degree of the expanded form of e in name.
func Degree(e Expr, name string) int {
	max := 0
	for d := range PolyCoeffs(e, name) {
		if d > max {
			max = d
		}
	}
	return max
}

// PolyCoeffs maps degrees to coefficients. Terms that are not polynomial in
// name are kept as part of the constant coefficient. Zero coefficients are
// omitted.
type PolyCoeffsResult map[int]Expr

func PolyCoeffs(e Expr, name string) PolyCoeffsResult {
	out := PolyCoeffsResult{}
	for _, t := range addTerms(Expand(e)) {
		deg := 0
		var coeff []Expr
		for _, f := range mulFactors(t) {
			if d := factorDegree(f, name); d > 0 {
				deg += d
				continue
			}
			coeff = append(coeff, f)
		}
		c := MulOf(coeff...)
		if existing, ok := out[deg]; ok {
			c = AddOf(existing, c)
		}
		out[deg] = c
	}
	for d, c := range out {
		if isNumValue(c, 0) {
			delete(out, d)
		}
	}
	return out
}

// Collect regroups e as a sum of coefficient * name^degree, highest degree
// first.
func Collect(e Expr, name string) Expr {
	coeffs := PolyCoeffs(e, name)
	degrees := make([]int, 0, len(coeffs))
	for d := range coeffs {
		degrees = append(degrees, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(degrees)))
	x := S(name)
	terms := make([]Expr, 0, len(degrees))
	for _, d := range degrees {
		c := coeffs[d]
		switch d {
		case 0:
			terms = append(terms, c)
		case 1:
			terms = append(terms, MulOf(c, x))
		default:
			terms = append(terms, MulOf(c, PowOf(x, N(int64(d)))))
		}
	}
	if len(terms) == 0 {
		return N(0)
	}
	return AddOf(terms...)
}

// ============================================================
// Factoring
// ============================================================

// FactorResult holds the factors of a polynomial; their product equals the
// input. Success is false when nothing beyond the input itself was found.
type FactorResult struct {
	Factors []Expr
	Success bool
}

// Factor factors a polynomial with exact numeric coefficients in name. It
// extracts the integer content and the lowest power of name, then handles
// quadratics with rational roots (including differences of squares and
// perfect squares) and sums or differences of cubes.
func Factor(e Expr, name string) FactorResult {
	coeffs := PolyCoeffs(e, name)
	unfactored := FactorResult{Factors: []Expr{Collect(e, name)}}
	if len(coeffs) == 0 {
		return unfactored
	}
	nums := map[int]Number{}
	for d, c := range coeffs {
		n, ok := numOf(c)
		if !ok || !n.IsExact() || !n.IsReal() {
			return unfactored
		}
		nums[d] = n
	}

	var factors []Expr
	content := integerContent(nums)
	if !content.IsOne() {
		for d, n := range nums {
			nums[d], _ = n.Div(content)
		}
		factors = append(factors, NNumber(content))
	}

	x := S(name)
	low := -1
	for d := range nums {
		if low < 0 || d < low {
			low = d
		}
	}
	if low > 0 {
		shifted := map[int]Number{}
		for d, n := range nums {
			shifted[d-low] = n
		}
		nums = shifted
		factors = append(factors, PowOf(x, N(int64(low))))
	}

	rest, ok := factorSmall(nums, x)
	if ok {
		factors = append(factors, rest...)
	} else if p := polyFromNumbers(nums, x); !isNumValue(p, 1) {
		factors = append(factors, p)
	}
	if len(factors) == 1 {
		return unfactored
	}
	return FactorResult{Factors: factors, Success: true}
}

// integerContent is the positive gcd of integer coefficients, or 1.
func integerContent(nums map[int]Number) Number {
	g := new(big.Int)
	for _, n := range nums {
		if !n.IsInteger() {
			return Int(1)
		}
		g.GCD(nil, nil, g, new(big.Int).Abs(n.int()))
	}
	if g.Sign() == 0 {
		return Int(1)
	}
	return IntBig(g)
}

func polyFromNumbers(nums map[int]Number, x Expr) Expr {
	terms := make([]Expr, 0, len(nums))
	for d, n := range nums {
		switch d {
		case 0:
			terms = append(terms, NNumber(n))
		case 1:
			terms = append(terms, MulOf(NNumber(n), x))
		default:
			terms = append(terms, MulOf(NNumber(n), PowOf(x, N(int64(d)))))
		}
	}
	return AddOf(terms...)
}

func coeffAt(nums map[int]Number, d int) Number {
	if n, ok := nums[d]; ok {
		return n
	}
	return Int(0)
}

func factorSmall(nums map[int]Number, x Expr) ([]Expr, bool) {
	deg := 0
	for d := range nums {
		deg = max(deg, d)
	}
	switch deg {
	case 2:
		return factorQuadratic(coeffAt(nums, 2), coeffAt(nums, 1), coeffAt(nums, 0), x)
	case 3:
		if _, ok := nums[2]; ok {
			return nil, false
		}
		if _, ok := nums[1]; ok {
			return nil, false
		}
		return factorCubes(coeffAt(nums, 3), coeffAt(nums, 0), x)
	}
	return nil, false
}

// factorQuadratic splits a*x^2 + b*x + c over the rationals when the
// discriminant is a perfect square.
func factorQuadratic(a, b, c Number, x Expr) ([]Expr, bool) {
	disc := mustSub(mustMul(b, b), mustMul(Int(4), mustMul(a, c)))
	if disc.Sign() < 0 {
		return nil, false
	}
	d, ok := Root(disc, 2)
	if !ok {
		return nil, false
	}
	twoA := mustMul(Int(2), a)
	r1, _ := mustAdd(b.Neg(), d).Div(twoA)
	r2, _ := mustSub(b.Neg(), d).Div(twoA)
	var out []Expr
	if !a.IsOne() {
		out = append(out, NNumber(a))
	}
	if r1.Equal(r2) {
		return append(out, PowOf(AddOf(x, NNumber(r1.Neg())), N(2))), true
	}
	return append(out, AddOf(x, NNumber(r1.Neg())), AddOf(x, NNumber(r2.Neg()))), true
}

// factorCubes handles x^3 ± b^3.
func factorCubes(a, c Number, x Expr) ([]Expr, bool) {
	if !a.IsOne() {
		return nil, false
	}
	b, ok := Root(c, 3)
	if !ok || b.IsZero() {
		return nil, false
	}
	// x^3 + b^3 = (x + b)(x^2 - b*x + b^2)
	return []Expr{
		AddOf(x, NNumber(b)),
		AddOf(PowOf(x, N(2)), MulOf(NNumber(b.Neg()), x), NNumber(mustMul(b, b))),
	}, true
}
