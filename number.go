package symcore

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// ============================================================
// Number: the exact and approximate numeric tower
// ============================================================

// NumberKind tags the representation held by a Number.
type NumberKind uint8

const (
	KindInteger NumberKind = iota
	KindRational
	KindDecimal
	KindComplex
)

func (k NumberKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindRational:
		return "rational"
	case KindDecimal:
		return "decimal"
	case KindComplex:
		return "complex"
	}
	return fmt.Sprintf("NumberKind(%d)", uint8(k))
}

// DefaultPrecision is the mantissa size in bits used for decimals that do
// not carry their own precision.
const DefaultPrecision uint = 64

// Number is an immutable numeric value. The zero value is the integer 0.
//
// Rationals are always in lowest terms with a positive denominator and are
// never integer-valued; such values are stored as integers. A complex number
// never carries an exact-zero imaginary part.
type Number struct {
	kind NumberKind
	i    *big.Int
	r    *big.Rat
	d    *big.Float
	re   *Number
	im   *Number
}

// Int returns the integer v.
func Int(v int64) Number { return Number{kind: KindInteger, i: big.NewInt(v)} }

// IntBig returns the integer v. v is copied.
func IntBig(v *big.Int) Number { return Number{kind: KindInteger, i: new(big.Int).Set(v)} }

// Rat returns p/q in lowest terms.
func Rat(p, q int64) (Number, error) {
	if q == 0 {
		return Number{}, divByZero("rational")
	}
	return RatBig(new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))), nil
}

// RatBig normalizes r, collapsing integer values to KindInteger. r is copied.
func RatBig(r *big.Rat) Number {
	if r.IsInt() {
		return Number{kind: KindInteger, i: new(big.Int).Set(r.Num())}
	}
	return Number{kind: KindRational, r: new(big.Rat).Set(r)}
}

// Decimal returns an approximate number. A zero precision on f selects
// DefaultPrecision.
func Decimal(f *big.Float) Number {
	prec := f.Prec()
	if prec == 0 {
		prec = DefaultPrecision
	}
	return Number{kind: KindDecimal, d: new(big.Float).SetPrec(prec).Set(f)}
}

// DecimalFromFloat64 returns v as a decimal with 53 bits of precision.
func DecimalFromFloat64(v float64) Number {
	return Number{kind: KindDecimal, d: new(big.Float).SetPrec(53).SetFloat64(v)}
}

// Complex combines two real numbers. An exact-zero imaginary part yields re.
func Complex(re, im Number) (Number, error) {
	if re.kind == KindComplex || im.kind == KindComplex {
		return Number{}, &ArithmeticError{Op: "complex", Reason: "components must be real", Err: ErrArithmetic}
	}
	if im.IsExact() && im.IsZero() {
		return re, nil
	}
	r, m := re, im
	return Number{kind: KindComplex, re: &r, im: &m}, nil
}

// ParseNumber reads an integer ("-12"), a rational ("3/4"), a decimal
// ("1.25", "2e-3", optionally suffixed "@128" for the precision in bits) or
// a complex value written "re+imi" / "imi".
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}, fmt.Errorf("symcore: empty number")
	}
	if strings.HasSuffix(s, "i") {
		return parseComplex(s)
	}
	if prec, body, ok := strings.Cut(s, "@"); ok {
		var p uint
		if _, err := fmt.Sscanf(body, "%d", &p); err != nil || p == 0 {
			return Number{}, fmt.Errorf("symcore: invalid precision in %q", s)
		}
		return parseDecimal(prec, p)
	}
	if strings.ContainsAny(s, ".eE") {
		return parseDecimal(s, DefaultPrecision)
	}
	if strings.Contains(s, "/") {
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return Number{}, fmt.Errorf("symcore: invalid rational %q", s)
		}
		return RatBig(r), nil
	}
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Number{}, fmt.Errorf("symcore: invalid integer %q", s)
	}
	return Number{kind: KindInteger, i: i}, nil
}

func parseDecimal(s string, prec uint) (Number, error) {
	f, _, err := big.ParseFloat(s, 10, prec, big.ToNearestEven)
	if err != nil {
		return Number{}, fmt.Errorf("symcore: invalid decimal %q: %w", s, err)
	}
	return Number{kind: KindDecimal, d: f}, nil
}

func parseComplex(s string) (Number, error) {
	body := strings.TrimSuffix(s, "i")
	// split at the last sign that is not part of an exponent or the leading sign
	cut := -1
	for j := len(body) - 1; j > 0; j-- {
		if (body[j] == '+' || body[j] == '-') && body[j-1] != 'e' && body[j-1] != 'E' {
			cut = j
			break
		}
	}
	reText, imText := "0", body
	if cut > 0 {
		reText, imText = body[:cut], body[cut:]
	}
	switch imText {
	case "", "+":
		imText = "1"
	case "-":
		imText = "-1"
	}
	re, err := ParseNumber(reText)
	if err != nil {
		return Number{}, err
	}
	im, err := ParseNumber(strings.TrimPrefix(imText, "+"))
	if err != nil {
		return Number{}, err
	}
	return Complex(re, im)
}

// ============================================================
// Accessors
// ============================================================

func (a Number) Kind() NumberKind { return a.kind }

// IsExact reports whether a carries no approximation.
func (a Number) IsExact() bool {
	switch a.kind {
	case KindDecimal:
		return false
	case KindComplex:
		return a.re.IsExact() && a.im.IsExact()
	}
	return true
}

func (a Number) IsInteger() bool { return a.kind == KindInteger }
func (a Number) IsReal() bool    { return a.kind != KindComplex }

func (a Number) IsZero() bool {
	switch a.kind {
	case KindComplex:
		return false
	}
	return a.Sign() == 0
}

func (a Number) IsOne() bool { return a.kind == KindInteger && a.int().IsInt64() && a.int().Int64() == 1 }

func (a Number) IsMinusOne() bool {
	return a.kind == KindInteger && a.int().IsInt64() && a.int().Int64() == -1
}

// Sign returns -1, 0 or +1. Complex numbers report the sign of the real part.
func (a Number) Sign() int {
	switch a.kind {
	case KindInteger:
		return a.int().Sign()
	case KindRational:
		return a.r.Sign()
	case KindDecimal:
		return a.d.Sign()
	}
	return a.re.Sign()
}

// Real and Imag split a complex number; a real number has a zero imaginary part.
func (a Number) Real() Number {
	if a.kind == KindComplex {
		return *a.re
	}
	return a
}

func (a Number) Imag() Number {
	if a.kind == KindComplex {
		return *a.im
	}
	return Int(0)
}

// Precision is the mantissa size of a decimal, or zero for exact numbers.
func (a Number) Precision() uint {
	switch a.kind {
	case KindDecimal:
		return a.d.Prec()
	case KindComplex:
		return minPrec(*a.re, *a.im)
	}
	return 0
}

// BigInt returns a copy of an integer value.
func (a Number) BigInt() (*big.Int, bool) {
	if a.kind != KindInteger {
		return nil, false
	}
	return new(big.Int).Set(a.int()), true
}

// BigRat returns an exact real value as a rational.
func (a Number) BigRat() (*big.Rat, bool) {
	switch a.kind {
	case KindInteger, KindRational:
		return a.rat(), true
	}
	return nil, false
}

func (a Number) Float64() float64 {
	switch a.kind {
	case KindInteger:
		f, _ := new(big.Float).SetInt(a.int()).Float64()
		return f
	case KindRational:
		f, _ := a.r.Float64()
		return f
	case KindDecimal:
		f, _ := a.d.Float64()
		return f
	}
	return math.NaN()
}

func (a Number) int() *big.Int {
	if a.i == nil {
		return new(big.Int)
	}
	return a.i
}

func (a Number) rat() *big.Rat {
	if a.kind == KindRational {
		return new(big.Rat).Set(a.r)
	}
	return new(big.Rat).SetInt(a.int())
}

func (a Number) bigFloat(prec uint) *big.Float {
	z := new(big.Float).SetPrec(prec)
	switch a.kind {
	case KindInteger:
		return z.SetInt(a.int())
	case KindRational:
		return z.SetRat(a.r)
	}
	return z.Set(a.d)
}

func (a Number) String() string {
	switch a.kind {
	case KindInteger:
		return a.int().String()
	case KindRational:
		return a.r.RatString()
	case KindDecimal:
		s := a.d.Text('g', -1)
		if !strings.ContainsAny(s, ".eInf") {
			s += ".0"
		}
		return s
	}
	im := a.im.String()
	if a.re.IsExact() && a.re.IsZero() {
		return im + "i"
	}
	if !strings.HasPrefix(im, "-") {
		im = "+" + im
	}
	return a.re.String() + im + "i"
}

// Equal reports value equality of the same kind. Decimals of different
// precision compare by value.
func (a Number) Equal(b Number) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindComplex {
		return a.re.Equal(*b.re) && a.im.Equal(*b.im)
	}
	return a.Cmp(b) == 0
}

// Cmp orders real numbers by value. Complex numbers compare by real part,
// then imaginary part, which is only a deterministic total order.
func (a Number) Cmp(b Number) int {
	if a.kind == KindComplex || b.kind == KindComplex {
		if c := a.Real().Cmp(b.Real()); c != 0 {
			return c
		}
		return a.Imag().Cmp(b.Imag())
	}
	if a.kind == KindDecimal || b.kind == KindDecimal {
		prec := max(minPrec(a, b), DefaultPrecision)
		return a.bigFloat(prec).Cmp(b.bigFloat(prec))
	}
	if a.kind == KindInteger && b.kind == KindInteger {
		return a.int().Cmp(b.int())
	}
	return a.rat().Cmp(b.rat())
}

func minPrec(a, b Number) uint {
	pa, pb := a.Precision(), b.Precision()
	switch {
	case pa == 0:
		return pb
	case pb == 0:
		return pa
	}
	return min(pa, pb)
}

// ============================================================
// Arithmetic
// ============================================================

const (
	opAdd = "add"
	opSub = "sub"
	opMul = "mul"
	opDiv = "div"
	opPow = "pow"
)

func (a Number) Add(b Number) (Number, error) { return arith(opAdd, a, b) }
func (a Number) Sub(b Number) (Number, error) { return arith(opSub, a, b) }
func (a Number) Mul(b Number) (Number, error) { return arith(opMul, a, b) }
func (a Number) Div(b Number) (Number, error) { return arith(opDiv, a, b) }

func (a Number) Neg() Number {
	switch a.kind {
	case KindInteger:
		return Number{kind: KindInteger, i: new(big.Int).Neg(a.int())}
	case KindRational:
		return Number{kind: KindRational, r: new(big.Rat).Neg(a.r)}
	case KindDecimal:
		return Number{kind: KindDecimal, d: new(big.Float).Neg(a.d)}
	}
	re, im := a.re.Neg(), a.im.Neg()
	return Number{kind: KindComplex, re: &re, im: &im}
}

func (a Number) Abs() Number {
	if a.kind != KindComplex && a.Sign() < 0 {
		return a.Neg()
	}
	return a
}

// Inv returns 1/a.
func (a Number) Inv() (Number, error) { return Int(1).Div(a) }

func arith(op string, a, b Number) (Number, error) {
	if a.kind == KindComplex || b.kind == KindComplex {
		return complexArith(op, a, b)
	}
	if a.kind == KindDecimal || b.kind == KindDecimal {
		prec := minPrec(a, b)
		x, y := a.bigFloat(prec), b.bigFloat(prec)
		z := new(big.Float).SetPrec(prec)
		switch op {
		case opAdd:
			z.Add(x, y)
		case opSub:
			z.Sub(x, y)
		case opMul:
			z.Mul(x, y)
		case opDiv:
			if y.Sign() == 0 {
				return Number{}, divByZero(op)
			}
			z.Quo(x, y)
		}
		return Number{kind: KindDecimal, d: z}, nil
	}
	if a.kind == KindInteger && b.kind == KindInteger && op != opDiv {
		z := new(big.Int)
		switch op {
		case opAdd:
			z.Add(a.int(), b.int())
		case opSub:
			z.Sub(a.int(), b.int())
		case opMul:
			z.Mul(a.int(), b.int())
		}
		return Number{kind: KindInteger, i: z}, nil
	}
	x, y := a.rat(), b.rat()
	z := new(big.Rat)
	switch op {
	case opAdd:
		z.Add(x, y)
	case opSub:
		z.Sub(x, y)
	case opMul:
		z.Mul(x, y)
	case opDiv:
		if y.Sign() == 0 {
			return Number{}, divByZero(op)
		}
		z.Quo(x, y)
	}
	return RatBig(z), nil
}

func complexArith(op string, a, b Number) (Number, error) {
	ar, ai, br, bi := a.Real(), a.Imag(), b.Real(), b.Imag()
	var re, im Number
	var err error
	switch op {
	case opAdd, opSub:
		if re, err = arith(op, ar, br); err != nil {
			return Number{}, err
		}
		if im, err = arith(op, ai, bi); err != nil {
			return Number{}, err
		}
	case opMul:
		re = mustSub(mustMul(ar, br), mustMul(ai, bi))
		im = mustAdd(mustMul(ar, bi), mustMul(ai, br))
	case opDiv:
		den := mustAdd(mustMul(br, br), mustMul(bi, bi))
		if den.IsZero() {
			return Number{}, divByZero(op)
		}
		if re, err = mustAdd(mustMul(ar, br), mustMul(ai, bi)).Div(den); err != nil {
			return Number{}, err
		}
		if im, err = mustSub(mustMul(ai, br), mustMul(ar, bi)).Div(den); err != nil {
			return Number{}, err
		}
	}
	return Complex(re, im)
}

// Addition, subtraction and multiplication of real numbers cannot fail.
func mustAdd(a, b Number) Number { n, _ := arith(opAdd, a, b); return n }
func mustSub(a, b Number) Number { n, _ := arith(opSub, a, b); return n }
func mustMul(a, b Number) Number { n, _ := arith(opMul, a, b); return n }

// ============================================================
// Powers
// ============================================================

// Limits bound numeric power evaluation.
type Limits struct {
	// MaxExponent is the largest exponent magnitude evaluated eagerly.
	MaxExponent *big.Int
	// MaxResultBits caps the estimated size of an exact power result.
	MaxResultBits int64
	// Precision is used when an approximation is requested.
	Precision uint
}

// DefaultLimits mirrors DefaultConfig.
func DefaultLimits() Limits {
	return Limits{MaxExponent: big.NewInt(1000), MaxResultBits: 1 << 20, Precision: DefaultPrecision}
}

// Pow raises a to b under lim. It returns ErrDeferred when the guard refuses
// to materialize the result and ErrInexact when exact operands have no exact
// power (for example 2^(1/2)).
func (a Number) Pow(b Number, lim Limits) (Number, error) {
	if b.kind == KindComplex {
		return Number{}, ErrInexact
	}
	if b.kind == KindDecimal || (a.kind == KindDecimal && b.kind != KindInteger) {
		if exponentTooLarge(b, lim) {
			return Number{}, ErrDeferred
		}
		return decimalPow(a, b)
	}
	if a.IsZero() && b.Sign() < 0 {
		return Number{}, divByZero(opPow)
	}
	if a.IsZero() && b.IsZero() {
		return Number{}, &ArithmeticError{Op: opPow, Reason: "0^0 is undefined", Err: ErrDomain}
	}
	if b.kind == KindRational {
		return rationalPow(a, b, lim)
	}
	e := b.int()
	if a.kind != KindComplex && a.kind != KindDecimal && trivialBase(a) {
		return trivialPow(a, e), nil
	}
	if err := checkPow(a, e, lim); err != nil {
		return Number{}, err
	}
	abs := new(big.Int).Abs(e)
	var out Number
	switch a.kind {
	case KindInteger:
		out = Number{kind: KindInteger, i: new(big.Int).Exp(a.int(), abs, nil)}
	case KindRational:
		num := new(big.Int).Exp(a.r.Num(), abs, nil)
		den := new(big.Int).Exp(a.r.Denom(), abs, nil)
		out = RatBig(new(big.Rat).SetFrac(num, den))
	default:
		out = squareMultiply(a, abs)
	}
	if e.Sign() < 0 {
		return out.Inv()
	}
	return out, nil
}

// trivialBase reports bases whose powers never grow: 0, 1 and -1.
func trivialBase(a Number) bool { return a.IsZero() || a.IsOne() || a.IsMinusOne() }

func trivialPow(a Number, e *big.Int) Number {
	if a.IsMinusOne() && e.Bit(0) == 0 {
		return Int(1)
	}
	return a
}

// checkPow enforces the exponent and result-size guards before any work.
func checkPow(a Number, e *big.Int, lim Limits) error {
	abs := new(big.Int).Abs(e)
	if lim.MaxExponent != nil && abs.Cmp(lim.MaxExponent) > 0 {
		return ErrDeferred
	}
	if lim.MaxResultBits <= 0 || !abs.IsInt64() {
		return nil
	}
	bits := int64(0)
	switch a.kind {
	case KindInteger:
		bits = int64(a.int().BitLen())
	case KindRational:
		bits = int64(a.r.Num().BitLen() + a.r.Denom().BitLen())
	case KindComplex:
		bits = int64(a.re.Precision()+a.im.Precision()) + 64
	default:
		return nil
	}
	if bits > 0 && abs.Int64() > lim.MaxResultBits/bits {
		return ErrDeferred
	}
	return nil
}

// exponentTooLarge compares |b| of any real kind with lim.MaxExponent.
func exponentTooLarge(b Number, lim Limits) bool {
	if lim.MaxExponent == nil {
		return false
	}
	limit := new(big.Float).SetInt(lim.MaxExponent)
	var abs *big.Float
	switch b.kind {
	case KindInteger:
		abs = new(big.Float).SetInt(b.int())
	case KindRational:
		abs = new(big.Float).SetRat(b.r)
	case KindDecimal:
		abs = new(big.Float).Set(b.d)
	default:
		return false
	}
	return abs.Abs(abs).Cmp(limit) > 0
}

func squareMultiply(a Number, e *big.Int) Number {
	out, base := Int(1), a
	for i := 0; i < e.BitLen(); i++ {
		if e.Bit(i) == 1 {
			out, _ = out.Mul(base)
		}
		base, _ = base.Mul(base)
	}
	return out
}

// rationalPow evaluates a^(p/q) exactly when a has an exact q-th root.
func rationalPow(a Number, b Number, lim Limits) (Number, error) {
	if a.kind == KindComplex {
		return Number{}, ErrInexact
	}
	den := b.r.Denom()
	if !den.IsUint64() || den.Uint64() > 64 {
		return Number{}, ErrInexact
	}
	root, ok := Root(a, uint(den.Uint64()))
	if !ok {
		return Number{}, ErrInexact
	}
	return root.Pow(Number{kind: KindInteger, i: new(big.Int).Set(b.r.Num())}, lim)
}

func decimalPow(a, b Number) (Number, error) {
	if a.kind == KindComplex {
		return Number{}, ErrInexact
	}
	prec := minPrec(a, b)
	x, y := a.Float64(), b.Float64()
	if x == 0 && y < 0 {
		return Number{}, divByZero(opPow)
	}
	v := math.Pow(x, y)
	if math.IsNaN(v) {
		return Number{}, &ArithmeticError{Op: opPow, Reason: "negative base with fractional exponent", Err: ErrDomain}
	}
	if math.IsInf(v, 0) {
		return Number{}, ErrDeferred
	}
	return Number{kind: KindDecimal, d: new(big.Float).SetPrec(min(prec, 53)).SetFloat64(v)}, nil
}
