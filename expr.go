// Package symcore is an exact expression rewriting and differentiation core.
//
// Expressions are immutable trees built through smart constructors that only
// perform local, unconditional simplification. The Engine drives rule modules
// (power, radical, trigonometric, algebraic) bottom-up to a fixpoint, backed
// by an exact numeric tower that refuses to materialize oversized powers.
package symcore

import (
	"math/big"
	"sort"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable expression node. The method set is sealed; the only
// implementations are the node types of this package.
type Expr interface {
	String() string
	Equal(other Expr) bool
	// Children returns the operands in order. The slice is a copy.
	Children() []Expr
	exprType() string
	rebuild(children []Expr) Expr
	toJSON() map[string]any
}

// Op identifies the operator of a Unary or Binary node.
type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpNeg
)

var opNames = map[Op]string{
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
	OpPow: "pow",
	OpNeg: "neg",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "invalid"
}

// Equal compares two expressions structurally. Two nils are equal.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// ============================================================
// Num: numeric literal
// ============================================================

type Num struct{ val Number }

func N(n int64) *Num { return &Num{val: Int(n)} }

// F returns the rational p/q. It panics when q is zero.
func F(p, q int64) *Num {
	v, err := Rat(p, q)
	if err != nil {
		panic("symcore: denominator is zero")
	}
	return &Num{val: v}
}

func NBig(v *big.Int) *Num      { return &Num{val: IntBig(v)} }
func NRat(v *big.Rat) *Num      { return &Num{val: RatBig(v)} }
func NDecimal(v float64) *Num   { return &Num{val: DecimalFromFloat64(v)} }
func NNumber(v Number) *Num     { return &Num{val: v} }
func (n *Num) Value() Number    { return n.val }
func (n *Num) String() string   { return n.val.String() }
func (n *Num) Children() []Expr { return nil }
func (n *Num) exprType() string { return "num" }

func (n *Num) Equal(other Expr) bool {
	o, ok := other.(*Num)
	return ok && n.val.Equal(o.val)
}

func (n *Num) rebuild([]Expr) Expr { return n }

// ============================================================
// Sym: named variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym           { return &Sym{name: name} }
func (s *Sym) Name() string        { return s.name }
func (s *Sym) String() string      { return s.name }
func (s *Sym) Children() []Expr    { return nil }
func (s *Sym) exprType() string    { return "sym" }
func (s *Sym) rebuild([]Expr) Expr { return s }

func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}

// ============================================================
// Const: named mathematical constant
// ============================================================

type Const struct{ name string }

const (
	ConstPi = "pi"
	ConstE  = "e"
	ConstI  = "i"
)

var (
	Pi = &Const{name: ConstPi}
	E  = &Const{name: ConstE}
	// I is the imaginary unit.
	I = &Const{name: ConstI}
)

func (c *Const) Name() string        { return c.name }
func (c *Const) String() string      { return c.name }
func (c *Const) Children() []Expr    { return nil }
func (c *Const) exprType() string    { return "const" }
func (c *Const) rebuild([]Expr) Expr { return c }

func (c *Const) Equal(other Expr) bool {
	o, ok := other.(*Const)
	return ok && c.name == o.name
}

// ConstOf looks up a constant by name.
func ConstOf(name string) (*Const, bool) {
	switch name {
	case ConstPi:
		return Pi, true
	case ConstE:
		return E, true
	case ConstI:
		return I, true
	}
	return nil, false
}

// ============================================================
// Unary: negation
// ============================================================

type Unary struct {
	op  Op
	arg Expr
}

func (u *Unary) Op() Op           { return u.op }
func (u *Unary) Arg() Expr        { return u.arg }
func (u *Unary) Children() []Expr { return []Expr{u.arg} }
func (u *Unary) exprType() string { return u.op.String() }

func (u *Unary) Equal(other Expr) bool {
	o, ok := other.(*Unary)
	return ok && u.op == o.op && Equal(u.arg, o.arg)
}

func (u *Unary) rebuild(ch []Expr) Expr { return NegOf(ch[0]) }

// ============================================================
// Binary: add, sub, mul, div, pow
// ============================================================

type Binary struct {
	op          Op
	left, right Expr
}

func (b *Binary) Op() Op           { return b.op }
func (b *Binary) Left() Expr       { return b.left }
func (b *Binary) Right() Expr      { return b.right }
func (b *Binary) Children() []Expr { return []Expr{b.left, b.right} }
func (b *Binary) exprType() string { return b.op.String() }

func (b *Binary) Equal(other Expr) bool {
	o, ok := other.(*Binary)
	return ok && b.op == o.op && Equal(b.left, o.left) && Equal(b.right, o.right)
}

func (b *Binary) rebuild(ch []Expr) Expr { return binaryOf(b.op, ch[0], ch[1]) }

func binaryOf(op Op, l, r Expr) Expr {
	switch op {
	case OpAdd:
		return AddOf(l, r)
	case OpSub:
		return SubOf(l, r)
	case OpMul:
		return MulOf(l, r)
	case OpDiv:
		return DivOf(l, r)
	case OpPow:
		return PowOf(l, r)
	}
	return &Binary{op: op, left: l, right: r}
}

// ============================================================
// Func: named function application
// ============================================================

type Func struct {
	name string
	args []Expr
}

func (f *Func) Name() string           { return f.name }
func (f *Func) NumArgs() int           { return len(f.args) }
func (f *Func) Arg(i int) Expr         { return f.args[i] }
func (f *Func) Children() []Expr       { return append([]Expr(nil), f.args...) }
func (f *Func) exprType() string       { return "func" }
func (f *Func) rebuild(ch []Expr) Expr { return FuncOf(f.name, ch...) }

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	if !ok || f.name != o.name || len(f.args) != len(o.args) {
		return false
	}
	for i := range f.args {
		if !Equal(f.args[i], o.args[i]) {
			return false
		}
	}
	return true
}

// funcArity lists the recognized functions. -1 accepts one or two arguments.
var funcArity = map[string]int{
	"sin": 1, "cos": 1, "tan": 1, "sec": 1, "csc": 1, "cot": 1,
	"asin": 1, "acos": 1, "atan": 1,
	"sinh": 1, "cosh": 1, "tanh": 1,
	"exp": 1, "ln": 1, "log": -1, "sqrt": 1, "abs": 1,
}

// ============================================================
// Smart constructors
// ============================================================

// AddOf sums its terms: nested sums are flattened, numeric literals folded,
// zero dropped and the remaining terms put in canonical order.
func AddOf(terms ...Expr) Expr {
	flat := make([]Expr, 0, len(terms))
	for _, t := range terms {
		flat = append(flat, addTerms(t)...)
	}
	acc := Int(0)
	rest := make([]Expr, 0, len(flat))
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			acc = mustAdd(acc, n.val)
			continue
		}
		rest = append(rest, t)
	}
	if !acc.IsZero() || len(rest) == 0 {
		rest = append(rest, &Num{val: acc})
	}
	sort.SliceStable(rest, func(i, j int) bool { return compareTerms(rest[i], rest[j]) < 0 })
	return buildChain(OpAdd, rest)
}

// MulOf multiplies its factors with the same local rules as AddOf; a zero
// literal factor absorbs the product.
func MulOf(factors ...Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	for _, f := range factors {
		flat = append(flat, mulFactors(f)...)
	}
	acc := Int(1)
	rest := make([]Expr, 0, len(flat))
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			acc = mustMul(acc, n.val)
			continue
		}
		rest = append(rest, f)
	}
	if acc.IsZero() {
		return &Num{val: acc}
	}
	if !acc.IsOne() || len(rest) == 0 {
		rest = append(rest, &Num{val: acc})
	}
	sort.SliceStable(rest, func(i, j int) bool { return compareFactors(rest[i], rest[j]) < 0 })
	return buildChain(OpMul, rest)
}

// buildChain folds already ordered operands into a left-leaning chain.
func buildChain(op Op, operands []Expr) Expr {
	out := operands[0]
	for _, x := range operands[1:] {
		out = &Binary{op: op, left: out, right: x}
	}
	return out
}

func SubOf(a, b Expr) Expr {
	if nb, ok := b.(*Num); ok {
		if nb.val.IsExact() && nb.val.IsZero() {
			return a
		}
		if na, ok := a.(*Num); ok {
			return &Num{val: mustSub(na.val, nb.val)}
		}
	}
	return &Binary{op: OpSub, left: a, right: b}
}

func DivOf(a, b Expr) Expr {
	if nb, ok := b.(*Num); ok {
		if nb.val.IsOne() {
			return a
		}
		if na, ok := a.(*Num); ok && !nb.val.IsZero() {
			if v, err := na.val.Div(nb.val); err == nil {
				return &Num{val: v}
			}
		}
	}
	return &Binary{op: OpDiv, left: a, right: b}
}

// PowOf never evaluates numeric powers; that is left to the guarded engine.
func PowOf(base, exp Expr) Expr {
	if n, ok := exp.(*Num); ok && n.val.IsOne() {
		return base
	}
	return &Binary{op: OpPow, left: base, right: exp}
}

func NegOf(a Expr) Expr {
	switch x := a.(type) {
	case *Num:
		return &Num{val: x.val.Neg()}
	case *Unary:
		if x.op == OpNeg {
			return x.arg
		}
	}
	return &Unary{op: OpNeg, arg: a}
}

func FuncOf(name string, args ...Expr) Expr {
	return &Func{name: name, args: append([]Expr(nil), args...)}
}

func SqrtOf(x Expr) Expr { return FuncOf("sqrt", x) }
func SinOf(x Expr) Expr  { return FuncOf("sin", x) }
func CosOf(x Expr) Expr  { return FuncOf("cos", x) }
func TanOf(x Expr) Expr  { return FuncOf("tan", x) }
func ExpOf(x Expr) Expr  { return FuncOf("exp", x) }
func LnOf(x Expr) Expr   { return FuncOf("ln", x) }
func AbsOf(x Expr) Expr  { return FuncOf("abs", x) }
func AsinOf(x Expr) Expr { return FuncOf("asin", x) }
func AcosOf(x Expr) Expr { return FuncOf("acos", x) }
func AtanOf(x Expr) Expr { return FuncOf("atan", x) }

// ============================================================
// Validation
// ============================================================

// Validate checks the producer contract: no nil nodes, no empty names, no
// unknown operators or constants, and the right arity for recognized
// functions. Unrecognized function names are allowed as opaque functions.
func Validate(e Expr) error {
	switch x := e.(type) {
	case nil:
		return &MalformedError{Reason: "nil expression"}
	case *Num:
		if x == nil {
			return &MalformedError{Node: "num", Reason: "nil node"}
		}
		if x.val.kind == KindComplex && (x.val.re == nil || x.val.im == nil) {
			return &MalformedError{Node: "num", Reason: "incomplete complex value"}
		}
		if x.val.kind == KindRational && x.val.r == nil || x.val.kind == KindDecimal && x.val.d == nil {
			return &MalformedError{Node: "num", Reason: "missing value"}
		}
	case *Sym:
		if x == nil || x.name == "" {
			return &MalformedError{Node: "sym", Reason: "empty name"}
		}
	case *Const:
		if x == nil {
			return &MalformedError{Node: "const", Reason: "nil node"}
		}
		if _, ok := ConstOf(x.name); !ok {
			return &MalformedError{Node: "const", Reason: "unknown constant " + x.name}
		}
	case *Unary:
		if x == nil || x.op != OpNeg {
			return &MalformedError{Node: "unary", Reason: "unknown operator"}
		}
		return Validate(x.arg)
	case *Binary:
		if x == nil {
			return &MalformedError{Node: "binary", Reason: "nil node"}
		}
		switch x.op {
		case OpAdd, OpSub, OpMul, OpDiv, OpPow:
		default:
			return &MalformedError{Node: "binary", Reason: "unknown operator " + x.op.String()}
		}
		if err := Validate(x.left); err != nil {
			return err
		}
		return Validate(x.right)
	case *Func:
		if x == nil || x.name == "" {
			return &MalformedError{Node: "func", Reason: "empty name"}
		}
		if want, ok := funcArity[x.name]; ok {
			n := len(x.args)
			if (want == -1 && (n < 1 || n > 2)) || (want > 0 && n != want) {
				return &MalformedError{Node: x.name, Reason: "wrong number of arguments"}
			}
		}
		for _, a := range x.args {
			if err := Validate(a); err != nil {
				return err
			}
		}
	default:
		return &MalformedError{Reason: "unknown node type"}
	}
	return nil
}

// Size counts the nodes of e.
func Size(e Expr) int {
	n := 1
	for _, c := range e.Children() {
		n += Size(c)
	}
	return n
}
