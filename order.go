package symcore

import (
	"strings"
)

// ============================================================
// Canonical ordering of commutative operands
// ============================================================

func addTerms(e Expr) []Expr {
	if b, ok := e.(*Binary); ok && b.op == OpAdd {
		return append(addTerms(b.left), addTerms(b.right)...)
	}
	return []Expr{e}
}

func mulFactors(e Expr) []Expr {
	if b, ok := e.(*Binary); ok && b.op == OpMul {
		return append(mulFactors(b.left), mulFactors(b.right)...)
	}
	return []Expr{e}
}

// splitCoeff separates the numeric coefficient of a term. rest is nil when
// the term is a plain number.
func splitCoeff(e Expr) (Number, Expr) {
	switch x := e.(type) {
	case *Num:
		return x.val, nil
	case *Unary:
		if x.op == OpNeg {
			c, rest := splitCoeff(x.arg)
			return c.Neg(), rest
		}
	case *Binary:
		if x.op == OpMul {
			fs := mulFactors(x)
			if n, ok := fs[0].(*Num); ok {
				return n.val, buildChain(OpMul, fs[1:])
			}
		}
	}
	return Int(1), e
}

// withCoeff is the inverse of splitCoeff.
func withCoeff(c Number, rest Expr) Expr {
	if rest == nil {
		return &Num{val: c}
	}
	return MulOf(&Num{val: c}, rest)
}

// baseExp views any factor as a power.
func baseExp(e Expr) (Expr, Expr) {
	if b, ok := e.(*Binary); ok && b.op == OpPow {
		return b.left, b.right
	}
	return e, N(1)
}

func factorRank(e Expr) int {
	if _, ok := e.(*Num); ok {
		return 0
	}
	base, _ := baseExp(e)
	switch x := base.(type) {
	case *Num, *Const:
		return 1
	case *Func:
		if x.name == "sqrt" && len(x.args) == 1 {
			if _, ok := x.args[0].(*Num); ok {
				return 1
			}
		}
		return 3
	case *Sym:
		return 2
	}
	return 4
}

func compareFactors(a, b Expr) int {
	if ra, rb := factorRank(a), factorRank(b); ra != rb {
		return ra - rb
	}
	ba, ea := baseExp(a)
	bb, eb := baseExp(b)
	if c := strings.Compare(ba.String(), bb.String()); c != 0 {
		return c
	}
	na, okA := ea.(*Num)
	nb, okB := eb.(*Num)
	if okA && okB {
		return na.val.Cmp(nb.val)
	}
	return strings.Compare(ea.String(), eb.String())
}

// degree is the total integer degree of the symbols in a term.
func degree(e Expr) int64 {
	var d int64
	for _, f := range mulFactors(e) {
		base, exp := baseExp(f)
		if _, ok := base.(*Sym); !ok {
			continue
		}
		if n, ok := exp.(*Num); ok && n.val.IsInteger() && n.val.int().IsInt64() {
			d += n.val.int().Int64()
		}
	}
	return d
}

// compareTerms orders sum operands: higher degree first, plain numbers last,
// then by the term without its coefficient, then by coefficient.
func compareTerms(a, b Expr) int {
	ca, ra := splitCoeff(a)
	cb, rb := splitCoeff(b)
	switch {
	case ra == nil && rb == nil:
		return ca.Cmp(cb)
	case ra == nil:
		return 1
	case rb == nil:
		return -1
	}
	da, db := degree(ra), degree(rb)
	if da != db {
		if da > db {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ra.String(), rb.String()); c != 0 {
		return c
	}
	return ca.Cmp(cb)
}
