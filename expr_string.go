package symcore

import (
	"strings"
)

// String forms are deterministic and double as the canonical sort key.

const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

func precedence(e Expr) int {
	switch x := e.(type) {
	case *Num:
		switch {
		case x.val.kind == KindComplex:
			return precAdd
		case x.val.kind == KindRational:
			return precMul
		case x.val.Sign() < 0:
			return precNeg
		}
	case *Unary:
		return precNeg
	case *Binary:
		switch x.op {
		case OpAdd, OpSub:
			return precAdd
		case OpMul:
			if c, _ := splitCoeff(x); c.IsMinusOne() {
				return precNeg
			}
			return precMul
		case OpDiv:
			return precMul
		case OpPow:
			return precPow
		}
	}
	return precAtom
}

func paren(s string) string { return "(" + s + ")" }

// operand renders e, parenthesized when it binds looser than min or, for
// operands that are not leading, when it starts with a minus sign.
func operand(e Expr, min int, leading bool) string {
	s := e.String()
	if precedence(e) < min || (!leading && strings.HasPrefix(s, "-")) {
		return paren(s)
	}
	return s
}

func (u *Unary) String() string {
	return "-" + operand(u.arg, precPow, false)
}

func (b *Binary) String() string {
	switch b.op {
	case OpAdd:
		return sumString(addTerms(b))
	case OpSub:
		return b.left.String() + " - " + operand(b.right, precMul, false)
	case OpMul:
		return productString(mulFactors(b))
	case OpDiv:
		return operand(b.left, precMul, true) + "/" + operand(b.right, precPow, false)
	case OpPow:
		return operand(b.left, precAtom, false) + "^" + operand(b.right, precAtom, false)
	}
	return "<invalid>"
}

func sumString(terms []Expr) string {
	var sb strings.Builder
	for i, t := range terms {
		if i == 0 {
			sb.WriteString(t.String())
			continue
		}
		if c, rest := splitCoeff(t); c.IsReal() && c.Sign() < 0 {
			sb.WriteString(" - ")
			sb.WriteString(operand(withCoeff(c.Neg(), rest), precMul, true))
			continue
		}
		sb.WriteString(" + ")
		sb.WriteString(operand(t, precMul, true))
	}
	return sb.String()
}

func productString(factors []Expr) string {
	if n, ok := factors[0].(*Num); ok && n.val.IsMinusOne() && len(factors) > 1 {
		return "-" + productString(factors[1:])
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = operand(f, precMul, i == 0)
	}
	return strings.Join(parts, "*")
}

func (f *Func) String() string {
	args := make([]string, len(f.args))
	for i, a := range f.args {
		args[i] = a.String()
	}
	return f.name + "(" + strings.Join(args, ", ") + ")"
}
