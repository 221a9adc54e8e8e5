package symcore

// ============================================================
// Rule modules
// ============================================================

// Rule is one family of rewrites. Rewrite reports (nil, false, nil) when no
// rule of the family matches e; an error aborts the whole request.
type Rule interface {
	Name() string
	Rewrite(rc *RuleContext, e Expr) (Expr, bool, error)
}

// RuleContext carries the per-request settings a rule may consult.
type RuleContext struct {
	Config Config
	Limits Limits
	guard  Guard
}

// Defer records that a guard refused to evaluate something.
func (rc *RuleContext) Defer(g Guard) { rc.guard |= g }

func defaultRules(cfg Config) []Rule {
	rules := []Rule{powerRules{}}
	if cfg.EnableRadicalRules {
		rules = append(rules, radicalRules{})
	}
	if cfg.EnableTrigRules {
		rules = append(rules, trigRules{})
	}
	if cfg.EnableAlgebraRules {
		rules = append(rules, algebraRules{})
	}
	if cfg.AllowApproximation {
		rules = append(rules, approxRules{})
	}
	return rules
}

func matched(e Expr) (Expr, bool, error) { return e, true, nil }
func noMatch() (Expr, bool, error)        { return nil, false, nil }

// ============================================================
// Shared predicates
// ============================================================

func numOf(e Expr) (Number, bool) {
	if n, ok := e.(*Num); ok {
		return n.val, true
	}
	return Number{}, false
}

func isNumValue(e Expr, v int64) bool {
	n, ok := numOf(e)
	return ok && n.IsInteger() && n.int().IsInt64() && n.int().Int64() == v
}

func isExactInteger(e Expr) bool {
	n, ok := numOf(e)
	return ok && n.IsInteger()
}

func isFunc(e Expr, name string) (*Func, bool) {
	f, ok := e.(*Func)
	if !ok || f.name != name || len(f.args) != 1 {
		return nil, false
	}
	return f, true
}

// isNegativeForm reports a term written with a leading minus.
func isNegativeForm(e Expr) bool {
	c, _ := splitCoeff(e)
	return c.IsReal() && c.Sign() < 0
}

func negate(e Expr) Expr {
	c, rest := splitCoeff(e)
	return withCoeff(c.Neg(), rest)
}

func isPositive(e Expr) bool {
	switch x := e.(type) {
	case *Num:
		return x.val.IsReal() && x.val.Sign() > 0
	case *Const:
		return x.name == ConstPi || x.name == ConstE
	case *Func:
		switch x.name {
		case "sqrt":
			return len(x.args) == 1 && isPositive(x.args[0])
		case "exp":
			return len(x.args) == 1 && isReal(x.args[0])
		}
	case *Binary:
		switch x.op {
		case OpMul, OpDiv:
			return isPositive(x.left) && isPositive(x.right)
		case OpAdd:
			return (isPositive(x.left) && isNonNegative(x.right)) || (isNonNegative(x.left) && isPositive(x.right))
		case OpPow:
			return isPositive(x.left) && isReal(x.right)
		}
	}
	return false
}

// isNonNegative treats symbols as real valued.
func isNonNegative(e Expr) bool {
	if isPositive(e) {
		return true
	}
	switch x := e.(type) {
	case *Num:
		return x.val.IsReal() && x.val.Sign() == 0
	case *Func:
		switch x.name {
		case "abs":
			return true
		case "sqrt":
			return len(x.args) == 1 && isNonNegative(x.args[0])
		}
	case *Binary:
		switch x.op {
		case OpMul:
			return isNonNegative(x.left) && isNonNegative(x.right)
		case OpAdd:
			return isNonNegative(x.left) && isNonNegative(x.right)
		case OpPow:
			if n, ok := numOf(x.right); ok && n.IsInteger() && n.int().Bit(0) == 0 {
				return isReal(x.left)
			}
			return isNonNegative(x.left) && isReal(x.right)
		}
	}
	return false
}

// isReal treats symbols as real valued.
func isReal(e Expr) bool {
	switch x := e.(type) {
	case *Num:
		return x.val.IsReal()
	case *Sym:
		return true
	case *Const:
		return x.name != ConstI
	case *Unary:
		return isReal(x.arg)
	case *Func:
		if len(x.args) != 1 {
			return false
		}
		switch x.name {
		case "sin", "cos", "atan", "sinh", "cosh", "tanh", "exp", "abs":
			return isReal(x.args[0])
		case "sqrt", "ln":
			return isNonNegative(x.args[0])
		}
	case *Binary:
		switch x.op {
		case OpAdd, OpSub, OpMul:
			return isReal(x.left) && isReal(x.right)
		case OpDiv:
			return isReal(x.left) && isReal(x.right)
		case OpPow:
			if isExactInteger(x.right) {
				return isReal(x.left)
			}
			return isPositive(x.left) && isReal(x.right)
		}
	}
	return false
}

// containsNode reports whether target occurs anywhere in e.
func containsNode(e, target Expr) bool {
	if e.Equal(target) {
		return true
	}
	for _, c := range e.Children() {
		if containsNode(c, target) {
			return true
		}
	}
	return false
}
