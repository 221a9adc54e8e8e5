package symcore

import (
	"errors"
	"fmt"
)

// Sentinel errors. ErrDivisionByZero and ErrDomain are arithmetic errors:
// errors.Is(err, ErrArithmetic) holds for both.
var (
	ErrMalformedExpression = errors.New("symcore: malformed expression")
	ErrArithmetic          = errors.New("symcore: arithmetic error")
	ErrDivisionByZero      = &kindError{msg: "symcore: division by zero", parent: ErrArithmetic}
	ErrDomain              = &kindError{msg: "symcore: domain error", parent: ErrArithmetic}
	ErrNoDerivativeRule    = errors.New("symcore: no derivative rule")

	// ErrDeferred is returned by Number.Pow when a guard refuses to evaluate.
	ErrDeferred = errors.New("symcore: evaluation deferred")
	// ErrInexact is returned by Number.Pow when no exact result exists.
	ErrInexact = errors.New("symcore: no exact result")
)

type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.parent }

// ArithmeticError reports a failed numeric operation. Err is one of
// ErrArithmetic, ErrDivisionByZero or ErrDomain.
type ArithmeticError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("symcore: %s: %s", e.Op, e.Reason)
}

func (e *ArithmeticError) Unwrap() error {
	if e.Err == nil {
		return ErrArithmetic
	}
	return e.Err
}

func divByZero(op string) error {
	return &ArithmeticError{Op: op, Reason: "division by zero", Err: ErrDivisionByZero}
}

func domainError(op, reason string) error {
	return &ArithmeticError{Op: op, Reason: reason, Err: ErrDomain}
}

// MalformedError describes a tree that violates the producer contract.
type MalformedError struct {
	Node   string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Node == "" {
		return "symcore: malformed expression: " + e.Reason
	}
	return fmt.Sprintf("symcore: malformed expression at %s: %s", e.Node, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedExpression }

// NoDerivativeRuleError names a function without a derivative template.
type NoDerivativeRuleError struct {
	Func string
}

func (e *NoDerivativeRuleError) Error() string {
	return fmt.Sprintf("symcore: no derivative rule for function %q", e.Func)
}

func (e *NoDerivativeRuleError) Unwrap() error { return ErrNoDerivativeRule }
