package symcore_test

import (
	"context"
	"testing"

	"github.com/njchilds90/symcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Differentiation
// ============================================================

func TestDifferentiate(t *testing.T) {
	n := symcore.N
	tests := []struct {
		name string
		in   symcore.Expr
		want string
	}{
		{"constant", n(5), "0"},
		{"self", x, "1"},
		{"other symbol", y, "0"},
		{"polynomial", symcore.AddOf(symcore.PowOf(x, n(3)), symcore.MulOf(n(2), symcore.PowOf(x, n(2))), x), "3*x^2 + 4*x + 1"},
		{"product", symcore.MulOf(x, y), "y"},
		{"chain rule", symcore.SinOf(symcore.PowOf(x, n(2))), "2*x*cos(x^2)"},
		{"sin", symcore.SinOf(x), "cos(x)"},
		{"cos", symcore.CosOf(x), "-sin(x)"},
		{"exp", symcore.ExpOf(x), "exp(x)"},
		{"exp chain", symcore.ExpOf(symcore.MulOf(n(3), x)), "3*exp(3*x)"},
		{"ln", symcore.LnOf(x), "1/x"},
		{"constant subtree", symcore.MulOf(symcore.SinOf(y), x), "sin(y)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := symcore.Differentiate(tt.in, "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEngine_Differentiate(t *testing.T) {
	eng := newEngine(t)
	e := symcore.AddOf(symcore.PowOf(x, symcore.N(3)), symcore.MulOf(symcore.N(2), symcore.PowOf(x, symcore.N(2))), x)
	res, err := eng.Differentiate(context.Background(), e, "x")
	require.NoError(t, err)
	assert.Equal(t, "3*x^2 + 4*x + 1", res.Expr.String())
	assert.False(t, res.Tripped())
}

func TestDifferentiate_UnknownFunction(t *testing.T) {
	_, err := symcore.Differentiate(symcore.FuncOf("f", x), "x")
	assert.ErrorIs(t, err, symcore.ErrNoDerivativeRule)

	var nd *symcore.NoDerivativeRuleError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, "f", nd.Func)
}

func TestDifferentiate_UnknownFunctionOfOtherVariable(t *testing.T) {
	got, err := symcore.Differentiate(symcore.MulOf(symcore.FuncOf("f", y), x), "x")
	require.NoError(t, err)
	assert.Equal(t, "f(y)", got.String())
}

func TestDifferentiate_Malformed(t *testing.T) {
	_, err := symcore.Differentiate(symcore.SinOf(symcore.S("")), "x")
	assert.ErrorIs(t, err, symcore.ErrMalformedExpression)

	_, err = symcore.Differentiate(x, "")
	assert.ErrorIs(t, err, symcore.ErrMalformedExpression)
}

func TestDifferentiate_ArithmeticErrorInResult(t *testing.T) {
	_, err := symcore.Differentiate(symcore.DivOf(x, symcore.N(0)), "x")
	assert.ErrorIs(t, err, symcore.ErrDivisionByZero)
}

func TestDiffN(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	res, err := eng.DiffN(ctx, symcore.PowOf(x, symcore.N(4)), "x", 4)
	require.NoError(t, err)
	assert.Equal(t, "24", res.Expr.String())

	res, err = eng.DiffN(ctx, symcore.SinOf(x), "x", 2)
	require.NoError(t, err)
	assert.Equal(t, "-sin(x)", res.Expr.String())

	res, err = eng.DiffN(ctx, symcore.SqrtOf(symcore.N(8)), "x", 0)
	require.NoError(t, err)
	assert.Equal(t, "2*sqrt(2)", res.Expr.String())

	_, err = eng.DiffN(ctx, x, "x", -1)
	assert.ErrorIs(t, err, symcore.ErrMalformedExpression)
}

func TestGradient(t *testing.T) {
	eng := newEngine(t)
	e := symcore.AddOf(symcore.MulOf(x, y), symcore.PowOf(y, symcore.N(2)))
	grad, err := eng.Gradient(context.Background(), e, []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, grad, 2)
	assert.Equal(t, "y", grad[0].String())
	assert.Equal(t, "x + 2*y", grad[1].String())
}

func TestGradient_PropagatesErrors(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.Gradient(context.Background(), symcore.FuncOf("g", x), []string{"x"})
	assert.ErrorIs(t, err, symcore.ErrNoDerivativeRule)
	assert.Contains(t, err.Error(), "d/dx")
}
