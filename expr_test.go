package symcore_test

import (
	"testing"

	"github.com/njchilds90/symcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	x = symcore.S("x")
	y = symcore.S("y")
)

// ============================================================
// Smart constructors
// ============================================================

func TestAddOf_FoldsLiterals(t *testing.T) {
	e := symcore.AddOf(x, symcore.N(2), symcore.N(3), x)
	assert.Equal(t, "x + x + 5", e.String())
}

func TestAddOf_ZeroCollapse(t *testing.T) {
	assert.Equal(t, "0", symcore.AddOf(symcore.N(1), symcore.N(-1)).String())
	assert.Equal(t, "x", symcore.AddOf(x, symcore.N(0)).String())
}

func TestAddOf_CanonicalOrder(t *testing.T) {
	a := symcore.AddOf(y, x)
	b := symcore.AddOf(x, y)
	assert.True(t, a.Equal(b))
	assert.Equal(t, "x + y", a.String())

	poly := symcore.AddOf(symcore.N(1), x, symcore.PowOf(x, symcore.N(2)))
	assert.Equal(t, "x^2 + x + 1", poly.String())
}

func TestAddOf_Flattens(t *testing.T) {
	nested := symcore.AddOf(symcore.AddOf(x, symcore.N(1)), symcore.AddOf(y, symcore.N(2)))
	flat := symcore.AddOf(x, y, symcore.N(3))
	assert.True(t, nested.Equal(flat))
}

func TestMulOf_CanonicalOrder(t *testing.T) {
	assert.Equal(t, "3*x*y", symcore.MulOf(y, symcore.N(3), x).String())

	e := symcore.MulOf(symcore.SinOf(x), x, symcore.Pi, symcore.SqrtOf(symcore.N(3)), symcore.N(2))
	assert.Equal(t, "2*pi*sqrt(3)*x*sin(x)", e.String())
}

func TestMulOf_ZeroAbsorbs(t *testing.T) {
	assert.Equal(t, "0", symcore.MulOf(x, symcore.N(0), y).String())
}

func TestMulOf_OneElided(t *testing.T) {
	assert.Equal(t, "x", symcore.MulOf(symcore.N(1), x).String())
	assert.Equal(t, "1", symcore.MulOf().String())
}

func TestSubOf(t *testing.T) {
	assert.Same(t, x, symcore.SubOf(x, symcore.N(0)))
	assert.Equal(t, "2", symcore.SubOf(symcore.N(5), symcore.N(3)).String())
	assert.Equal(t, "x - y", symcore.SubOf(x, y).String())
}

func TestDivOf(t *testing.T) {
	assert.Equal(t, "1/2", symcore.DivOf(symcore.N(1), symcore.N(2)).String())
	assert.Same(t, x, symcore.DivOf(x, symcore.N(1)))
	// division by a zero literal is kept for the engine to report
	assert.Equal(t, "x/0", symcore.DivOf(x, symcore.N(0)).String())
}

func TestPowOf_NoNumericFolding(t *testing.T) {
	assert.Equal(t, "2^3", symcore.PowOf(symcore.N(2), symcore.N(3)).String())
	assert.Same(t, x, symcore.PowOf(x, symcore.N(1)))
}

func TestNegOf(t *testing.T) {
	assert.Same(t, x, symcore.NegOf(symcore.NegOf(x)))
	assert.Equal(t, "-3", symcore.NegOf(symcore.N(3)).String())
	assert.Equal(t, "-x", symcore.NegOf(x).String())
}

// ============================================================
// Rendering
// ============================================================

func TestString_Precedence(t *testing.T) {
	tests := []struct {
		name string
		e    symcore.Expr
		want string
	}{
		{"difference", symcore.AddOf(x, symcore.MulOf(symcore.N(-1), y)), "x - y"},
		{"negated product", symcore.MulOf(symcore.N(-1), x), "-x"},
		{"quotient of sum", symcore.DivOf(symcore.AddOf(x, symcore.N(1)), y), "(x + 1)/y"},
		{"power of sum", symcore.PowOf(symcore.AddOf(x, symcore.N(1)), symcore.N(2)), "(x + 1)^2"},
		{"negative base", symcore.PowOf(symcore.N(-2), symcore.N(2)), "(-2)^2"},
		{"rational base", symcore.PowOf(symcore.F(1, 2), x), "(1/2)^x"},
		{"rational coefficient", symcore.MulOf(symcore.F(1, 2), symcore.SqrtOf(symcore.N(2))), "1/2*sqrt(2)"},
		{"two-argument log", symcore.FuncOf("log", x, symcore.N(2)), "log(x, 2)"},
		{"constant", symcore.MulOf(symcore.N(2), symcore.Pi), "2*pi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.String())
		})
	}
}

// ============================================================
// Structure
// ============================================================

func TestEqual(t *testing.T) {
	assert.True(t, symcore.Equal(nil, nil))
	assert.False(t, symcore.Equal(x, nil))
	assert.True(t, symcore.Equal(symcore.SinOf(x), symcore.SinOf(symcore.S("x"))))
	assert.False(t, symcore.Equal(symcore.SinOf(x), symcore.CosOf(x)))
	assert.False(t, symcore.Equal(symcore.N(2), symcore.NDecimal(2)))
}

func TestChildren_IsCopy(t *testing.T) {
	f := symcore.FuncOf("f", x, y)
	ch := f.Children()
	ch[0] = symcore.N(9)
	assert.Equal(t, "f(x, y)", f.String())
}

func TestSize(t *testing.T) {
	assert.Equal(t, 1, symcore.Size(x))
	assert.Equal(t, 5, symcore.Size(symcore.AddOf(x, symcore.MulOf(symcore.N(2), y))))
}

func TestConstOf(t *testing.T) {
	c, ok := symcore.ConstOf("pi")
	require.True(t, ok)
	assert.Same(t, symcore.Pi, c)
	_, ok = symcore.ConstOf("tau")
	assert.False(t, ok)
}

func TestHashExpr(t *testing.T) {
	a := symcore.AddOf(x, symcore.SinOf(y))
	b := symcore.AddOf(symcore.SinOf(y), x)
	assert.Equal(t, symcore.HashExpr(a), symcore.HashExpr(b))
	assert.NotEqual(t, symcore.HashExpr(a), symcore.HashExpr(symcore.AddOf(x, symcore.CosOf(y))))
	assert.NotEqual(t, symcore.HashExpr(symcore.N(2)), symcore.HashExpr(symcore.NDecimal(2)))
}

// ============================================================
// Validation
// ============================================================

func TestValidate(t *testing.T) {
	valid := []symcore.Expr{
		x,
		symcore.SinOf(x),
		symcore.FuncOf("f", x, y),
		symcore.FuncOf("log", x),
		symcore.FuncOf("log", x, symcore.N(2)),
		symcore.AddOf(symcore.Pi, symcore.E, symcore.I),
	}
	for _, e := range valid {
		assert.NoError(t, symcore.Validate(e), e.String())
	}

	invalid := []symcore.Expr{
		nil,
		symcore.S(""),
		symcore.FuncOf("sin"),
		symcore.FuncOf("sin", x, y),
		symcore.FuncOf("", x),
		symcore.FuncOf("log", x, y, symcore.N(2)),
		symcore.DivOf(x, nil),
		symcore.SinOf(symcore.S("")),
	}
	for i, e := range invalid {
		err := symcore.Validate(e)
		assert.ErrorIs(t, err, symcore.ErrMalformedExpression, "case %d", i)
	}
}

func TestValidate_ReportsNode(t *testing.T) {
	err := symcore.Validate(symcore.FuncOf("cos", x, y))
	var me *symcore.MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "cos", me.Node)
	assert.Contains(t, err.Error(), "wrong number of arguments")
}
