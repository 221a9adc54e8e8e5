package symcore_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/njchilds90/symcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Number construction and parsing
// ============================================================

func TestRat_LowestTerms(t *testing.T) {
	n, err := symcore.Rat(6, -8)
	require.NoError(t, err)
	assert.Equal(t, symcore.KindRational, n.Kind())
	assert.Equal(t, "-3/4", n.String())
}

func TestRat_IntegerValued(t *testing.T) {
	n, err := symcore.Rat(8, 4)
	require.NoError(t, err)
	assert.Equal(t, symcore.KindInteger, n.Kind())
	assert.Equal(t, "2", n.String())
}

func TestRat_ZeroDenominator(t *testing.T) {
	_, err := symcore.Rat(1, 0)
	assert.ErrorIs(t, err, symcore.ErrDivisionByZero)
	assert.ErrorIs(t, err, symcore.ErrArithmetic)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		kind symcore.NumberKind
		want string
	}{
		{"42", symcore.KindInteger, "42"},
		{"-12", symcore.KindInteger, "-12"},
		{"3/4", symcore.KindRational, "3/4"},
		{"10/5", symcore.KindInteger, "2"},
		{"1.25", symcore.KindDecimal, "1.25"},
		{"2.0", symcore.KindDecimal, "2.0"},
		{"2i", symcore.KindComplex, "2i"},
		{"1+2i", symcore.KindComplex, "1+2i"},
		{"3-i", symcore.KindComplex, "3-1i"},
		{"123456789012345678901234567890", symcore.KindInteger, "123456789012345678901234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := symcore.ParseNumber(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, n.Kind())
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParseNumber_Precision(t *testing.T) {
	n, err := symcore.ParseNumber("1.5@128")
	require.NoError(t, err)
	assert.Equal(t, uint(128), n.Precision())
	assert.False(t, n.IsExact())
}

func TestParseNumber_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1/x", "1.5@0", "1.5@x"} {
		_, err := symcore.ParseNumber(in)
		assert.Error(t, err, in)
	}
}

func TestComplex_ZeroImaginaryCollapses(t *testing.T) {
	n, err := symcore.Complex(symcore.Int(3), symcore.Int(0))
	require.NoError(t, err)
	assert.Equal(t, symcore.KindInteger, n.Kind())
}

// ============================================================
// Arithmetic
// ============================================================

func TestNumber_ExactArithmetic(t *testing.T) {
	half, _ := symcore.Rat(1, 2)
	third, _ := symcore.Rat(1, 3)

	sum, err := half.Add(third)
	require.NoError(t, err)
	assert.Equal(t, "5/6", sum.String())

	prod, err := half.Mul(symcore.Int(4))
	require.NoError(t, err)
	assert.Equal(t, symcore.KindInteger, prod.Kind())
	assert.Equal(t, "2", prod.String())

	q, err := symcore.Int(7).Div(symcore.Int(7))
	require.NoError(t, err)
	assert.True(t, q.IsOne())
}

func TestNumber_DivideByZero(t *testing.T) {
	_, err := symcore.Int(1).Div(symcore.Int(0))
	assert.ErrorIs(t, err, symcore.ErrDivisionByZero)

	var ae *symcore.ArithmeticError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "div", ae.Op)
}

func TestNumber_DecimalContaminates(t *testing.T) {
	sum, err := symcore.Int(1).Add(symcore.DecimalFromFloat64(0.5))
	require.NoError(t, err)
	assert.Equal(t, symcore.KindDecimal, sum.Kind())
	assert.InDelta(t, 1.5, sum.Float64(), 1e-12)
}

func TestNumber_ComplexArithmetic(t *testing.T) {
	a, _ := symcore.ParseNumber("1+2i")
	b, _ := symcore.ParseNumber("3-i")

	prod, err := a.Mul(b)
	require.NoError(t, err)
	assert.Equal(t, "5+5i", prod.String())

	i, _ := symcore.ParseNumber("i")
	sq, err := i.Mul(i)
	require.NoError(t, err)
	assert.Equal(t, symcore.KindInteger, sq.Kind())
	assert.True(t, sq.IsMinusOne())
}

func TestNumber_Cmp(t *testing.T) {
	third, _ := symcore.Rat(1, 3)
	assert.Equal(t, -1, third.Cmp(symcore.DecimalFromFloat64(0.5)))
	assert.Equal(t, 1, symcore.Int(2).Cmp(third))
	assert.Equal(t, 0, symcore.Int(2).Cmp(symcore.Int(2)))
	assert.True(t, symcore.Int(2).Equal(symcore.Int(2)))
	assert.False(t, symcore.Int(2).Equal(symcore.DecimalFromFloat64(2)))
}

// ============================================================
// Powers and roots
// ============================================================

func TestNumber_Pow(t *testing.T) {
	lim := symcore.DefaultLimits()
	tests := []struct {
		base, exp string
		want      string
	}{
		{"2", "10", "1024"},
		{"2", "-2", "1/4"},
		{"2/3", "3", "8/27"},
		{"4", "1/2", "2"},
		{"8", "2/3", "4"},
		{"-8", "1/3", "-2"},
		{"-1", "1000001", "-1"},
		{"1", "100000000000", "1"},
		{"i", "2", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.base+"^"+tt.exp, func(t *testing.T) {
			b, _ := symcore.ParseNumber(tt.base)
			e, _ := symcore.ParseNumber(tt.exp)
			got, err := b.Pow(e, lim)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNumber_PowDeferred(t *testing.T) {
	_, err := symcore.Int(10).Pow(symcore.Int(10000), symcore.DefaultLimits())
	assert.ErrorIs(t, err, symcore.ErrDeferred)

	lim := symcore.DefaultLimits()
	lim.MaxResultBits = 64
	_, err = symcore.Int(3).Pow(symcore.Int(100), lim)
	assert.ErrorIs(t, err, symcore.ErrDeferred)

	// decimal exponents are held to the same ceiling
	_, err = symcore.Int(2).Pow(symcore.DecimalFromFloat64(10000), symcore.DefaultLimits())
	assert.ErrorIs(t, err, symcore.ErrDeferred)
	_, err = symcore.DecimalFromFloat64(2).Pow(symcore.DecimalFromFloat64(-5000.5), symcore.DefaultLimits())
	assert.ErrorIs(t, err, symcore.ErrDeferred)

	// under the ceiling but past float64 range
	_, err = symcore.DecimalFromFloat64(10).Pow(symcore.DecimalFromFloat64(999), symcore.DefaultLimits())
	assert.ErrorIs(t, err, symcore.ErrDeferred)

	v, err := symcore.DecimalFromFloat64(2).Pow(symcore.DecimalFromFloat64(10), symcore.DefaultLimits())
	require.NoError(t, err)
	assert.InDelta(t, 1024.0, v.Float64(), 1e-9)
}

func TestNumber_PowInexact(t *testing.T) {
	half, _ := symcore.Rat(1, 2)
	_, err := symcore.Int(2).Pow(half, symcore.DefaultLimits())
	assert.ErrorIs(t, err, symcore.ErrInexact)
}

func TestNumber_PowZero(t *testing.T) {
	_, err := symcore.Int(0).Pow(symcore.Int(-1), symcore.DefaultLimits())
	assert.ErrorIs(t, err, symcore.ErrDivisionByZero)

	_, err = symcore.Int(0).Pow(symcore.Int(0), symcore.DefaultLimits())
	assert.ErrorIs(t, err, symcore.ErrDomain)
}

func TestRoot(t *testing.T) {
	r, ok := symcore.Root(symcore.Int(27), 3)
	require.True(t, ok)
	assert.Equal(t, "3", r.String())

	q, _ := symcore.Rat(4, 9)
	r, ok = symcore.Root(q, 2)
	require.True(t, ok)
	assert.Equal(t, "2/3", r.String())

	_, ok = symcore.Root(symcore.Int(2), 2)
	assert.False(t, ok)
	_, ok = symcore.Root(symcore.Int(-4), 2)
	assert.False(t, ok)
}

func TestSquarefree(t *testing.T) {
	tests := []struct {
		n            int64
		square, rest int64
	}{
		{8, 2, 2},
		{12, 2, 3},
		{72, 6, 2},
		{7, 1, 7},
		{1, 1, 1},
		{49, 7, 1},
	}
	for _, tt := range tests {
		square, rest := symcore.Squarefree(big.NewInt(tt.n))
		assert.Equal(t, tt.square, square.Int64(), "square part of %d", tt.n)
		assert.Equal(t, tt.rest, rest.Int64(), "rest of %d", tt.n)
	}
}

func TestSquarefree_LargePrimeSquare(t *testing.T) {
	// 1000003 is prime and above the trial division limit
	p := big.NewInt(1000003)
	n := new(big.Int).Mul(p, p)
	n.Mul(n, big.NewInt(5))
	square, rest := symcore.Squarefree(n)
	assert.Equal(t, p.String(), square.String())
	assert.Equal(t, "5", rest.String())
}
