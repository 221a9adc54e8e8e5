package symcore_test

import (
	"context"
	"testing"

	"github.com/njchilds90/symcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyAll_KeepsOrder(t *testing.T) {
	eng := newEngine(t)
	in := []symcore.Expr{
		symcore.SqrtOf(symcore.N(8)),
		symcore.AddOf(x, x),
		symcore.SinOf(symcore.N(0)),
	}
	res, err := eng.SimplifyAll(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "2*sqrt(2)", res[0].Expr.String())
	assert.Equal(t, "2*x", res[1].Expr.String())
	assert.Equal(t, "0", res[2].Expr.String())
}

func TestSimplifyAll_SingleWorker(t *testing.T) {
	eng := newEngine(t, func(c *symcore.Config) { c.Workers = 1 })
	in := make([]symcore.Expr, 50)
	for i := range in {
		in[i] = symcore.MulOf(symcore.N(int64(i)), symcore.N(2))
	}
	res, err := eng.SimplifyAll(context.Background(), in)
	require.NoError(t, err)
	for i, r := range res {
		assert.Equal(t, symcore.N(int64(2*i)).String(), r.Expr.String())
	}
}

func TestSimplifyAll_Error(t *testing.T) {
	in := []symcore.Expr{x, symcore.DivOf(x, symcore.N(0))}
	_, err := newEngine(t).SimplifyAll(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, symcore.ErrDivisionByZero)
	assert.Contains(t, err.Error(), "expression 1")
}

func TestSimplifyAll_Empty(t *testing.T) {
	res, err := newEngine(t).SimplifyAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}
