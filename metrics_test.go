package symcore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/njchilds90/symcore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng, err := symcore.NewEngine(symcore.DefaultConfig(), symcore.WithMetrics(symcore.NewMetrics(reg)))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Simplify(ctx, symcore.SqrtOf(symcore.N(8)))
	require.NoError(t, err)
	_, err = eng.Simplify(ctx, symcore.PowOf(symcore.N(10), symcore.N(10000)))
	require.NoError(t, err)
	_, err = eng.Simplify(ctx, symcore.DivOf(x, symcore.N(0)))
	require.Error(t, err)
	_, err = eng.Differentiate(ctx, symcore.FuncOf("f", x), "x")
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"symcore_simplify_total",
		"symcore_guard_trips_total",
		"symcore_cache_lookups_total",
		"symcore_derivative_total",
		"symcore_simplify_duration_seconds",
	} {
		assert.True(t, names[want], want)
	}

	for name, want := range map[string]int{
		"symcore_guard_trips_total": 1,
		"symcore_simplify_total":    2,
		"symcore_derivative_total":  1,
	} {
		got, err := testutil.GatherAndCount(reg, name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	eng, err := symcore.NewEngine(symcore.DefaultConfig(), symcore.WithMetrics(nil))
	require.NoError(t, err)
	res := simplified(t, eng, symcore.SqrtOf(symcore.N(8)))
	assert.Equal(t, "2*sqrt(2)", res.Expr.String())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "ok", symcore.ErrorKind(nil))
	assert.Equal(t, "malformed", symcore.ErrorKind(&symcore.MalformedError{Reason: "bad"}))
	assert.Equal(t, "arithmetic_error", symcore.ErrorKind(symcore.ErrDivisionByZero))
	assert.Equal(t, "arithmetic_error", symcore.ErrorKind(symcore.ErrDomain))
	assert.Equal(t, "no_derivative_rule", symcore.ErrorKind(&symcore.NoDerivativeRuleError{Func: "f"}))
	assert.Equal(t, "error", symcore.ErrorKind(errors.New("boom")))
}
