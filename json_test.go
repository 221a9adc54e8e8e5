package symcore_test

import (
	"testing"

	"github.com/njchilds90/symcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// JSON Serialization
// ============================================================

func TestToJSON(t *testing.T) {
	data, err := symcore.ToJSON(symcore.SqrtOf(symcore.N(8)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"func","name":"sqrt","args":[{"type":"num","value":"8"}]}`, string(data))

	data, err = symcore.ToJSON(symcore.SubOf(x, symcore.Pi))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sub","left":{"type":"sym","name":"x"},"right":{"type":"const","name":"pi"}}`, string(data))
}

func TestToJSON_RejectsMalformed(t *testing.T) {
	_, err := symcore.ToJSON(symcore.SinOf(symcore.S("")))
	assert.ErrorIs(t, err, symcore.ErrMalformedExpression)
}

func TestJSON_RoundTrip(t *testing.T) {
	complexNum, err := symcore.ParseNumber("1+2i")
	require.NoError(t, err)
	exprs := []symcore.Expr{
		x,
		symcore.F(-3, 4),
		symcore.NDecimal(1.5),
		symcore.NNumber(complexNum),
		symcore.NegOf(x),
		symcore.SubOf(x, y),
		symcore.DivOf(symcore.SinOf(x), symcore.AddOf(y, symcore.N(1))),
		symcore.PowOf(symcore.E, symcore.MulOf(symcore.I, symcore.Pi)),
		symcore.FuncOf("log", x, symcore.N(2)),
		symcore.FuncOf("f", x, y, symcore.N(3)),
		symcore.AddOf(symcore.MulOf(symcore.N(3), symcore.PowOf(x, symcore.N(2))), symcore.MulOf(symcore.N(-2), x), symcore.N(7)),
	}
	for _, e := range exprs {
		t.Run(e.String(), func(t *testing.T) {
			data, err := symcore.ToJSON(e)
			require.NoError(t, err)
			back, err := symcore.FromJSON(data)
			require.NoError(t, err)
			assert.True(t, e.Equal(back), "got %s", back)
		})
	}
}

func TestFromJSON_PlainNumbers(t *testing.T) {
	e, err := symcore.FromJSON([]byte(`{"type":"add","left":{"type":"num","value":3},"right":{"type":"num","value":2.5}}`))
	require.NoError(t, err)
	assert.Equal(t, "5.5", e.String())

	e, err = symcore.FromJSON([]byte(`{"type":"num","value":"3/6"}`))
	require.NoError(t, err)
	assert.Equal(t, "1/2", e.String())
}

func TestUnmarshalExpr(t *testing.T) {
	e, err := symcore.UnmarshalExpr(map[string]any{
		"type": "mul",
		"left": map[string]any{"type": "num", "value": 2},
		"right": map[string]any{
			"type": "func", "name": "cos",
			"args": []any{map[string]any{"type": "sym", "name": "t"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2*cos(t)", e.String())
}

func TestFromJSON_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid json":     `{"type":`,
		"not an object":    `[1, 2]`,
		"missing type":     `{"name":"x"}`,
		"unknown type":     `{"type":"integral"}`,
		"missing operand":  `{"type":"add","left":{"type":"sym","name":"x"}}`,
		"operand type":     `{"type":"add","left":{"type":"sym","name":"x"},"right":"y"}`,
		"empty symbol":     `{"type":"sym","name":""}`,
		"unknown constant": `{"type":"const","name":"tau"}`,
		"bad number":       `{"type":"num","value":"1/0x"}`,
		"missing value":    `{"type":"num"}`,
		"arity":            `{"type":"func","name":"sin","args":[]}`,
		"args not array":   `{"type":"func","name":"sin","args":{}}`,
		"nested error":     `{"type":"neg","arg":{"type":"func","name":"cos","args":[{"type":"oops"}]}}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := symcore.FromJSON([]byte(in))
			assert.ErrorIs(t, err, symcore.ErrMalformedExpression)
		})
	}
}
