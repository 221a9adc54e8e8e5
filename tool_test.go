package symcore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/njchilds90/symcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Tool calls
// ============================================================

func callTool(t *testing.T, tool string, args map[string]any) symcore.ToolResponse {
	t.Helper()
	return newEngine(t).HandleTool(context.Background(), symcore.ToolRequest{Tool: tool, Args: args})
}

func js(e symcore.Expr) map[string]any { return symcore.MarshalExpr(e) }

func TestHandleTool(t *testing.T) {
	n := symcore.N
	quad := symcore.AddOf(symcore.PowOf(x, n(2)), symcore.MulOf(n(-5), x), n(6))
	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"simplify", map[string]any{"expr": js(symcore.SqrtOf(n(12)))}, "2*sqrt(3)"},
		{"differentiate", map[string]any{"expr": js(symcore.PowOf(x, n(3))), "var": "x"}, "3*x^2"},
		{"differentiate", map[string]any{"expr": js(symcore.PowOf(x, n(3))), "var": "x", "n": 3}, "6"},
		{"differentiate", map[string]any{"expr": js(symcore.PowOf(x, n(3))), "var": "x", "n": "2"}, "6*x"},
		{"gradient", map[string]any{"expr": js(symcore.MulOf(x, y)), "vars": []any{"x", "y"}}, "[y, x]"},
		{"expand", map[string]any{"expr": js(symcore.PowOf(symcore.SubOf(x, n(2)), n(2)))}, "x^2 - 4*x + 4"},
		{"substitute", map[string]any{"expr": js(symcore.AddOf(symcore.PowOf(x, n(2)), n(1))), "var": "x", "value": js(n(3))}, "10"},
		{"evaluate", map[string]any{
			"expr":     js(symcore.MulOf(x, y)),
			"bindings": map[string]any{"x": js(n(2)), "y": js(n(5))},
		}, "10"},
		{"factor", map[string]any{"expr": js(quad), "var": "x"}, "[x - 3, x - 2]"},
		{"collect", map[string]any{"expr": js(symcore.AddOf(symcore.MulOf(x, y), x, symcore.PowOf(x, n(2)))), "var": "x"}, "x^2 + x*(y + 1)"},
		{"degree", map[string]any{"expr": js(quad), "var": "x"}, "2"},
		{"free_symbols", map[string]any{"expr": js(symcore.AddOf(y, symcore.SinOf(x), symcore.Pi))}, `["x","y"]`},
		{"taylor", map[string]any{"expr": js(symcore.ExpOf(x)), "var": "x", "order": 2}, "1/2*x^2 + x + 1"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			resp := callTool(t, tt.tool, tt.args)
			require.Empty(t, resp.Error)
			assert.Equal(t, tt.want, resp.Result)
		})
	}
}

func TestHandleTool_ResultCarriesJSON(t *testing.T) {
	resp := callTool(t, "simplify", map[string]any{"expr": js(symcore.SqrtOf(symcore.N(8)))})
	require.Empty(t, resp.Error)
	back, err := symcore.UnmarshalExpr(resp.JSON)
	require.NoError(t, err)
	assert.Equal(t, "2*sqrt(2)", back.String())
}

func TestHandleTool_Approximate(t *testing.T) {
	resp := callTool(t, "approximate", map[string]any{"expr": js(symcore.SqrtOf(symcore.N(2)))})
	require.Empty(t, resp.Error)
	assert.Contains(t, resp.Result, "1.41421356")
}

func TestHandleTool_Guard(t *testing.T) {
	resp := callTool(t, "simplify", map[string]any{"expr": js(symcore.PowOf(symcore.N(10), symcore.N(10000)))})
	require.Empty(t, resp.Error)
	assert.Equal(t, "10^10000", resp.Result)
	assert.Equal(t, "exponent", resp.Guard)
}

func TestHandleTool_Errors(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		kind string
	}{
		{"unknown tool", "integrate", map[string]any{"expr": js(x)}, "error"},
		{"missing expr", "simplify", map[string]any{}, "malformed"},
		{"unknown arg", "simplify", map[string]any{"expr": js(x), "bogus": 1}, "malformed"},
		{"missing var", "differentiate", map[string]any{"expr": js(x)}, "malformed"},
		{"missing vars", "gradient", map[string]any{"expr": js(x)}, "malformed"},
		{"bad expr", "simplify", map[string]any{"expr": map[string]any{"type": "nope"}}, "malformed"},
		{"division by zero", "simplify", map[string]any{"expr": js(symcore.DivOf(x, symcore.N(0)))}, "arithmetic_error"},
		{"no derivative rule", "differentiate", map[string]any{"expr": js(symcore.FuncOf("f", x)), "var": "x"}, "no_derivative_rule"},
		{"negative order", "taylor", map[string]any{"expr": js(x), "var": "x", "order": -1}, "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, tt.tool, tt.args)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Empty(t, resp.Result)
		})
	}
}

func TestToolSpec(t *testing.T) {
	var doc struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(symcore.ToolSpec()), &doc))
	require.Len(t, doc.Tools, len(symcore.ToolNames()))
	for i, name := range symcore.ToolNames() {
		assert.Equal(t, name, doc.Tools[i].Name)
		assert.Equal(t, "object", doc.Tools[i].InputSchema["type"])
	}

	resp := callTool(t, "schema", nil)
	assert.Equal(t, symcore.ToolSpec(), resp.Result)
}

func TestToolRequest_JSON(t *testing.T) {
	var req symcore.ToolRequest
	body := `{"tool":"simplify","args":{"expr":{"type":"func","name":"sqrt","args":[{"type":"num","value":"50"}]}}}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	resp := newEngine(t).HandleTool(context.Background(), req)
	require.Empty(t, resp.Error)
	assert.Equal(t, "5*sqrt(2)", resp.Result)
}
