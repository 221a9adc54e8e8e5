package symcore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ============================================================
// Tool calls for agent integration
// ============================================================

// ToolRequest names a tool and carries its arguments. Expressions are given
// as JSON trees (see UnmarshalExpr).
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// ToolResponse is the outcome of a tool call. Error is set instead of
// returning a Go error so the response can be sent as is; Kind classifies it
// (malformed, arithmetic_error, no_derivative_rule, error).
type ToolResponse struct {
	Result string           `json:"result,omitempty"`
	JSON   map[string]any   `json:"json,omitempty"`
	List   []map[string]any `json:"list,omitempty"`
	Guard  string           `json:"guard,omitempty"`
	Error  string           `json:"error,omitempty"`
	Kind   string           `json:"kind,omitempty"`
}

type toolArgs struct {
	Expr     map[string]any            `mapstructure:"expr"`
	Var      string                    `mapstructure:"var"`
	Vars     []string                  `mapstructure:"vars"`
	Value    map[string]any            `mapstructure:"value"`
	Around   map[string]any            `mapstructure:"around"`
	Bindings map[string]map[string]any `mapstructure:"bindings"`
	Order    int                       `mapstructure:"order"`
	N        int                       `mapstructure:"n"`
	Prec     uint                      `mapstructure:"prec"`
}

func decodeToolArgs(raw map[string]any) (toolArgs, error) {
	args := toolArgs{Order: 3, N: 1}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &args,
	})
	if err != nil {
		return toolArgs{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return toolArgs{}, &MalformedError{Node: "args", Reason: err.Error()}
	}
	return args, nil
}

func (a toolArgs) expr(field string, m map[string]any) (Expr, error) {
	if m == nil {
		return nil, &MalformedError{Node: "args", Reason: "missing " + field}
	}
	e, err := UnmarshalExpr(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return e, nil
}

func (a toolArgs) variable() (string, error) {
	if a.Var == "" {
		return "", &MalformedError{Node: "args", Reason: "missing var"}
	}
	return a.Var, nil
}

func errorResponse(err error) ToolResponse {
	return ToolResponse{Error: err.Error(), Kind: ErrorKind(err)}
}

func exprResponse(e Expr, g Guard) ToolResponse {
	resp := ToolResponse{Result: e.String(), JSON: MarshalExpr(e)}
	if g != GuardNone {
		resp.Guard = g.String()
	}
	return resp
}

func listResponse(es []Expr) ToolResponse {
	parts := make([]string, len(es))
	list := make([]map[string]any, len(es))
	for i, e := range es {
		parts[i] = e.String()
		list[i] = MarshalExpr(e)
	}
	return ToolResponse{Result: "[" + strings.Join(parts, ", ") + "]", List: list}
}

// HandleTool dispatches a tool call against the engine.
func (eng *Engine) HandleTool(ctx context.Context, req ToolRequest) ToolResponse {
	resp, err := eng.handleTool(ctx, req)
	if err != nil {
		eng.logger.Debug("tool call failed", "tool", req.Tool, "err", err)
		return errorResponse(err)
	}
	return resp
}

func (eng *Engine) handleTool(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	if req.Tool == "schema" {
		return ToolResponse{Result: ToolSpec()}, nil
	}
	if !knownTool(req.Tool) {
		return ToolResponse{}, fmt.Errorf("symcore: unknown tool %q", req.Tool)
	}
	args, err := decodeToolArgs(req.Args)
	if err != nil {
		return ToolResponse{}, err
	}
	e, err := args.expr("expr", args.Expr)
	if err != nil {
		return ToolResponse{}, err
	}

	switch req.Tool {
	case "simplify":
		res, err := eng.Simplify(ctx, e)
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(res.Expr, res.Guard), nil

	case "approximate":
		v, err := Approximate(e, args.Prec)
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(v, GuardNone), nil

	case "differentiate":
		v, err := args.variable()
		if err != nil {
			return ToolResponse{}, err
		}
		res, err := eng.DiffN(ctx, e, v, args.N)
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(res.Expr, res.Guard), nil

	case "gradient":
		if len(args.Vars) == 0 {
			return ToolResponse{}, &MalformedError{Node: "args", Reason: "missing vars"}
		}
		grad, err := eng.Gradient(ctx, e, args.Vars)
		if err != nil {
			return ToolResponse{}, err
		}
		return listResponse(grad), nil

	case "expand":
		res, err := eng.Simplify(ctx, Expand(e))
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(res.Expr, res.Guard), nil

	case "substitute":
		v, err := args.variable()
		if err != nil {
			return ToolResponse{}, err
		}
		value, err := args.expr("value", args.Value)
		if err != nil {
			return ToolResponse{}, err
		}
		res, err := eng.Simplify(ctx, Substitute(e, v, value))
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(res.Expr, res.Guard), nil

	case "evaluate":
		bindings := make(map[string]Expr, len(args.Bindings))
		for name, m := range args.Bindings {
			b, err := args.expr("bindings."+name, m)
			if err != nil {
				return ToolResponse{}, err
			}
			bindings[name] = b
		}
		res, err := eng.Evaluate(ctx, e, bindings)
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(res.Expr, res.Guard), nil

	case "factor":
		v, err := args.variable()
		if err != nil {
			return ToolResponse{}, err
		}
		res, err := eng.Simplify(ctx, e)
		if err != nil {
			return ToolResponse{}, err
		}
		return listResponse(Factor(res.Expr, v).Factors), nil

	case "collect":
		v, err := args.variable()
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(Collect(e, v), GuardNone), nil

	case "degree":
		v, err := args.variable()
		if err != nil {
			return ToolResponse{}, err
		}
		return ToolResponse{Result: strconv.Itoa(Degree(e, v))}, nil

	case "free_symbols":
		b, err := json.Marshal(SortedSymbols(e))
		if err != nil {
			return ToolResponse{}, err
		}
		return ToolResponse{Result: string(b)}, nil

	case "taylor":
		v, err := args.variable()
		if err != nil {
			return ToolResponse{}, err
		}
		var around Expr = N(0)
		if args.Around != nil {
			if around, err = args.expr("around", args.Around); err != nil {
				return ToolResponse{}, err
			}
		}
		res, err := eng.TaylorSeries(ctx, e, v, around, args.Order)
		if err != nil {
			return ToolResponse{}, err
		}
		return exprResponse(res.Expr, res.Guard), nil
	}
	return ToolResponse{}, fmt.Errorf("symcore: unknown tool %q", req.Tool)
}

// ============================================================
// Tool schema
// ============================================================

// ToolDef describes one tool: its parameters map names to JSON schema types
// (object, string, integer, array).
type ToolDef struct {
	Name        string
	Description string
	Required    []string
	Params      map[string]string
}

var toolDefs = []ToolDef{
	{"simplify", "Normalize an expression exactly", []string{"expr"}, map[string]string{"expr": "object"}},
	{"approximate", "Evaluate to decimals. Optional prec (bits)", []string{"expr"}, map[string]string{"expr": "object", "prec": "integer"}},
	{"differentiate", "Derivative in var. Optional n for higher orders", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string", "n": "integer"}},
	{"gradient", "Partial derivatives in vars (string[])", []string{"expr", "vars"}, map[string]string{"expr": "object", "vars": "array"}},
	{"expand", "Distribute products and small powers of sums", []string{"expr"}, map[string]string{"expr": "object"}},
	{"substitute", "Replace var with value and normalize", []string{"expr", "var", "value"}, map[string]string{"expr": "object", "var": "string", "value": "object"}},
	{"evaluate", "Substitute bindings {name: expr} and normalize", []string{"expr", "bindings"}, map[string]string{"expr": "object", "bindings": "object"}},
	{"factor", "Factor a polynomial in var", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string"}},
	{"collect", "Collect terms by powers of var", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string"}},
	{"degree", "Polynomial degree in var", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string"}},
	{"free_symbols", "Free symbol names", []string{"expr"}, map[string]string{"expr": "object"}},
	{"taylor", "Taylor series around a point (default 0). Optional order (default 3)", []string{"expr", "var"}, map[string]string{"expr": "object", "var": "string", "around": "object", "order": "integer"}},
}

// ToolDefs returns the tool descriptions in a stable order.
func ToolDefs() []ToolDef { return append([]ToolDef(nil), toolDefs...) }

func knownTool(name string) bool {
	for _, d := range toolDefs {
		if d.Name == name {
			return true
		}
	}
	return false
}

// ToolNames lists the tools in a stable order.
func ToolNames() []string {
	out := make([]string, len(toolDefs))
	for i, d := range toolDefs {
		out[i] = d.Name
	}
	return out
}

// ToolSchemas returns one JSON schema object per tool.
func ToolSchemas() []map[string]any {
	out := make([]map[string]any, len(toolDefs))
	for i, d := range toolDefs {
		out[i] = ts(d.Name, d.Description, d.Required, d.Params)
	}
	return out
}

// ToolSpec renders the tool schemas as indented JSON.
func ToolSpec() string {
	b, _ := json.MarshalIndent(map[string]any{"tools": ToolSchemas()}, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]any {
	properties := map[string]any{}
	for k, typ := range props {
		properties[k] = map[string]any{"type": typ}
	}
	return map[string]any{
		"name":        name,
		"description": description,
		"inputSchema": map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
