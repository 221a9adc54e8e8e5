package symcore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ============================================================
// JSON Serialization
// ============================================================

func (n *Num) toJSON() map[string]any {
	v := n.val.String()
	if n.val.kind == KindDecimal {
		v += "@" + strconv.FormatUint(uint64(n.val.Precision()), 10)
	}
	return map[string]any{"type": "num", "value": v}
}

func (s *Sym) toJSON() map[string]any   { return map[string]any{"type": "sym", "name": s.name} }
func (c *Const) toJSON() map[string]any { return map[string]any{"type": "const", "name": c.name} }
func (u *Unary) toJSON() map[string]any { return map[string]any{"type": u.op.String(), "arg": u.arg.toJSON()} }

func (b *Binary) toJSON() map[string]any {
	return map[string]any{"type": b.op.String(), "left": b.left.toJSON(), "right": b.right.toJSON()}
}

func (f *Func) toJSON() map[string]any {
	args := make([]any, len(f.args))
	for i, a := range f.args {
		args[i] = a.toJSON()
	}
	return map[string]any{"type": "func", "name": f.name, "args": args}
}

// MarshalExpr returns the generic JSON tree of e.
func MarshalExpr(e Expr) map[string]any { return e.toJSON() }

func ToJSON(e Expr) ([]byte, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	return json.Marshal(e.toJSON())
}

// FromJSON decodes a JSON expression tree. Numbers may be given as strings
// ("3/4", "2.5@128", "1+2i") or as plain JSON numbers.
func FromJSON(data []byte) (Expr, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedError{Reason: "invalid JSON: " + err.Error()}
	}
	return UnmarshalExpr(raw)
}

var binaryTags = map[string]Op{
	"add": OpAdd,
	"sub": OpSub,
	"mul": OpMul,
	"div": OpDiv,
	"pow": OpPow,
}

// UnmarshalExpr builds an expression from its generic JSON tree. Nodes are
// created through the smart constructors.
func UnmarshalExpr(data map[string]any) (Expr, error) {
	if data == nil {
		return nil, &MalformedError{Reason: "expression must be an object"}
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, &MalformedError{Reason: "field \"type\" must be a non-empty string"}
	}
	malformed := func(format string, args ...any) error {
		return &MalformedError{Node: typ, Reason: fmt.Sprintf(format, args...)}
	}

	subExpr := func(field string) (Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, malformed("missing %q", field)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, malformed("%q must be an object", field)
		}
		e, err := UnmarshalExpr(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	subString := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", malformed("%q must be a non-empty string", field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		v, err := numberField(data["value"])
		if err != nil {
			return nil, malformed("%v", err)
		}
		return NNumber(v), nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "const":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		c, ok := ConstOf(name)
		if !ok {
			return nil, malformed("unknown constant %q", name)
		}
		return c, nil

	case "neg":
		arg, err := subExpr("arg")
		if err != nil {
			return nil, err
		}
		return NegOf(arg), nil

	case "add", "sub", "mul", "div", "pow":
		left, err := subExpr("left")
		if err != nil {
			return nil, err
		}
		right, err := subExpr("right")
		if err != nil {
			return nil, err
		}
		return binaryOf(binaryTags[typ], left, right), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		raw, ok := data["args"].([]any)
		if !ok {
			return nil, malformed("%q must be an array", "args")
		}
		args := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, malformed("args[%d] must be an object", i)
			}
			a, err := UnmarshalExpr(m)
			if err != nil {
				return nil, fmt.Errorf("func %s: args[%d]: %w", name, i, err)
			}
			args[i] = a
		}
		f := FuncOf(name, args...)
		if err := Validate(f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, &MalformedError{Node: typ, Reason: "unknown expression type"}
}

func numberField(v any) (Number, error) {
	switch x := v.(type) {
	case string:
		return ParseNumber(x)
	case json.Number:
		return ParseNumber(x.String())
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return Int(int64(x)), nil
		}
		return DecimalFromFloat64(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case nil:
		return Number{}, fmt.Errorf("missing %q", "value")
	}
	return Number{}, fmt.Errorf("unsupported value type %T", v)
}
