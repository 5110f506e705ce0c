package ast

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Decode reads a YAML program document: a sequence of nodes, each a
// single-key mapping (`let: {...}`, `return: ...`) or a literal scalar.
//
// Initializers of `let` are encoded the way the source parser does it,
// as `"" = value`, so both backends see the same tree shape.
func Decode(data []byte) (Body, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return Body{}, nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return Body{}, nil
		}
		return DecodeBody(doc.Content[0])
	}
	return DecodeBody(&doc)
}

// DecodeBody decodes a sequence node into a Body
func DecodeBody(n *yaml.Node) (Body, error) {
	if n == nil {
		return Body{}, nil
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return Body{}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErr(n, "expected a sequence of expressions")
	}
	body := make(Body, 0, len(n.Content))
	for _, item := range n.Content {
		e, err := DecodeNode(item)
		if err != nil {
			return nil, err
		}
		body = append(body, e)
	}
	return body, nil
}

// DecodeNode decodes a single expression node
func DecodeNode(n *yaml.Node) (Expr, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalar(n)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, nodeErr(n, "expression mapping must have exactly one key")
		}
		return decodeTagged(n.Content[0].Value, n.Content[1])
	case yaml.AliasNode:
		return DecodeNode(n.Alias)
	default:
		return nil, nodeErr(n, "unexpected node")
	}
}

func decodeScalar(n *yaml.Node) (Expr, error) {
	switch n.Tag {
	case "!!int":
		v, err := parseInt32(n)
		if err != nil {
			return nil, err
		}
		return NewInt(v), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeErr(n, err.Error())
		}
		return NewBool(b), nil
	case "!!str":
		return Ident(n.Value), nil
	default:
		return nil, nodeErr(n, "unsupported scalar "+n.Tag)
	}
}

func decodeTagged(key string, v *yaml.Node) (Expr, error) {
	switch key {
	case "int":
		i, err := parseInt32(v)
		if err != nil {
			return nil, err
		}
		return NewInt(i), nil

	case "bool":
		var b bool
		if err := v.Decode(&b); err != nil {
			return nil, nodeErr(v, err.Error())
		}
		return NewBool(b), nil

	case "ident":
		return Ident(v.Value), nil

	case "binary", "assign":
		if v.Kind != yaml.SequenceNode || len(v.Content) != 3 {
			return nil, nodeErr(v, key+" takes [left, op, right]")
		}
		l, err := DecodeNode(v.Content[0])
		if err != nil {
			return nil, err
		}
		op, ok := ParseOp(v.Content[1].Value)
		if !ok {
			return nil, nodeErr(v.Content[1], fmt.Sprintf("unknown operator %q", v.Content[1].Value))
		}
		r, err := DecodeNode(v.Content[2])
		if err != nil {
			return nil, err
		}
		if key == "assign" {
			return &CompoundAssign{Target: l, Op: op, Value: r}, nil
		}
		return Binary(l, op, r), nil

	case "let":
		f, err := fields(v, "name", "type", "value")
		if err != nil {
			return nil, err
		}
		t, err := decodeType(f["type"])
		if err != nil {
			return nil, err
		}
		name, err := requiredName(v, f)
		if err != nil {
			return nil, err
		}
		init, err := required(v, f, "value")
		if err != nil {
			return nil, err
		}
		return &Let{Target: Ident(name), Type: t, Init: Binary(Ident(""), Assign(Set), init)}, nil

	case "if":
		f, err := fields(v, "cond", "then", "else")
		if err != nil {
			return nil, err
		}
		cond, err := required(v, f, "cond")
		if err != nil {
			return nil, err
		}
		then, err := DecodeBody(f["then"])
		if err != nil {
			return nil, err
		}
		if els, ok := f["else"]; ok {
			elseBody, err := DecodeBody(els)
			if err != nil {
				return nil, err
			}
			return &IfElse{Cond: cond, Then: then, Else: elseBody}, nil
		}
		return &If{Cond: cond, Body: then}, nil

	case "while":
		f, err := fields(v, "cond", "body")
		if err != nil {
			return nil, err
		}
		cond, err := required(v, f, "cond")
		if err != nil {
			return nil, err
		}
		body, err := DecodeBody(f["body"])
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body}, nil

	case "fn":
		f, err := fields(v, "name", "params", "returns", "body")
		if err != nil {
			return nil, err
		}
		name, err := requiredName(v, f)
		if err != nil {
			return nil, err
		}
		ret, err := decodeType(f["returns"])
		if err != nil {
			return nil, err
		}
		var params []Param
		if pn, ok := f["params"]; ok && pn.Kind == yaml.SequenceNode {
			for _, item := range pn.Content {
				pf, err := fields(item, "name", "type")
				if err != nil {
					return nil, err
				}
				pname, err := requiredName(item, pf)
				if err != nil {
					return nil, err
				}
				pt, err := decodeType(pf["type"])
				if err != nil {
					return nil, err
				}
				params = append(params, P(pname, pt))
			}
		}
		body, err := DecodeBody(f["body"])
		if err != nil {
			return nil, err
		}
		return &FnDecl{Name: Ident(name), Params: params, Returns: ret, Body: body}, nil

	case "call":
		f, err := fields(v, "name", "args")
		if err != nil {
			return nil, err
		}
		name, err := requiredName(v, f)
		if err != nil {
			return nil, err
		}
		var args []Expr
		if an, ok := f["args"]; ok {
			seq, err := DecodeBody(an)
			if err != nil {
				return nil, err
			}
			args = seq
		}
		return &FnCall{Name: Ident(name), Args: args}, nil

	case "return":
		inner, err := DecodeNode(v)
		if err != nil {
			return nil, err
		}
		return Ret(inner), nil

	default:
		return nil, nodeErr(v, fmt.Sprintf("unknown expression %q", key))
	}
}

// fields collects the keys of a mapping, rejecting anything not in allowed
func fields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeErr(n, "expected a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		known := false
		for _, a := range allowed {
			if a == k {
				known = true
				break
			}
		}
		if !known {
			return nil, nodeErr(n.Content[i], fmt.Sprintf("unknown field %q", k))
		}
		out[k] = n.Content[i+1]
	}
	if nameNode, ok := out["name"]; ok && nameNode.Kind != yaml.ScalarNode {
		return nil, nodeErr(nameNode, "name must be a scalar")
	}
	return out, nil
}

func required(parent *yaml.Node, f map[string]*yaml.Node, key string) (Expr, error) {
	n, ok := f[key]
	if !ok {
		return nil, nodeErr(parent, "missing "+key)
	}
	return DecodeNode(n)
}

func requiredName(parent *yaml.Node, f map[string]*yaml.Node) (string, error) {
	n, ok := f["name"]
	if !ok {
		return "", nodeErr(parent, "missing name")
	}
	return n.Value, nil
}

func decodeType(n *yaml.Node) (Type, error) {
	if n == nil {
		return 0, fmt.Errorf("missing type")
	}
	switch n.Value {
	case "int", "i32":
		return Int, nil
	case "bool":
		return Bool, nil
	default:
		return 0, nodeErr(n, fmt.Sprintf("unknown type %q", n.Value))
	}
}

func parseInt32(n *yaml.Node) (int32, error) {
	v, err := strconv.ParseInt(n.Value, 0, 32)
	if err != nil {
		return 0, nodeErr(n, "integer literal out of range: "+n.Value)
	}
	return int32(v), nil
}

func nodeErr(n *yaml.Node, msg string) error {
	return fmt.Errorf("line %d: %s", n.Line, msg)
}
