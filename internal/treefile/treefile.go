// Package treefile reads and writes expression trees as YAML documents.
//
// Each node is a mapping with a kind and the fields of that kind:
//
//	kind: call
//	type: unit
//	fn: {kind: var, name: feed}
//	args:
//	  - kind: const
//	    type: Animal
//	    value: rex
//	    value_type: Dog   # runtime type of the value, defaults to type
//	  - kind: const
//	    type: Box<int>    # no value: the literal is absent
//
// YAML aliases are rejected. Node types are value types: a spelling that
// would name an open definition, such as Pair<'A, 'B>, reads as the
// definition applied to its own parameters.
package treefile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"martianoff/relit/internal/expr"
	"martianoff/relit/internal/types"
	"martianoff/relit/relerr"
)

// Kind names used in documents.
const (
	KindConst  = "const"
	KindVar    = "var"
	KindCall   = "call"
	KindMember = "member"
	KindLambda = "lambda"
	KindLet    = "let"
	KindIf     = "if"
)

var allowedKeys = map[string][]string{
	KindConst:  {"type", "value", "value_type"},
	KindVar:    {"name", "type"},
	KindCall:   {"fn", "args", "type"},
	KindMember: {"target", "name", "type"},
	KindLambda: {"params", "body", "type"},
	KindLet:    {"name", "value", "body"},
	KindIf:     {"cond", "then", "else"},
}

// Decode parses a YAML tree document. Type expressions are resolved in u.
// All invalid nodes are reported, collected in a relerr.MultiError.
func Decode(data []byte, u *types.Universe) (expr.Node, error) {
	return decode(data, u, "")
}

// DecodeFile reads and decodes the tree document at path.
func DecodeFile(path string, u *types.Universe) (expr.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree: %w", err)
	}
	return decode(data, u, path)
}

func decode(data []byte, u *types.Universe, path string) (expr.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, relerr.NewSyntaxErrorInFile(path, 1, 1, "empty tree document")
	}

	d := &decoder{universe: u, path: path}
	d.rejectAliases(doc.Content[0])
	if err := d.errs.ErrOrNil(); err != nil {
		return nil, err
	}
	root := d.node(doc.Content[0])
	if err := d.errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return root, nil
}

type decoder struct {
	universe *types.Universe
	path     string
	errs     relerr.MultiError
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) {
	d.errorAt(n.Line, n.Column, format, args...)
}

func (d *decoder) errorAt(line, column int, format string, args ...any) {
	d.errs.Errors = append(d.errs.Errors, relerr.NewSyntaxErrorInFile(d.path, line, column, fmt.Sprintf(format, args...)))
}

type fields struct {
	owner  *yaml.Node
	values map[string]*yaml.Node
}

func (f fields) get(key string) *yaml.Node {
	return f.values[key]
}

// rejectAliases reports every alias node. Anchored subtrees are never
// expanded.
func (d *decoder) rejectAliases(n *yaml.Node) {
	if n.Kind == yaml.AliasNode {
		d.errorf(n, "aliases are not supported")
		return
	}
	for _, c := range n.Content {
		d.rejectAliases(c)
	}
}

func (d *decoder) mapping(n *yaml.Node) (fields, bool) {
	if n.Kind != yaml.MappingNode {
		d.errorf(n, "expected a mapping for an expression node")
		return fields{}, false
	}
	f := fields{owner: n, values: make(map[string]*yaml.Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if _, dup := f.values[key.Value]; dup {
			d.errorf(key, "duplicate key %q", key.Value)
			continue
		}
		f.values[key.Value] = value
	}
	return f, true
}

func (d *decoder) node(n *yaml.Node) expr.Node {
	f, ok := d.mapping(n)
	if !ok {
		return nil
	}

	kindNode := f.get("kind")
	if kindNode == nil {
		d.errorf(f.owner, "missing kind")
		return nil
	}
	kind := kindNode.Value
	allowed, known := allowedKeys[kind]
	if !known {
		d.errorf(kindNode, "unknown kind %q", kind)
		return nil
	}
	d.checkKeys(f, kind, allowed)

	switch kind {
	case KindConst:
		decl := d.typ(f, "type", true)
		var value expr.Value
		if v := f.get("value"); v != nil && !isNull(v) {
			if v.Kind != yaml.ScalarNode {
				d.errorf(v, "const value must be a scalar")
				return nil
			}
			runtime := decl
			if vt := f.get("value_type"); vt != nil {
				runtime = d.typ(f, "value_type", true)
			}
			value = expr.Scalar{Of: runtime, Text: v.Value}
		}
		return &expr.Const{Value: value, Decl: decl}

	case KindVar:
		return &expr.Var{Name: d.name(f), Decl: d.typ(f, "type", false)}

	case KindCall:
		fn := d.child(f, "fn")
		var args []expr.Node
		if a := f.get("args"); a != nil {
			args = d.list(a)
		}
		return &expr.Call{Fn: fn, Args: args, Decl: d.typ(f, "type", false)}

	case KindMember:
		return &expr.Member{Target: d.child(f, "target"), Name: d.name(f), Decl: d.typ(f, "type", false)}

	case KindLambda:
		var params []*expr.Var
		if p := f.get("params"); p != nil {
			for i, item := range d.list(p) {
				v, ok := item.(*expr.Var)
				if !ok {
					if item != nil {
						d.errorf(p.Content[i], "lambda parameter must be a var, got %s", kindOf(item))
					}
					continue
				}
				params = append(params, v)
			}
		}
		return &expr.Lambda{Params: params, Body: d.child(f, "body"), Decl: d.typ(f, "type", false)}

	case KindLet:
		return &expr.Let{Name: d.name(f), Value: d.child(f, "value"), Body: d.child(f, "body")}

	case KindIf:
		return &expr.If{Cond: d.child(f, "cond"), Then: d.child(f, "then"), Else: d.child(f, "else")}
	}
	return nil
}

func (d *decoder) checkKeys(f fields, kind string, allowed []string) {
	ok := map[string]bool{"kind": true}
	for _, k := range allowed {
		ok[k] = true
	}
	var unknown []string
	for k := range f.values {
		if !ok[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		d.errorf(f.get(k), "unknown key %q for %s", k, kind)
	}
}

func (d *decoder) child(f fields, key string) expr.Node {
	n := f.get(key)
	if n == nil {
		d.errorf(f.owner, "missing %s", key)
		return nil
	}
	return d.node(n)
}

func (d *decoder) list(n *yaml.Node) []expr.Node {
	if n.Kind != yaml.SequenceNode {
		d.errorf(n, "expected a sequence")
		return nil
	}
	out := make([]expr.Node, len(n.Content))
	for i, item := range n.Content {
		out[i] = d.node(item)
	}
	return out
}

func (d *decoder) name(f fields) string {
	n := f.get("name")
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		d.errorf(f.owner, "missing name")
		return ""
	}
	return n.Value
}

func (d *decoder) typ(f fields, key string, required bool) types.Type {
	n := f.get(key)
	if n == nil || isNull(n) {
		if required {
			d.errorf(f.owner, "missing %s", key)
		}
		return nil
	}
	if n.Kind != yaml.ScalarNode {
		d.errorf(n, "%s must be a type expression", key)
		return nil
	}
	t, err := d.universe.Parse(n.Value)
	if err != nil {
		if syn, ok := err.(*relerr.SyntaxError); ok {
			column := n.Column + syn.Column - 1
			if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
				column++
			}
			d.errorAt(n.Line, column, "%s: %s", key, syn.Msg)
			return nil
		}
		d.errorf(n, "%s: %v", key, err)
		return nil
	}
	if g, ok := t.(*types.Generic); ok {
		return g.Self()
	}
	return t
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func kindOf(n expr.Node) string {
	switch n.(type) {
	case *expr.Const:
		return KindConst
	case *expr.Var:
		return KindVar
	case *expr.Call:
		return KindCall
	case *expr.Member:
		return KindMember
	case *expr.Lambda:
		return KindLambda
	case *expr.Let:
		return KindLet
	case *expr.If:
		return KindIf
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*")
}
