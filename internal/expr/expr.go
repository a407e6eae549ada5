// Package expr is the typed expression tree literal substitution runs
// over, together with the traversal engine that rebuilds it.
//
// Nodes are immutable once built: passes return new nodes instead of
// mutating existing ones, so a pass can detect change by pointer identity.
package expr

import (
	"fmt"
	"strings"

	"martianoff/relit/internal/types"
)

// Node is any expression. Type returns the node's declared static type.
type Node interface {
	fmt.Stringer
	Type() types.Type
}

// Const is a leaf holding a literal. A nil Value is the absence of a
// value; its type is then only known from Decl.
type Const struct {
	Value Value
	Decl  types.Type
}

func (e *Const) Type() types.Type { return e.Decl }

func (e *Const) String() string {
	if e.Value == nil {
		return "null"
	}
	return e.Value.String()
}

// Var references a bound name.
type Var struct {
	Name string
	Decl types.Type
}

func (e *Var) Type() types.Type { return e.Decl }

func (e *Var) String() string {
	return e.Name
}

// Call applies Fn to Args.
type Call struct {
	Fn   Node
	Args []Node
	Decl types.Type
}

func (e *Call) Type() types.Type { return e.Decl }

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", e.Fn, strings.Join(args, ", "))
}

// Member selects Name from Target.
type Member struct {
	Target Node
	Name   string
	Decl   types.Type
}

func (e *Member) Type() types.Type { return e.Decl }

func (e *Member) String() string {
	return fmt.Sprintf("%s.%s", e.Target, e.Name)
}

// Lambda binds Params in Body.
type Lambda struct {
	Params []*Var
	Body   Node
	Decl   types.Type
}

func (e *Lambda) Type() types.Type { return e.Decl }

func (e *Lambda) String() string {
	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = p.Name
	}
	return fmt.Sprintf("(\\%s -> %s)", strings.Join(params, " "), e.Body)
}

// Let binds Name to Value in Body.
type Let struct {
	Name  string
	Value Node
	Body  Node
}

func (e *Let) Type() types.Type { return e.Body.Type() }

func (e *Let) String() string {
	return fmt.Sprintf("(let %s = %s in %s)", e.Name, e.Value, e.Body)
}

// If selects Then or Else on Cond.
type If struct {
	Cond Node
	Then Node
	Else Node
}

func (e *If) Type() types.Type { return e.Then.Type() }

func (e *If) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", e.Cond, e.Then, e.Else)
}

// Children returns the direct sub-expressions of n in evaluation order.
func Children(n Node) []Node {
	switch e := n.(type) {
	case *Call:
		return append([]Node{e.Fn}, e.Args...)
	case *Member:
		return []Node{e.Target}
	case *Lambda:
		children := make([]Node, 0, len(e.Params)+1)
		for _, p := range e.Params {
			children = append(children, p)
		}
		return append(children, e.Body)
	case *Let:
		return []Node{e.Value, e.Body}
	case *If:
		return []Node{e.Cond, e.Then, e.Else}
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// Consts returns the value leaves of n in pre-order.
func Consts(n Node) []*Const {
	var out []*Const
	Walk(n, func(node Node) bool {
		if c, ok := node.(*Const); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Equal reports whether a and b are structurally equal: same node kinds,
// names, identical declared types and equal values.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	switch x := a.(type) {
	case *Const:
		y, ok := b.(*Const)
		return ok && types.Identical(x.Decl, y.Decl) && ValuesEqual(x.Value, y.Value)
	case *Var:
		y, ok := b.(*Var)
		return ok && x.Name == y.Name && types.Identical(x.Decl, y.Decl)
	case *Call:
		y, ok := b.(*Call)
		if !ok || !types.Identical(x.Decl, y.Decl) {
			return false
		}
	case *Member:
		y, ok := b.(*Member)
		if !ok || x.Name != y.Name || !types.Identical(x.Decl, y.Decl) {
			return false
		}
	case *Lambda:
		y, ok := b.(*Lambda)
		if !ok || !types.Identical(x.Decl, y.Decl) {
			return false
		}
	case *Let:
		y, ok := b.(*Let)
		if !ok || x.Name != y.Name {
			return false
		}
	case *If:
		if _, ok := b.(*If); !ok {
			return false
		}
	default:
		return false
	}

	ca, cb := Children(a), Children(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !Equal(ca[i], cb[i]) {
			return false
		}
	}
	return true
}
