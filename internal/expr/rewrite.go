package expr

// Visitor is the leaf hook of Rewrite. VisitConst returns either c itself
// or a replacement; returning c leaves the tree unchanged.
type Visitor interface {
	VisitConst(c *Const) Node
}

// Identity is the default leaf handling: every leaf is kept.
type Identity struct{}

func (Identity) VisitConst(c *Const) Node { return c }

// ConstFunc adapts a function to a Visitor.
type ConstFunc func(c *Const) Node

func (f ConstFunc) VisitConst(c *Const) Node { return f(c) }

// Rewrite walks n and hands every Const to v. Interior nodes are rebuilt
// only when a child result differs by identity from the child; otherwise
// the original node is returned, so an untouched tree comes back as the
// same pointer.
func Rewrite(v Visitor, n Node) Node {
	switch e := n.(type) {
	case nil:
		return nil
	case *Const:
		return v.VisitConst(e)
	case *Var:
		return e
	case *Call:
		fn := Rewrite(v, e.Fn)
		args, changed := rewriteAll(v, e.Args)
		if fn == e.Fn && !changed {
			return e
		}
		return &Call{Fn: fn, Args: args, Decl: e.Decl}
	case *Member:
		target := Rewrite(v, e.Target)
		if target == e.Target {
			return e
		}
		return &Member{Target: target, Name: e.Name, Decl: e.Decl}
	case *Lambda:
		body := Rewrite(v, e.Body)
		if body == e.Body {
			return e
		}
		return &Lambda{Params: e.Params, Body: body, Decl: e.Decl}
	case *Let:
		value := Rewrite(v, e.Value)
		body := Rewrite(v, e.Body)
		if value == e.Value && body == e.Body {
			return e
		}
		return &Let{Name: e.Name, Value: value, Body: body}
	case *If:
		cond := Rewrite(v, e.Cond)
		then := Rewrite(v, e.Then)
		els := Rewrite(v, e.Else)
		if cond == e.Cond && then == e.Then && els == e.Else {
			return e
		}
		return &If{Cond: cond, Then: then, Else: els}
	}
	return n
}

func rewriteAll(v Visitor, nodes []Node) ([]Node, bool) {
	out := make([]Node, len(nodes))
	changed := false
	for i, n := range nodes {
		out[i] = Rewrite(v, n)
		if out[i] != n {
			changed = true
		}
	}
	return out, changed
}
