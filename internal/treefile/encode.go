package treefile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"martianoff/relit/internal/expr"
	"martianoff/relit/internal/types"
)

// Encode renders n in the document format Decode reads.
func Encode(n expr.Node) ([]byte, error) {
	root, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(root)
}

type mappingBuilder struct {
	node *yaml.Node
	err  error
}

func newMapping(kind string) *mappingBuilder {
	m := &mappingBuilder{node: &yaml.Node{Kind: yaml.MappingNode}}
	m.scalar("kind", kind)
	return m
}

func (m *mappingBuilder) add(key string, value *yaml.Node) {
	m.node.Content = append(m.node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}

func (m *mappingBuilder) scalar(key, value string) {
	m.add(key, &yaml.Node{Kind: yaml.ScalarNode, Value: value})
}

// text always carries the string tag so literals such as 1 or null keep
// their text when read back.
func (m *mappingBuilder) text(key, value string) {
	m.add(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

// typ rejects open definitions: their spelling reads back as an instance.
func (m *mappingBuilder) typ(key string, t types.Type) {
	if g, ok := t.(*types.Generic); ok {
		if m.err == nil {
			m.err = fmt.Errorf("%s: open definition %s cannot annotate a node", key, g)
		}
		return
	}
	if t != nil {
		m.text(key, t.String())
	}
}

func (m *mappingBuilder) done() (*yaml.Node, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.node, nil
}

func (m *mappingBuilder) child(key string, n expr.Node) error {
	c, err := encodeNode(n)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	m.add(key, c)
	return nil
}

func (m *mappingBuilder) list(key string, nodes []expr.Node) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for i, n := range nodes {
		c, err := encodeNode(n)
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		seq.Content = append(seq.Content, c)
	}
	m.add(key, seq)
	return nil
}

func encodeNode(n expr.Node) (*yaml.Node, error) {
	switch e := n.(type) {
	case nil:
		return nil, fmt.Errorf("cannot encode a nil node")

	case *expr.Const:
		m := newMapping(KindConst)
		m.typ("type", e.Decl)
		if e.Value != nil {
			m.text("value", e.Value.String())
			if rt := e.Value.RuntimeType(); rt != nil && !types.Identical(rt, e.Decl) {
				m.typ("value_type", rt)
			}
		}
		return m.done()

	case *expr.Var:
		m := newMapping(KindVar)
		m.text("name", e.Name)
		m.typ("type", e.Decl)
		return m.done()

	case *expr.Call:
		m := newMapping(KindCall)
		if err := m.child("fn", e.Fn); err != nil {
			return nil, err
		}
		if len(e.Args) > 0 {
			if err := m.list("args", e.Args); err != nil {
				return nil, err
			}
		}
		m.typ("type", e.Decl)
		return m.done()

	case *expr.Member:
		m := newMapping(KindMember)
		if err := m.child("target", e.Target); err != nil {
			return nil, err
		}
		m.text("name", e.Name)
		m.typ("type", e.Decl)
		return m.done()

	case *expr.Lambda:
		m := newMapping(KindLambda)
		if len(e.Params) > 0 {
			params := make([]expr.Node, len(e.Params))
			for i, p := range e.Params {
				params[i] = p
			}
			if err := m.list("params", params); err != nil {
				return nil, err
			}
		}
		if err := m.child("body", e.Body); err != nil {
			return nil, err
		}
		m.typ("type", e.Decl)
		return m.done()

	case *expr.Let:
		m := newMapping(KindLet)
		m.text("name", e.Name)
		if err := m.child("value", e.Value); err != nil {
			return nil, err
		}
		if err := m.child("body", e.Body); err != nil {
			return nil, err
		}
		return m.done()

	case *expr.If:
		m := newMapping(KindIf)
		if err := m.child("cond", e.Cond); err != nil {
			return nil, err
		}
		if err := m.child("then", e.Then); err != nil {
			return nil, err
		}
		if err := m.child("else", e.Else); err != nil {
			return nil, err
		}
		return m.done()
	}
	return nil, fmt.Errorf("cannot encode %T", n)
}
