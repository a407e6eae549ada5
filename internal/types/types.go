// Package types is the closed set of type shapes literal nodes are
// annotated with. Matching code switches over the concrete shapes
// instead of asking a runtime for type information.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented only by the shapes in this package.
type Type interface {
	fmt.Stringer
	isType()
}

// Named is a concrete, non-generic named type (e.g. int, Dog).
type Named struct {
	Name string
}

func (t *Named) isType() {}

func (t *Named) String() string {
	return t.Name
}

// Generic is an open generic type definition (e.g. Box<'T>).
type Generic struct {
	Name   string
	Params []string
}

func (t *Generic) isType() {}

func (t *Generic) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = "'" + p
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(params, ", "))
}

// Arity returns the number of type parameters of the definition.
func (t *Generic) Arity() int {
	return len(t.Params)
}

// Instantiate applies the definition to args.
func (t *Generic) Instantiate(args ...Type) (*Instance, error) {
	if len(args) != len(t.Params) {
		return nil, fmt.Errorf("%s expects %d type argument(s), got %d", t.Name, len(t.Params), len(args))
	}
	return &Instance{Def: t, Args: args}, nil
}

// Self applies the definition to its own parameters, which is how a
// definition appears when it is mentioned as a type argument or
// supertype (e.g. Seq<'T> in List<'T> : Seq<'T>).
func (t *Generic) Self() *Instance {
	args := make([]Type, len(t.Params))
	for i, p := range t.Params {
		args[i] = &Param{Name: p}
	}
	return &Instance{Def: t, Args: args}
}

// Instance is a generic definition applied to type arguments
// (e.g. Box<int>). Arguments may be *Param for partial instantiations.
type Instance struct {
	Def  *Generic
	Args []Type
}

func (t *Instance) isType() {}

func (t *Instance) String() string {
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s<%s>", t.Def.Name, strings.Join(args, ", "))
}

// Param references a type parameter by name.
type Param struct {
	Name string
}

func (t *Param) isType() {}

func (t *Param) String() string {
	return "'" + t.Name
}

// Identical reports whether a and b denote the same type.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Named:
		y, ok := b.(*Named)
		return ok && x.Name == y.Name
	case *Generic:
		y, ok := b.(*Generic)
		return ok && sameDefinition(x, y)
	case *Instance:
		y, ok := b.(*Instance)
		if !ok || !sameDefinition(x.Def, y.Def) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Identical(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Param:
		y, ok := b.(*Param)
		return ok && x.Name == y.Name
	}
	return false
}

func sameDefinition(a, b *Generic) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Name == b.Name && len(a.Params) == len(b.Params)
}

// IsGenericDefinition reports whether t is an open generic definition.
func IsGenericDefinition(t Type) bool {
	_, ok := t.(*Generic)
	return ok
}

// IsGenericInstance reports whether t is a generic definition applied to
// arguments.
func IsGenericInstance(t Type) bool {
	_, ok := t.(*Instance)
	return ok
}

// DefinitionOf returns the definition t instantiates, or nil when t is
// not an instance.
func DefinitionOf(t Type) *Generic {
	if inst, ok := t.(*Instance); ok {
		return inst.Def
	}
	return nil
}

// ArgsOf returns the type arguments of an instance, or nil.
func ArgsOf(t Type) []Type {
	if inst, ok := t.(*Instance); ok {
		return inst.Args
	}
	return nil
}

// Substitute replaces parameters named in s throughout t.
func Substitute(t Type, s map[string]Type) Type {
	if t == nil || len(s) == 0 {
		return t
	}
	switch typ := t.(type) {
	case *Param:
		if replacement, ok := s[typ.Name]; ok {
			return replacement
		}
		return typ
	case *Instance:
		newArgs := make([]Type, len(typ.Args))
		changed := false
		for i, arg := range typ.Args {
			newArgs[i] = Substitute(arg, s)
			if newArgs[i] != arg {
				changed = true
			}
		}
		if !changed {
			return typ
		}
		return &Instance{Def: typ.Def, Args: newArgs}
	default:
		return t
	}
}

// Bindings maps the parameters of inst's definition to its arguments.
func Bindings(inst *Instance) map[string]Type {
	s := make(map[string]Type, len(inst.Args))
	for i, p := range inst.Def.Params {
		if i < len(inst.Args) {
			s[p] = inst.Args[i]
		}
	}
	return s
}
