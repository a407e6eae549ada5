package expr

import (
	"martianoff/relit/internal/types"
)

// Value is a literal carried by a Const. RuntimeType is the type of the
// value itself, which may be a subtype of the Const's declared type.
type Value interface {
	RuntimeType() types.Type
	String() string
}

// Scalar is a literal given by its source text and runtime type.
type Scalar struct {
	Of   types.Type
	Text string
}

func (v Scalar) RuntimeType() types.Type { return v.Of }

func (v Scalar) String() string { return v.Text }

// NewConst builds a Const whose value's runtime type equals its declared
// type.
func NewConst(text string, t types.Type) *Const {
	return &Const{Value: Scalar{Of: t, Text: text}, Decl: t}
}

// Null builds a Const without a value.
func Null(t types.Type) *Const {
	return &Const{Decl: t}
}

// ValuesEqual compares values by runtime type and text. Two absent values
// are equal.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return types.Identical(a.RuntimeType(), b.RuntimeType()) && a.String() == b.String()
}
