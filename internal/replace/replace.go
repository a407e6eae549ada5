// Package replace substitutes literal leaves of an expression tree by
// type.
//
// A Replacer matches a leaf when the leaf's actual type (the runtime type
// of its value, or its declared type when the value is absent) is the
// target type or one of its subtypes, or when it is any instantiation of
// the target's generic definition. Matched leaves are replaced by a new
// leaf computed from caller-supplied selectors; everything else is left
// as is.
//
// A Replacer counts its substitutions. The count is never reset, so
// reusing one Replacer over several trees accumulates; build a fresh one
// per tree when per-tree counts are needed. The counter is not
// synchronized: do not share a Replacer between concurrent traversals.
package replace

import (
	"fmt"
	"log"

	"martianoff/relit/internal/expr"
	"martianoff/relit/internal/types"
	"martianoff/relit/relerr"
)

// ValueFunc computes the substitute value from the matched leaf's value
// (nil when absent) and its actual type.
type ValueFunc func(v expr.Value, actual types.Type) expr.Value

// TypeFunc computes the substitute declared type from the matched leaf's
// declared type. It must handle every input.
type TypeFunc func(declared types.Type) types.Type

// MismatchFunc receives one type argument of a matched instantiation that
// differs from the target's argument at the same position.
type MismatchFunc func(actual, expected types.Type)

// SubtypeFunc reports whether a is a subtype of b.
type SubtypeFunc func(a, b types.Type) bool

// Option configures a Replacer.
type Option func(*Replacer)

// WithMismatch sets the hook called for differing type arguments when a
// leaf matches through the target's generic definition. It only has an
// effect when the target is itself a generic instantiation.
func WithMismatch(fn MismatchFunc) Option {
	return func(r *Replacer) { r.onMismatch = fn }
}

// WithSubtypes sets the subtype predicate used for exact-or-subtype
// matching. Without it only identical types match.
func WithSubtypes(fn SubtypeFunc) Option {
	return func(r *Replacer) { r.isSubtype = fn }
}

// WithLogger traces every substitution to l.
func WithLogger(l *log.Logger) Option {
	return func(r *Replacer) { r.logger = l }
}

// Replacer is an expr.Visitor replacing leaves whose type matches its
// pattern.
type Replacer struct {
	target     types.Type
	targetDef  *types.Generic
	value      ValueFunc
	typ        TypeFunc
	onMismatch MismatchFunc
	isSubtype  SubtypeFunc
	logger     *log.Logger

	count int
}

// NewForDefinition matches leaves of any instantiation of def, which must
// be an open generic definition. No exact-type matching takes place and a
// mismatch hook is never called.
func NewForDefinition(def types.Type, value ValueFunc, typ TypeFunc, opts ...Option) (*Replacer, error) {
	if def == nil {
		return nil, relerr.NewConfigError("definition", "generic definition is required")
	}
	g, ok := def.(*types.Generic)
	if !ok {
		return nil, relerr.NewConfigErrorf("definition", "%s is not an open generic definition", def)
	}
	if err := checkSelectors(value, typ); err != nil {
		return nil, err
	}

	r := &Replacer{targetDef: g, value: value, typ: typ}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// New matches leaves whose actual type is target or a subtype of it.
// When target is a generic instantiation, leaves of other instantiations
// of the same definition match as well, and the mismatch hook reports
// their differing arguments.
func New(target types.Type, value ValueFunc, typ TypeFunc, opts ...Option) (*Replacer, error) {
	if target == nil {
		return nil, relerr.NewConfigError("target", "target type is required")
	}
	if types.IsGenericDefinition(target) {
		return nil, relerr.NewConfigErrorf("target", "%s is an open generic definition; use NewForDefinition", target)
	}
	if err := checkSelectors(value, typ); err != nil {
		return nil, err
	}

	r := &Replacer{
		target:    target,
		targetDef: types.DefinitionOf(target),
		value:     value,
		typ:       typ,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewConstant is New with selectors that always produce replacement and
// replacementType.
func NewConstant(target types.Type, replacement expr.Value, replacementType types.Type, opts ...Option) (*Replacer, error) {
	if replacementType == nil {
		return nil, relerr.NewConfigError("replacementType", "replacement type is required")
	}
	return New(target,
		func(expr.Value, types.Type) expr.Value { return replacement },
		func(types.Type) types.Type { return replacementType },
		opts...)
}

func checkSelectors(value ValueFunc, typ TypeFunc) error {
	if value == nil {
		return relerr.NewConfigError("value", "replacement value selector is required")
	}
	if typ == nil {
		return relerr.NewConfigError("type", "replacement type selector is required")
	}
	return nil
}

// Count returns the number of substitutions made so far.
func (r *Replacer) Count() int {
	return r.count
}

// Target returns the exact-match target, nil for definition replacers.
func (r *Replacer) Target() types.Type {
	return r.target
}

// Definition returns the generic definition matched, or nil.
func (r *Replacer) Definition() *types.Generic {
	return r.targetDef
}

func (r *Replacer) String() string {
	if r.target != nil {
		return fmt.Sprintf("replace %s", r.target)
	}
	return fmt.Sprintf("replace any %s", r.targetDef)
}

// Transform rewrites n with r.
func (r *Replacer) Transform(n expr.Node) expr.Node {
	return expr.Rewrite(r, n)
}

// VisitConst implements expr.Visitor.
func (r *Replacer) VisitConst(c *expr.Const) expr.Node {
	actual := c.Decl
	if c.Value != nil {
		actual = c.Value.RuntimeType()
	}

	if r.target != nil && r.matchesTarget(actual) {
		return r.replace(c, actual)
	}

	if inst, ok := actual.(*types.Instance); ok && r.targetDef != nil && types.Identical(inst.Def, r.targetDef) {
		if want, ok := r.target.(*types.Instance); ok && r.onMismatch != nil {
			r.reportMismatches(inst.Args, want.Args)
		}
		return r.replace(c, actual)
	}

	return c
}

func (r *Replacer) matchesTarget(actual types.Type) bool {
	if actual == nil {
		return false
	}
	if types.Identical(actual, r.target) {
		return true
	}
	return r.isSubtype != nil && r.isSubtype(actual, r.target)
}

// reportMismatches compares arguments position by position up to the
// shorter list; extra trailing arguments on either side are not reported.
func (r *Replacer) reportMismatches(actual, expected []types.Type) {
	n := min(len(actual), len(expected))
	for i := 0; i < n; i++ {
		if !types.Identical(actual[i], expected[i]) {
			r.onMismatch(actual[i], expected[i])
		}
	}
}

func (r *Replacer) replace(c *expr.Const, actual types.Type) expr.Node {
	r.count++
	out := &expr.Const{
		Value: r.value(c.Value, actual),
		Decl:  r.typ(c.Decl),
	}
	if r.logger != nil {
		r.logger.Printf("%s: %s (%s) -> %s (%s)", r, c, typeName(actual), out, typeName(out.Decl))
	}
	return out
}

func typeName(t types.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
