// Package hierarchy records declared supertypes and answers subtype
// queries over them.
//
// Declarations are nominal: a named type or a generic definition lists
// its direct supertypes. Supertypes of a generic definition may mention
// the definition's parameters, which are bound to the instance's
// arguments when an instance is queried:
//
//	List<'T> : Seq<'T>    makes List<int> a subtype of Seq<int>
//
// Thread-safe: all methods can be called concurrently.
package hierarchy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"martianoff/relit/internal/types"
	"martianoff/relit/relerr"
)

// CycleError reports declarations that make a type its own supertype.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("subtype cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Hierarchy maps a declaring type to its direct supertypes.
type Hierarchy struct {
	mu sync.RWMutex

	// supers maps the declaring type's name to its direct supertypes.
	supers map[string][]types.Type

	// params holds the parameter names of generic declarations.
	params map[string][]string
}

// New creates an empty hierarchy.
func New() *Hierarchy {
	return &Hierarchy{
		supers: make(map[string][]types.Type),
		params: make(map[string][]string),
	}
}

// Declare adds supers as direct supertypes of sub. sub must be a named
// type or an open generic definition. Declarations that would introduce
// a cycle are rejected and leave the hierarchy unchanged.
func (h *Hierarchy) Declare(sub types.Type, supers ...types.Type) error {
	var name string
	var params []string
	switch t := sub.(type) {
	case *types.Named:
		name = t.Name
	case *types.Generic:
		name = t.Name
		params = t.Params
	default:
		return relerr.NewConfigErrorf("sub", "%v cannot declare supertypes; use a named type or an open generic definition", sub)
	}
	normalized := make([]types.Type, len(supers))
	for i, s := range supers {
		if s == nil {
			return relerr.NewConfigErrorf("supers", "nil supertype declared for %s", name)
		}
		if g, ok := s.(*types.Generic); ok {
			s = g.Self()
		}
		normalized[i] = s
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev, existed := h.supers[name]
	prevParams, hadParams := h.params[name]
	h.supers[name] = append(append([]types.Type(nil), prev...), normalized...)
	if params != nil {
		h.params[name] = params
	}

	if err := h.detectCyclesLocked(); err != nil {
		if existed {
			h.supers[name] = prev
		} else {
			delete(h.supers, name)
		}
		if hadParams {
			h.params[name] = prevParams
		} else {
			delete(h.params, name)
		}
		return err
	}
	return nil
}

// Supertypes returns the direct supertypes of t with generic parameters
// bound to t's arguments.
func (h *Hierarchy) Supertypes(t types.Type) []types.Type {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.supertypesLocked(t)
}

func (h *Hierarchy) supertypesLocked(t types.Type) []types.Type {
	switch typ := t.(type) {
	case *types.Named:
		return h.supers[typ.Name]
	case *types.Instance:
		declared := h.supers[typ.Def.Name]
		if len(declared) == 0 {
			return nil
		}
		bindings := make(map[string]types.Type, len(typ.Args))
		names := h.params[typ.Def.Name]
		if names == nil {
			names = typ.Def.Params
		}
		for i, p := range names {
			if i < len(typ.Args) {
				bindings[p] = typ.Args[i]
			}
		}
		out := make([]types.Type, len(declared))
		for i, s := range declared {
			out[i] = types.Substitute(s, bindings)
		}
		return out
	}
	return nil
}

// IsSubtypeOf reports whether a is b or transitively declares b as a
// supertype. Its signature matches the predicate the replacer accepts.
func (h *Hierarchy) IsSubtypeOf(a, b types.Type) bool {
	if a == nil || b == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	visited := make(map[string]bool)
	var walk func(t types.Type) bool
	walk = func(t types.Type) bool {
		if types.Identical(t, b) {
			return true
		}
		key := t.String()
		if visited[key] {
			return false
		}
		visited[key] = true
		for _, s := range h.supertypesLocked(t) {
			if walk(s) {
				return true
			}
		}
		return false
	}
	return walk(a)
}

// Names returns the declaring type names in sorted order.
func (h *Hierarchy) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.supers))
	for name := range h.supers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectCycles checks the declarations for cycles.
// Returns nil if no cycles are found, or a CycleError describing the first cycle found.
func (h *Hierarchy) DetectCycles() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detectCyclesLocked()
}

func declName(t types.Type) string {
	switch typ := t.(type) {
	case *types.Named:
		return typ.Name
	case *types.Instance:
		return typ.Def.Name
	case *types.Generic:
		return typ.Name
	}
	return ""
}

func (h *Hierarchy) detectCyclesLocked() error {
	// Track visit state: 0 = unvisited, 1 = in progress, 2 = done
	state := make(map[string]int)
	path := make([]string, 0)

	var visit func(name string) error
	visit = func(name string) error {
		if state[name] == 2 {
			return nil
		}
		if state[name] == 1 {
			cycleStart := -1
			for i, p := range path {
				if p == name {
					cycleStart = i
					break
				}
			}
			if cycleStart >= 0 {
				cycle := append(append([]string(nil), path[cycleStart:]...), name)
				return &CycleError{Cycle: cycle}
			}
			return &CycleError{Cycle: []string{name}}
		}

		state[name] = 1
		path = append(path, name)

		for _, s := range h.supers[name] {
			if next := declName(s); next != "" {
				if err := visit(next); err != nil {
					return err
				}
			}
		}

		state[name] = 2
		path = path[:len(path)-1]
		return nil
	}

	// Sorted so the reported cycle is deterministic.
	names := make([]string, 0, len(h.supers))
	for name := range h.supers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
