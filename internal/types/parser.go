package types

import (
	"fmt"
	"strings"
	"unicode"

	"martianoff/relit/relerr"
)

// Universe interns generic definitions by name so that every occurrence
// of Box<...> in one configuration refers to the same *Generic.
// A Universe is not safe for concurrent use.
type Universe struct {
	defs map[string]*Generic
}

// NewUniverse creates an empty universe.
func NewUniverse() *Universe {
	return &Universe{defs: make(map[string]*Generic)}
}

// Define returns the definition called name with the given parameters,
// creating it on first use. Redefining a name with a different arity is
// an error.
func (u *Universe) Define(name string, params ...string) (*Generic, error) {
	if def, ok := u.defs[name]; ok {
		if len(def.Params) != len(params) {
			return nil, fmt.Errorf("%s already defined with %d type parameter(s), got %d", name, len(def.Params), len(params))
		}
		return def, nil
	}
	def := &Generic{Name: name, Params: append([]string(nil), params...)}
	u.defs[name] = def
	return def, nil
}

// Lookup returns the interned definition called name.
func (u *Universe) Lookup(name string) (*Generic, bool) {
	def, ok := u.defs[name]
	return def, ok
}

// Parse parses a single type expression:
//
//	int                 named type
//	Box<int>            instance
//	Map<string, 'V>     partial instance
//	Box<>  Map<,>       open definitions with default parameter names
//	Map<'K, 'V>         open definition with declared parameter names
func (u *Universe) Parse(src string) (Type, error) {
	p := &typeParser{src: src, universe: u}
	p.skipSpace()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after type", p.peek())
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level tables.
func (u *Universe) MustParse(src string) Type {
	t, err := u.Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse parses src in a fresh universe.
func Parse(src string) (Type, error) {
	return NewUniverse().Parse(src)
}

func defaultParams(n int) []string {
	if n == 1 {
		return []string{"T"}
	}
	params := make([]string, n)
	for i := range params {
		params[i] = fmt.Sprintf("T%d", i+1)
	}
	return params
}

type typeParser struct {
	src      string
	pos      int
	depth    int
	universe *Universe
}

func (p *typeParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *typeParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) errorf(format string, args ...any) error {
	return relerr.NewSyntaxError(0, p.pos+1, fmt.Sprintf(format, args...))
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p *typeParser) ident() (string, error) {
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		if p.eof() {
			return "", p.errorf("expected type name, got end of input")
		}
		return "", p.errorf("expected type name, got %q", p.peek())
	}
	return p.src[start:p.pos], nil
}

func (p *typeParser) parseType() (Type, error) {
	if p.peek() == '\'' {
		p.pos++
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		return &Param{Name: name}, nil
	}

	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != '<' {
		return &Named{Name: name}, nil
	}
	p.pos++
	p.skipSpace()

	// Box<> and Map<,> name an open definition without parameter names.
	if p.peek() == '>' || p.peek() == ',' {
		arity := 1
		for p.peek() == ',' {
			arity++
			p.pos++
			p.skipSpace()
		}
		if p.peek() != '>' {
			return nil, p.errorf("expected '>' in open definition %s", name)
		}
		p.pos++
		return p.define(name, defaultParams(arity))
	}

	var args []Type
	p.depth++
	defer func() { p.depth-- }()
	for {
		p.skipSpace()
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if p.peek() != '>' {
			if p.eof() {
				return nil, p.errorf("expected '>' to close %s, got end of input", name)
			}
			return nil, p.errorf("expected ',' or '>' in %s, got %q", name, p.peek())
		}
		p.pos++
		break
	}

	// Only a top-level application of distinct parameters is the
	// definition itself; nested ones are partial instances.
	if params, ok := distinctParams(args); ok && p.depth == 1 {
		t, err := p.define(name, params)
		if err != nil {
			return nil, err
		}
		// Keep the spelled parameter names for declarations that refer
		// to them; identity only depends on name and arity.
		if def := t.(*Generic); !equalStrings(def.Params, params) {
			return &Generic{Name: def.Name, Params: params}, nil
		}
		return t, nil
	}
	def, ok := p.universe.Lookup(name)
	if !ok {
		var err error
		if def, err = p.universe.Define(name, defaultParams(len(args))...); err != nil {
			return nil, p.errorf("%s", err)
		}
	}
	inst, err := def.Instantiate(args...)
	if err != nil {
		return nil, p.errorf("%s", err)
	}
	return inst, nil
}

func (p *typeParser) define(name string, params []string) (Type, error) {
	def, err := p.universe.Define(name, params...)
	if err != nil {
		return nil, p.errorf("%s", err)
	}
	return def, nil
}

// distinctParams reports whether every argument is a distinct parameter,
// which makes the application the definition itself.
func distinctParams(args []Type) ([]string, bool) {
	seen := make(map[string]bool, len(args))
	names := make([]string, 0, len(args))
	for _, arg := range args {
		param, ok := arg.(*Param)
		if !ok || seen[param.Name] {
			return nil, false
		}
		seen[param.Name] = true
		names = append(names, param.Name)
	}
	return names, true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Format renders types as a comma separated list.
func Format(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
