package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/relit/relerr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{name: "named", src: "int", want: "int"},
		{name: "qualified", src: "zoo.Dog", want: "zoo.Dog"},
		{name: "instance", src: "Box<int>", want: "Box<int>"},
		{name: "nested instance", src: "Map<string, List<int>>", want: "Map<string, List<int>>"},
		{name: "open single", src: "Box<>", want: "Box<'T>"},
		{name: "open pair", src: "Map< , >", want: "Map<'T1, 'T2>"},
		{name: "declared params", src: "Map<'K, 'V>", want: "Map<'K, 'V>"},
		{name: "partial", src: "Map<string, 'V>", want: "Map<string, 'V>"},
		{name: "repeated param is partial", src: "Pair<'A, 'A>", want: "Pair<'A, 'A>"},
		{name: "spaces", src: "  Box < int >  ", want: "Box<int>"},
		{name: "unterminated", src: "Box<int", wantErr: true},
		{name: "trailing", src: "int x", wantErr: true},
		{name: "empty", src: "", wantErr: true},
		{name: "bad separator", src: "Map<int; int>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			if tt.wantErr {
				require.Error(t, err)
				var syn *relerr.SyntaxError
				assert.ErrorAs(t, err, &syn)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseShapes(t *testing.T) {
	u := NewUniverse()

	open := u.MustParse("Box<>")
	assert.True(t, IsGenericDefinition(open))
	assert.False(t, IsGenericInstance(open))

	inst := u.MustParse("Box<int>")
	assert.True(t, IsGenericInstance(inst))
	assert.Same(t, open, DefinitionOf(inst))
	assert.Equal(t, "int", Format(ArgsOf(inst)))

	nested := u.MustParse("List<Box<'T>>")
	require.True(t, IsGenericInstance(nested))
	assert.True(t, IsGenericInstance(ArgsOf(nested)[0]), "nested parameter application stays an instance")

	assert.Nil(t, DefinitionOf(u.MustParse("int")))
	assert.Nil(t, ArgsOf(open))
}

func TestUniverseArityConflict(t *testing.T) {
	u := NewUniverse()
	u.MustParse("Box<int>")

	_, err := u.Parse("Box<int, string>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Box")

	_, err = u.Define("Box", "A", "B")
	assert.Error(t, err)
}

func TestIdentical(t *testing.T) {
	u := NewUniverse()
	other := NewUniverse()

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same named", u.MustParse("int"), u.MustParse("int"), true},
		{"different named", u.MustParse("int"), u.MustParse("string"), false},
		{"same instance", u.MustParse("Box<int>"), u.MustParse("Box<int>"), true},
		{"instance args differ", u.MustParse("Box<int>"), u.MustParse("Box<string>"), false},
		{"instance across universes", u.MustParse("Box<int>"), other.MustParse("Box<int>"), true},
		{"definition vs instance", u.MustParse("Box<>"), u.MustParse("Box<int>"), false},
		{"definitions", u.MustParse("Box<>"), other.MustParse("Box<'X>"), true},
		{"params", &Param{Name: "T"}, &Param{Name: "T"}, true},
		{"named vs param", &Named{Name: "T"}, &Param{Name: "T"}, false},
		{"nil nil", nil, nil, true},
		{"nil vs named", nil, u.MustParse("int"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identical(tt.a, tt.b))
			assert.Equal(t, tt.want, Identical(tt.b, tt.a))
		})
	}
}

func TestInstantiate(t *testing.T) {
	def := &Generic{Name: "Pair", Params: []string{"A", "B"}}

	inst, err := def.Instantiate(&Named{Name: "int"}, &Named{Name: "string"})
	require.NoError(t, err)
	assert.Equal(t, "Pair<int, string>", inst.String())
	assert.Equal(t, 2, def.Arity())

	_, err = def.Instantiate(&Named{Name: "int"})
	assert.EqualError(t, err, "Pair expects 2 type argument(s), got 1")
}

func TestSubstitute(t *testing.T) {
	u := NewUniverse()
	partial := u.MustParse("Map<string, List<'V>>").(*Instance)

	got := Substitute(partial, map[string]Type{"V": u.MustParse("int")})
	assert.Equal(t, "Map<string, List<int>>", got.String())
	assert.Equal(t, "Map<string, List<'V>>", partial.String(), "input is not mutated")

	assert.Same(t, partial, Substitute(partial, map[string]Type{"X": u.MustParse("int")}))

	def := u.MustParse("Map<'K, 'V>")
	assert.Same(t, def, Substitute(def, map[string]Type{"K": u.MustParse("int")}))
}

func TestBindings(t *testing.T) {
	u := NewUniverse()
	u.MustParse("Map<'K, 'V>")
	inst := u.MustParse("Map<string, int>").(*Instance)

	s := Bindings(inst)
	assert.Equal(t, "string", s["K"].String())
	assert.Equal(t, "int", s["V"].String())
}
