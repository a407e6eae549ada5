package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/relit/internal/expr"
	"martianoff/relit/internal/types"
	"martianoff/relit/internal/types/hierarchy"
	"martianoff/relit/relerr"
)

const sampleRules = `
[types]
Dog = ["Animal"]
"List<'T>" = ["Seq<'T>"]

[[rule]]
name = "animals"
target = "Animal"
replacement = "anonymous"
replacement_type = "string"

[[rule]]
name = "boxes"
definition = "Box<>"
replacement = "null"

[[rule]]
target = "Pair<int, string>"
replacement = "p"
report_mismatches = true
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sampleRules)
	require.NoError(t, err)

	assert.Equal(t, []string{"Animal"}, cfg.Types["Dog"])
	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, Rule{
		Name:            "animals",
		Target:          "Animal",
		Replacement:     "anonymous",
		ReplacementType: "string",
	}, cfg.Rules[0])
	assert.Equal(t, "Box<>", cfg.Rules[1].Definition)
	assert.True(t, cfg.Rules[2].ReportMismatches)
	assert.Equal(t, "#3", cfg.Rules[2].Label(2))
	assert.Equal(t, "boxes", cfg.Rules[1].Label(1))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("[[rule]\nname = 1")
	require.Error(t, err)

	_, err = Parse("[[rule]]\ntarget = \"int\"\nreplacment = \"0\"\n")
	var cfg *relerr.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Contains(t, err.Error(), "replacment")
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("[[rule]]\nname = \"x\"\ntarget = @\n")
	var syn *relerr.SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 3, syn.Line)
	assert.Greater(t, syn.Column, 1, "column comes from the TOML parser")
}

func TestHierarchy(t *testing.T) {
	cfg, err := Parse(sampleRules)
	require.NoError(t, err)

	u := types.NewUniverse()
	h, err := cfg.Hierarchy(u)
	require.NoError(t, err)
	assert.True(t, h.IsSubtypeOf(u.MustParse("Dog"), u.MustParse("Animal")))
	assert.True(t, h.IsSubtypeOf(u.MustParse("List<int>"), u.MustParse("Seq<int>")))
}

func TestHierarchyCycle(t *testing.T) {
	cfg, err := Parse("[types]\nA = [\"B\"]\nB = [\"A\"]\n")
	require.NoError(t, err)

	_, err = cfg.Hierarchy(types.NewUniverse())
	var cycle *hierarchy.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"A", "B", "A"}, cycle.Cycle)
}

func TestHierarchyBadType(t *testing.T) {
	cfg := &Config{Types: map[string][]string{"Dog": {"Animal<"}}}
	_, err := cfg.Hierarchy(types.NewUniverse())
	var syn *relerr.SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Contains(t, err.Error(), "types.Dog")
}

func TestBuildAndApply(t *testing.T) {
	cfg, err := Parse(sampleRules)
	require.NoError(t, err)
	u := types.NewUniverse()
	h, err := cfg.Hierarchy(u)
	require.NoError(t, err)

	// Animal rule: constant replacement through a subtype.
	animals, err := cfg.Rules[0].Build(u, h, nil)
	require.NoError(t, err)
	leaf := &expr.Const{Value: expr.Scalar{Of: u.MustParse("Dog"), Text: "rex"}, Decl: u.MustParse("Animal")}
	got := animals.Transform(leaf).(*expr.Const)
	assert.Equal(t, "anonymous", got.String())
	assert.Equal(t, "string", got.Decl.String())
	assert.Equal(t, 1, animals.Count())

	// Box rule: null replacement keeping the declared type.
	boxes, err := cfg.Rules[1].Build(u, h, nil)
	require.NoError(t, err)
	got = boxes.Transform(expr.NewConst("1", u.MustParse("Box<int>"))).(*expr.Const)
	assert.Nil(t, got.Value)
	assert.Equal(t, "Box<int>", got.Decl.String())

	// Pair rule: value typed as the leaf's actual type, mismatches reported.
	var reported []string
	pairs, err := cfg.Rules[2].Build(u, h, func(actual, expected types.Type) {
		reported = append(reported, actual.String()+"!="+expected.String())
	})
	require.NoError(t, err)
	got = pairs.Transform(expr.NewConst("q", u.MustParse("Pair<int, bool>"))).(*expr.Const)
	assert.Equal(t, "p", got.String())
	assert.Equal(t, "Pair<int, bool>", got.Value.RuntimeType().String())
	assert.Equal(t, []string{"bool!=string"}, reported)
}

func TestBuildMismatchHookOnlyWhenRequested(t *testing.T) {
	u := types.NewUniverse()
	rule := Rule{Target: "Box<int>", Replacement: "0"}

	called := false
	r, err := rule.Build(u, nil, func(types.Type, types.Type) { called = true })
	require.NoError(t, err)
	r.Transform(expr.NewConst("1", u.MustParse("Box<string>")))
	assert.False(t, called)
	assert.Equal(t, 1, r.Count())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Rules: []Rule{
		{Name: "ok", Target: "int", Replacement: "0"},
		{Name: "both", Target: "int", Definition: "Box<>"},
		{Name: "neither"},
		{Name: "closed-definition", Definition: "Box<int>"},
		{Name: "open-target", Target: "Box<>"},
		{Name: "bad-type", Target: "int", ReplacementType: "Box<"},
	}}

	err := cfg.Validate(types.NewUniverse())
	var multi *relerr.MultiError
	require.ErrorAs(t, err, &multi)
	require.Len(t, multi.Errors, 5)
	assert.Contains(t, multi.Errors[0].Error(), "rule both:")
	assert.Contains(t, multi.Errors[2].Error(), "closed-definition")
	assert.Contains(t, multi.Errors[2].Error(), "InvalidConfiguration")
	assert.Contains(t, multi.Errors[4].Error(), "replacement_type")

	assert.NoError(t, (&Config{Rules: cfg.Rules[:1]}).Validate(types.NewUniverse()))
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, path, err := FindAndLoad(nested)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, cfg.Rules)

	rulesPath := filepath.Join(root, FileName)
	require.NoError(t, os.WriteFile(rulesPath, []byte(sampleRules), 0o644))

	cfg, path, err = FindAndLoad(nested)
	require.NoError(t, err)
	assert.Equal(t, rulesPath, path)
	assert.Len(t, cfg.Rules, 3)

	_, err = Load(filepath.Join(root, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
