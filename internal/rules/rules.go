// Package rules loads relit.toml, the file describing which literals to
// replace and the subtype declarations used to match them.
//
//	[types]
//	Dog = ["Animal"]
//	"List<'T>" = ["Seq<'T>"]
//
//	[[rule]]
//	name = "hide-boxes"
//	target = "Box<int>"        # or: definition = "Box<>"
//	replacement = "0"          # "null" replaces with an absent value
//	replacement_type = "int"   # empty keeps each leaf's declared type
//	report_mismatches = true
package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"martianoff/relit/internal/expr"
	"martianoff/relit/internal/replace"
	"martianoff/relit/internal/types"
	"martianoff/relit/internal/types/hierarchy"
	"martianoff/relit/relerr"
)

// FileName is the rules file looked up by FindConfigFile.
const FileName = "relit.toml"

// NullLiteral as a replacement produces a leaf without a value.
const NullLiteral = "null"

// Config is the decoded rules file.
type Config struct {
	Types map[string][]string `toml:"types"`
	Rules []Rule              `toml:"rule"`
}

// Rule describes one replacement pass.
type Rule struct {
	Name             string `toml:"name"`
	Target           string `toml:"target"`
	Definition       string `toml:"definition"`
	Replacement      string `toml:"replacement"`
	ReplacementType  string `toml:"replacement_type"`
	ReportMismatches bool   `toml:"report_mismatches"`
}

// DefaultConfig returns the configuration used when no rules file exists.
func DefaultConfig() *Config {
	return &Config{Types: map[string][]string{}}
}

// FindAndLoad looks for relit.toml from startDir upwards and loads it.
// When none is found the default configuration and an empty path are
// returned.
func FindAndLoad(startDir string) (*Config, string, error) {
	configPath := FindConfigFile(startDir)
	if configPath == "" {
		return DefaultConfig(), "", nil
	}

	config, err := Load(configPath)
	if err != nil {
		return nil, "", err
	}
	return config, configPath, nil
}

// FindConfigFile returns the path of the nearest relit.toml at or above
// startDir, or "".
func FindConfigFile(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads and decodes the rules file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return parse(string(content), path)
}

// Parse decodes rules from a string.
func Parse(content string) (*Config, error) {
	return parse(content, "")
}

func parse(content, path string) (*Config, error) {
	config := DefaultConfig()
	md, err := toml.Decode(content, config)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, relerr.NewSyntaxErrorInFile(path, perr.Position.Line, max(perr.Position.Col, 1), perr.Message)
		}
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, relerr.NewConfigErrorf("", "unknown key(s) in %s: %s", displayName(path), strings.Join(keys, ", "))
	}
	if config.Types == nil {
		config.Types = map[string][]string{}
	}
	return config, nil
}

func displayName(path string) string {
	if path == "" {
		return FileName
	}
	return path
}

// Hierarchy builds the subtype hierarchy declared in [types]. Declaring
// types are processed in sorted order so cycle reports are stable.
func (c *Config) Hierarchy(u *types.Universe) (*hierarchy.Hierarchy, error) {
	h := hierarchy.New()
	names := make([]string, 0, len(c.Types))
	for name := range c.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sub, err := u.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("types.%s: %w", name, err)
		}
		supers := make([]types.Type, 0, len(c.Types[name]))
		for _, src := range c.Types[name] {
			super, err := u.Parse(src)
			if err != nil {
				return nil, fmt.Errorf("types.%s: %w", name, err)
			}
			supers = append(supers, super)
		}
		if err := h.Declare(sub, supers...); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Validate builds every rule once and reports all invalid ones together.
func (c *Config) Validate(u *types.Universe) error {
	errs := &relerr.MultiError{}
	for i, r := range c.Rules {
		if _, err := r.Build(u, nil, nil); err != nil {
			errs.Errors = append(errs.Errors, fmt.Errorf("rule %s: %w", r.Label(i), err))
		}
	}
	return errs.ErrOrNil()
}

// Label names the rule for messages, falling back to its position.
func (r Rule) Label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d", index+1)
}

// Build creates the replacer for r. h supplies subtyping and may be nil.
// onMismatch is only installed when the rule asks for mismatch reports.
// extra options are applied last.
func (r Rule) Build(u *types.Universe, h *hierarchy.Hierarchy, onMismatch replace.MismatchFunc, extra ...replace.Option) (*replace.Replacer, error) {
	if (r.Target == "") == (r.Definition == "") {
		return nil, relerr.NewConfigError("rule", "exactly one of target and definition must be set")
	}

	var replacementType types.Type
	if r.ReplacementType != "" {
		t, err := u.Parse(r.ReplacementType)
		if err != nil {
			return nil, fmt.Errorf("replacement_type: %w", err)
		}
		replacementType = t
	}

	var opts []replace.Option
	if h != nil {
		opts = append(opts, replace.WithSubtypes(h.IsSubtypeOf))
	}
	if r.ReportMismatches && onMismatch != nil {
		opts = append(opts, replace.WithMismatch(onMismatch))
	}
	opts = append(opts, extra...)

	if r.Definition != "" {
		def, err := u.Parse(r.Definition)
		if err != nil {
			return nil, fmt.Errorf("definition: %w", err)
		}
		return replace.NewForDefinition(def, r.valueFunc(replacementType), typeFunc(replacementType), opts...)
	}

	target, err := u.Parse(r.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if replacementType != nil {
		return replace.NewConstant(target, r.literal(replacementType), replacementType, opts...)
	}
	return replace.New(target, r.valueFunc(nil), typeFunc(nil), opts...)
}

func (r Rule) literal(t types.Type) expr.Value {
	if r.Replacement == NullLiteral {
		return nil
	}
	return expr.Scalar{Of: t, Text: r.Replacement}
}

// valueFunc produces the rule's literal typed as fixed, or as the matched
// leaf's actual type when fixed is nil.
func (r Rule) valueFunc(fixed types.Type) replace.ValueFunc {
	return func(_ expr.Value, actual types.Type) expr.Value {
		if fixed != nil {
			return r.literal(fixed)
		}
		return r.literal(actual)
	}
}

func typeFunc(fixed types.Type) replace.TypeFunc {
	return func(declared types.Type) types.Type {
		if fixed != nil {
			return fixed
		}
		return declared
	}
}
