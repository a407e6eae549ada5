package commands

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"martianoff/relit/internal/replace"
	"martianoff/relit/internal/rules"
	"martianoff/relit/internal/treefile"
	"martianoff/relit/internal/types"
)

type applyOptions struct {
	rules   string
	output  string
	verbose bool
}

func newApplyCmd() *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply <tree.yaml>",
		Short: "Apply replacement rules to an expression tree",
		Long: `Apply every rule of the rules file, in file order, to an expression tree.

Without --rules the nearest relit.toml at or above the tree's directory
is used. Each rule reports how many literals it replaced; rules with
report_mismatches = true also warn about differing type arguments.

Examples:
  relit apply tree.yaml                     # Rewritten tree to stdout
  relit apply tree.yaml -o out.yaml         # Rewritten tree to a file
  relit apply tree.yaml -r other.toml -v    # Explicit rules, trace replacements`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.rules, "rules", "r", "", "Path to the rules file (default: nearest relit.toml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Path to the output tree (default: stdout)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Trace every replacement")
	return cmd
}

func runApply(cmd *cobra.Command, treePath string, opts *applyOptions) error {
	stderr := cmd.ErrOrStderr()
	p := newPalette(stderr)

	u := types.NewUniverse()
	cfg, cfgPath, err := loadRules(opts.rules, treePath)
	if err != nil {
		return err
	}
	h, err := cfg.Hierarchy(u)
	if err != nil {
		return fmt.Errorf("%s: %w", rulesName(cfgPath), err)
	}
	if len(cfg.Rules) == 0 {
		fmt.Fprintf(stderr, "%s no rules found, the tree is written unchanged\n", p.warn("warning:"))
	}

	tree, err := treefile.DecodeFile(treePath, u)
	if err != nil {
		return err
	}

	var extra []replace.Option
	if opts.verbose {
		extra = append(extra, replace.WithLogger(log.New(stderr, "", 0)))
	}

	for i, rule := range cfg.Rules {
		label := rule.Label(i)
		onMismatch := func(actual, expected types.Type) {
			fmt.Fprintf(stderr, "%s rule %s: type argument %s does not match %s\n", p.warn("warning:"), label, actual, expected)
		}
		r, err := rule.Build(u, h, onMismatch, extra...)
		if err != nil {
			return fmt.Errorf("rule %s: %w", label, err)
		}
		tree = r.Transform(tree)
		fmt.Fprintf(stderr, "%s: %s\n", label, p.count(r.Count(), "replacement"))
	}

	data, err := treefile.Encode(tree)
	if err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(stderr, "Rewritten tree saved to %s\n", opts.output)
	return nil
}

// loadRules reads path, or the nearest relit.toml above the tree when
// path is empty. The returned path is empty when no file was found.
func loadRules(path, treePath string) (*rules.Config, string, error) {
	if path != "" {
		cfg, err := rules.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	dir, err := filepath.Abs(filepath.Dir(treePath))
	if err != nil {
		return nil, "", err
	}
	return rules.FindAndLoad(dir)
}

func rulesName(path string) string {
	if path == "" {
		return rules.FileName
	}
	return path
}
