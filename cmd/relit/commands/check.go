package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"martianoff/relit/internal/expr"
	"martianoff/relit/internal/rules"
	"martianoff/relit/internal/treefile"
	"martianoff/relit/internal/types"
)

func newCheckCmd() *cobra.Command {
	var rulesPath string
	cmd := &cobra.Command{
		Use:   "check <tree.yaml>",
		Short: "Validate a tree and its rules without writing anything",
		Long: `Decode an expression tree, validate the rules that apply to it and
report how many literals each rule would replace.

Examples:
  relit check tree.yaml
  relit check tree.yaml -r other.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], rulesPath)
		},
	}
	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Path to the rules file (default: nearest relit.toml)")
	return cmd
}

func runCheck(cmd *cobra.Command, treePath, rulesPath string) error {
	out := cmd.OutOrStdout()
	p := newPalette(out)

	u := types.NewUniverse()
	cfg, cfgPath, err := loadRules(rulesPath, treePath)
	if err != nil {
		return err
	}
	h, err := cfg.Hierarchy(u)
	if err != nil {
		return fmt.Errorf("%s: %w", rulesName(cfgPath), err)
	}

	tree, err := treefile.DecodeFile(treePath, u)
	if err != nil {
		return err
	}
	if err := cfg.Validate(u); err != nil {
		return fmt.Errorf("%s: %w", rulesName(cfgPath), err)
	}

	fmt.Fprintln(out, tree)
	fmt.Fprintln(out, p.count(len(expr.Consts(tree)), "literal"))
	if cfgPath == "" {
		fmt.Fprintf(out, "%s not found\n", rules.FileName)
		return nil
	}

	fmt.Fprintf(out, "%s: %s, %s\n", cfgPath, p.count(len(cfg.Rules), "rule"), p.count(len(h.Names()), "declared type"))
	for i, rule := range cfg.Rules {
		// Each rule is counted against the original tree.
		r, err := rule.Build(u, h, nil)
		if err != nil {
			return fmt.Errorf("rule %s: %w", rule.Label(i), err)
		}
		r.Transform(tree)
		fmt.Fprintf(out, "  %s (%s) would replace %s\n", rule.Label(i), r, p.count(r.Count(), "literal"))
	}
	return nil
}
