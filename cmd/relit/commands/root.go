// Package commands provides the CLI commands for the relit tool.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the relit command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relit",
		Short: "Type-directed literal replacement for expression trees",
		Long: `relit rewrites the literal leaves of a typed expression tree.

Rules in relit.toml select leaves by type, either an exact type and its
declared subtypes or any instantiation of a generic definition, and
replace them with a new literal.

Usage:
  relit apply tree.yaml              Apply rules, print the rewritten tree
  relit apply tree.yaml -o out.yaml  Write the rewritten tree to a file
  relit check tree.yaml              Validate a tree and its rules
  relit version                      Print version`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
