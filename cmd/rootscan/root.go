package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for rootscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rootscan",
		Short: "Bracket and refine the real roots of scalar functions",
		Long: `rootscan finds the real roots of the built-in functions

  f1(x) = exp(-x^2) + 1 - x
  f2(x) = x^3 - 2x^2 - 4x - 7
  f3(x) = x^3 - 2x^2 - 4x - 7/x

It scans a domain for sign changes, refines every bracket with Newton's
method and with bisection, and writes the error of every iteration to
iteration_error_analysis.txt. The sweep command measures the final error
for tolerances 1e-1 down to 1e-15 and writes accuracy_error_analysis.txt.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format on stderr: text or json")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .rootscan in current or home directory)")

	cmd.AddCommand(NewSolveCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewBracketsCmd())
	cmd.AddCommand(NewPlotCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
