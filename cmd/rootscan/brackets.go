package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/rootscan/internal/bracket"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/spf13/cobra"
)

// BracketsResult lists the brackets found for one function.
type BracketsResult struct {
	// Function is the function label.
	Function string `json:"function"`

	// Intervals are the brackets in domain order.
	Intervals []bracket.Interval `json:"intervals"`

	// Labels are the root labels of Intervals.
	Labels []string `json:"labels"`

	// CapacityExceeded is true when Intervals was truncated.
	CapacityExceeded bool `json:"capacity_exceeded,omitempty"`
}

// NewBracketsCmd creates the brackets command.
func NewBracketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brackets",
		Short: "List the sign-change intervals of every function",
		Long: `Brackets samples every function on the domain and lists the intervals
where its sign changes. Intervals containing a singular point (x = 0 for f3)
are skipped. Nothing is solved and nothing is written to disk.

Examples:
  # Brackets of every function
  rootscan brackets

  # Only the leftmost bracket of f3, as JSON
  rootscan brackets -f f3 --first --json`,
		Args: cobra.NoArgs,
		RunE: runBracketsCmd,
	}

	addDomainFlags(cmd)
	cmd.Flags().Bool("first", false, "Only report the leftmost bracket of each function")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// runBracketsCmd executes the brackets command.
func runBracketsCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	first, err := cmd.Flags().GetBool("first")
	if err != nil {
		return err
	}

	fns, err := function.Resolve(cfg.Functions)
	if err != nil {
		return err
	}
	scanner, err := cfg.Scanner()
	if err != nil {
		return err
	}

	results := make([]BracketsResult, 0, len(fns))
	for _, fn := range fns {
		res, err := findBrackets(scanner, fn, first)
		if err != nil {
			return err
		}
		if res.CapacityExceeded {
			logger.Warn("bracket capacity exceeded", "function", fn.Label(), "capacity", scanner.Capacity())
		}
		results = append(results, res)
	}

	if cfg.JSONReport {
		return encodeJSON(cmd.OutOrStdout(), results)
	}
	lo, hi := scanner.Domain()
	return outputBracketsText(cmd.OutOrStdout(), results, lo, hi, scanner.Step())
}

// findBrackets scans fn. With first set, only the leftmost bracket is kept.
func findBrackets(scanner *bracket.Scanner, fn function.Function, first bool) (BracketsResult, error) {
	res := BracketsResult{Function: fn.Label()}

	if first {
		iv, err := scanner.First(fn)
		switch {
		case errors.Is(err, bracket.ErrNoBracket):
			res.Intervals = []bracket.Interval{}
		case err != nil:
			return res, err
		default:
			res.Intervals = []bracket.Interval{iv}
		}
	} else {
		ivs, err := scanner.Scan(fn)
		switch {
		case errors.Is(err, bracket.ErrCapacityExceeded):
			res.CapacityExceeded = true
		case err != nil:
			return res, err
		}
		res.Intervals = ivs
	}

	res.Labels = make([]string, len(res.Intervals))
	for i := range res.Intervals {
		res.Labels[i] = model.RootLabel(fn.Label(), i, len(res.Intervals))
	}
	return res, nil
}

// outputBracketsText prints the brackets as a table.
func outputBracketsText(w io.Writer, results []BracketsResult, lo, hi, step float64) error {
	fmt.Fprintf(w, "Brackets in [%g, %g] (step %g):\n\n", lo, hi, step)
	fmt.Fprintf(w, "  %-8s  %s\n", "Root", "Interval")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 40))

	for _, res := range results {
		if len(res.Intervals) == 0 {
			fmt.Fprintf(w, "  %-8s  %s\n", res.Function, "no sign change")
			continue
		}
		for i, iv := range res.Intervals {
			fmt.Fprintf(w, "  %-8s  %s\n", res.Labels[i], iv)
		}
		if res.CapacityExceeded {
			fmt.Fprintf(w, "  %-8s  %s\n", "", "(capacity exceeded, list truncated)")
		}
	}
	return nil
}
