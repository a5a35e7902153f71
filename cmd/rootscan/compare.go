package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/rootscan/internal/database"
	"github.com/nao1215/rootscan/internal/solver"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// This command compares two runs stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [previous-run-id] [current-run-id]",
		Short: "Compare two stored runs",
		Long: `Compare shows how the solves of two runs differ.

Solves are matched by root label, method and tolerance. For every match
whose root, iteration count or status changed, both values are shown.
Solves present in only one run are listed as added or removed.

Without arguments the latest two runs of the given kind are compared.
With one argument that run is compared with the latest run.

Examples:
  # Compare the latest two solve runs
  rootscan compare

  # Compare the latest two sweeps
  rootscan compare --kind sweep

  # Compare two specific runs as JSON
  rootscan compare --json <previous-id> <current-id>`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")
	cmd.Flags().StringP("kind", "k", "solve", "Kind of the runs compared by default: solve or sweep")
	cmd.Flags().BoolP("json", "j", false, "Output comparison result in JSON format")

	return cmd
}

// SolveKey identifies a solve across runs.
type SolveKey struct {
	Label     string        `json:"label"`
	Method    solver.Method `json:"method"`
	Tolerance float64       `json:"tolerance"`
}

// String formats the key for display.
func (k SolveKey) String() string {
	return fmt.Sprintf("%s:%s@%s", k.Label, k.Method, strconv.FormatFloat(k.Tolerance, 'g', 3, 64))
}

// SolveChange is a matched solve whose outcome differs between two runs.
type SolveChange struct {
	SolveKey

	// Previous and Current are the outcomes in each run.
	Previous solver.Result `json:"previous"`
	Current  solver.Result `json:"current"`
}

// RunMetadata contains metadata about a run for comparison display.
type RunMetadata struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Converged int       `json:"converged"`
	Digest    string    `json:"digest,omitempty"`
}

// ComparisonResult holds the result of comparing two runs.
type ComparisonResult struct {
	// Previous and Current describe the compared runs.
	Previous RunMetadata `json:"previous"`
	Current  RunMetadata `json:"current"`

	// Changed lists the matched solves whose outcome differs.
	Changed []SolveChange `json:"changed,omitempty"`

	// Added lists solves only present in the current run.
	Added []SolveKey `json:"added,omitempty"`

	// Removed lists solves only present in the previous run.
	Removed []SolveKey `json:"removed,omitempty"`

	// UnchangedCount is the number of matched solves with identical outcomes.
	UnchangedCount int `json:"unchanged_count"`

	// ConvergedDelta is the change in converged solves.
	ConvergedDelta int `json:"converged_delta"`

	// SameDigest is true when both runs carry the same log digest.
	SameDigest bool `json:"same_digest,omitempty"`
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openHistoryForRead(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	previous, current, err := selectRuns(ctx, db, kind, args)
	if err != nil {
		return err
	}

	result := compareRuns(previous, current)
	if jsonOutput {
		return encodeJSON(cmd.OutOrStdout(), result)
	}
	outputComparisonText(cmd.OutOrStdout(), result)
	return nil
}

// selectRuns resolves the two runs to compare from the arguments.
func selectRuns(ctx context.Context, db *database.HistoryDB, kind string, args []string) (*database.Run, *database.Run, error) {
	var ids []string
	switch len(args) {
	case 2:
		ids = args
	default:
		runs, err := db.ListRuns(ctx, kind, 2)
		if err != nil {
			return nil, nil, err
		}
		if len(args) == 1 {
			if len(runs) == 0 {
				return nil, nil, fmt.Errorf("no %s runs found in the database", kind)
			}
			ids = []string{args[0], runs[0].ID}
			break
		}
		if len(runs) < 2 {
			return nil, nil, fmt.Errorf("at least 2 %s runs are required for comparison (found %d)", kind, len(runs))
		}
		// Runs are listed newest first.
		ids = []string{runs[1].ID, runs[0].ID}
	}

	previous, err := db.GetRun(ctx, ids[0])
	if err != nil {
		return nil, nil, err
	}
	current, err := db.GetRun(ctx, ids[1])
	if err != nil {
		return nil, nil, err
	}
	return previous, current, nil
}

// compareRuns compares two runs and generates a comparison result.
func compareRuns(previous, current *database.Run) *ComparisonResult {
	result := &ComparisonResult{
		Previous:       metadata(previous),
		Current:        metadata(current),
		ConvergedDelta: current.Converged - previous.Converged,
		SameDigest:     previous.Digest != "" && previous.Digest == current.Digest,
	}

	previousSolves := indexSolves(previous.Solves)
	currentSolves := indexSolves(current.Solves)

	for _, s := range current.Solves {
		key := solveKey(s)
		prev, ok := previousSolves[key]
		if !ok {
			result.Added = append(result.Added, key)
			continue
		}
		if sameOutcome(prev, s) {
			result.UnchangedCount++
			continue
		}
		result.Changed = append(result.Changed, SolveChange{
			SolveKey: key,
			Previous: toResult(prev),
			Current:  toResult(s),
		})
	}
	for _, s := range previous.Solves {
		key := solveKey(s)
		if _, ok := currentSolves[key]; !ok {
			result.Removed = append(result.Removed, key)
		}
	}

	sort.SliceStable(result.Removed, func(i, j int) bool {
		return result.Removed[i].String() < result.Removed[j].String()
	})
	return result
}

func metadata(r *database.Run) RunMetadata {
	return RunMetadata{
		ID:        r.ID,
		Kind:      r.Kind,
		Timestamp: r.Timestamp,
		Total:     r.Total,
		Converged: r.Converged,
		Digest:    r.Digest,
	}
}

func solveKey(s database.SolveRecord) SolveKey {
	return SolveKey{Label: s.Label, Method: s.Method, Tolerance: s.Tolerance}
}

// indexSolves maps solves by key. A repeated key keeps the first solve.
func indexSolves(solves []database.SolveRecord) map[SolveKey]database.SolveRecord {
	m := make(map[SolveKey]database.SolveRecord, len(solves))
	for _, s := range solves {
		key := solveKey(s)
		if _, ok := m[key]; !ok {
			m[key] = s
		}
	}
	return m
}

// sameOutcome reports whether two solves ended identically. NaN roots are
// equal to each other.
func sameOutcome(a, b database.SolveRecord) bool {
	return sameFloat(a.Root, b.Root) &&
		a.Iterations == b.Iterations &&
		a.Status == b.Status
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func toResult(s database.SolveRecord) solver.Result {
	return solver.Result{
		Root:       s.Root,
		Iterations: s.Iterations,
		Converged:  s.Status == solver.StatusConverged,
		Error:      s.Error,
		Status:     s.Status,
	}
}

// outputComparisonText outputs the comparison result in human-readable format.
func outputComparisonText(w io.Writer, result *ComparisonResult) {
	fmt.Fprintln(w, "Run Comparison")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Previous: %s  %s  (%d/%d converged)\n",
		result.Previous.ID, result.Previous.Timestamp.Local().Format("2006-01-02 15:04:05"),
		result.Previous.Converged, result.Previous.Total)
	fmt.Fprintf(w, "Current:  %s  %s  (%d/%d converged)\n",
		result.Current.ID, result.Current.Timestamp.Local().Format("2006-01-02 15:04:05"),
		result.Current.Converged, result.Current.Total)
	if result.SameDigest {
		fmt.Fprintln(w, "Logs:     identical digest")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Converged change: %+d\n", result.ConvergedDelta)
	fmt.Fprintf(w, "Unchanged solves: %d\n", result.UnchangedCount)

	if len(result.Changed) > 0 {
		fmt.Fprintf(w, "\nChanged (%d):\n", len(result.Changed))
		for _, c := range result.Changed {
			fmt.Fprintf(w, "  %-24s  root %s -> %s  iterations %d -> %d  %s -> %s\n",
				c.SolveKey,
				strconv.FormatFloat(c.Previous.Root, 'f', 15, 64),
				strconv.FormatFloat(c.Current.Root, 'f', 15, 64),
				c.Previous.Iterations, c.Current.Iterations,
				c.Previous.Status, c.Current.Status,
			)
		}
	}
	if len(result.Added) > 0 {
		fmt.Fprintf(w, "\nAdded (%d):\n", len(result.Added))
		for _, k := range result.Added {
			fmt.Fprintf(w, "  + %s\n", k)
		}
	}
	if len(result.Removed) > 0 {
		fmt.Fprintf(w, "\nRemoved (%d):\n", len(result.Removed))
		for _, k := range result.Removed {
			fmt.Fprintf(w, "  - %s\n", k)
		}
	}
	if len(result.Changed) == 0 && len(result.Added) == 0 && len(result.Removed) == 0 {
		fmt.Fprintln(w, "\nNo differences.")
	}
}
