package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/rootscan/internal/config"
	"github.com/nao1215/rootscan/internal/database"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the runs stored in the history database",
		Long: `History lists the solve runs and accuracy sweeps stored in the history
database, most recent first.

Examples:
  # Last 20 runs of any kind
  rootscan history

  # Every sweep
  rootscan history --kind sweep --limit 0

  # Details of one run
  rootscan history show 0b6f5c9e-...`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.PersistentFlags().String("db-dir", "", "History database directory (default: XDG data directory)")
	cmd.Flags().StringP("kind", "k", "", "Only list runs of this kind: solve or sweep")
	cmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to list (0 lists all)")

	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

// newHistoryShowCmd creates the history show command.
func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one stored run and its solves",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Print the stored JSON report")
	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	if kind != "" && kind != model.KindSolve && kind != model.KindSweep {
		return fmt.Errorf("unknown run kind %q (use %s or %s)", kind, model.KindSolve, model.KindSweep)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := openHistoryForRead(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), kind, limit)
	if err != nil {
		return err
	}
	listRuns(cmd.OutOrStdout(), runs)
	return nil
}

// runHistoryShowCmd executes the history show command.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openHistoryForRead(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}

	if asJSON {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), run.ReportJSON)
		return err
	}
	showRun(cmd.OutOrStdout(), run)
	return nil
}

// openHistoryForRead opens the history database named by --db-dir, the
// configuration file, or the XDG data directory.
func openHistoryForRead(cmd *cobra.Command) (*database.HistoryDB, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = true
	db, err := openHistory(cfg, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// listRuns prints run summaries as a table.
func listRuns(w io.Writer, runs []database.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in the database.")
		fmt.Fprintf(w, "\nUse '%s solve' or '%s sweep' to record one.\n", config.AppName, config.AppName)
		return
	}

	fmt.Fprintf(w, "Run history (%d runs):\n\n", len(runs))
	fmt.Fprintf(w, "  %-36s  %-5s  %-20s  %s\n", "ID", "Kind", "Date", "Converged")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 80))

	for _, r := range runs {
		fmt.Fprintf(w, "  %-36s  %-5s  %-20s  %d/%d\n",
			r.ID,
			r.Kind,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Converged,
			r.Total,
		)
	}

	fmt.Fprintf(w, "\nUse '%s history show <id>' to see the solves of a run.\n", config.AppName)
	fmt.Fprintf(w, "Use '%s compare <id> <id>' to compare two runs.\n", config.AppName)
}

// showRun prints a stored run and its solves.
func showRun(w io.Writer, run *database.Run) {
	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Kind:      %s\n", run.Kind)
	fmt.Fprintf(w, "Date:      %s\n", run.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Converged: %d/%d\n", run.Converged, run.Total)
	if run.Digest != "" {
		fmt.Fprintf(w, "Digest:    %s\n", run.Digest)
	}
	if run.SettingsJSON != "" {
		fmt.Fprintf(w, "Settings:  %s\n", run.SettingsJSON)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-8s  %-9s  %-7s  %-22s  %-5s  %-10s  %s\n",
		"Root", "Method", "Eps", "Value", "Iter", "Error", "Status")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 90))
	for _, s := range run.Solves {
		fmt.Fprintf(w, "  %-8s  %-9s  %-7s  %-22s  %-5d  %-10s  %s\n",
			s.Label,
			s.Method,
			strconv.FormatFloat(s.Tolerance, 'g', 3, 64),
			strconv.FormatFloat(s.Root, 'f', 15, 64),
			s.Iterations,
			strconv.FormatFloat(s.Error, 'e', 3, 64),
			s.Status,
		)
	}
}

// encodeJSON writes v as indented JSON.
func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
