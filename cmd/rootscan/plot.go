package main

import (
	"fmt"

	"github.com/nao1215/rootscan/internal/config"
	"github.com/nao1215/rootscan/internal/function"
	"github.com/nao1215/rootscan/internal/plot"
	"github.com/spf13/cobra"
)

// NewPlotCmd creates the plot command.
func NewPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Write sampled function values for plotting",
		Long: `Plot samples every function on its display range and writes one
"x f(x)" line per sample to <function>_plot.txt in the output directory.
The files load directly into gnuplot or numpy.loadtxt.

The display range is [-10, 10] for f1 and f2 and [-15, 15] for f3, sampled
every 0.1. The plot and plots sections of the configuration file override
it, and the --range-* flags override both.

Examples:
  # Plot data of every function in the current directory
  rootscan plot

  # f2 on [0, 5] with a fine step, printed to stdout
  rootscan plot -f f2 --range-lo 0 --range-hi 5 --range-step 0.01 --stdout`,
		Args: cobra.NoArgs,
		RunE: runPlotCmd,
	}

	cmd.Flags().StringSliceP("functions", "f", nil, "Functions to plot: f1, f2, f3 (default: all)")
	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir, "Directory receiving the plot files")
	cmd.Flags().Float64("range-lo", 0, "Lower bound of the display range")
	cmd.Flags().Float64("range-hi", 0, "Upper bound of the display range")
	cmd.Flags().Float64("range-step", 0, "Sampling step of the display range")
	cmd.Flags().Bool("stdout", false, "Print the tables instead of writing files")

	return cmd
}

// runPlotCmd executes the plot command.
func runPlotCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}

	fns, err := function.Resolve(cfg.Functions)
	if err != nil {
		return err
	}
	if !toStdout {
		if err := ensureOutputDir(cfg.OutputDir); err != nil {
			return err
		}
	}

	fs := cmd.Flags()
	for i, fn := range fns {
		r := cfg.File.PlotRange(fn)
		if err := setFlag(cmd, "range-lo", &r.Lo, fs.GetFloat64); err != nil {
			return err
		}
		if err := setFlag(cmd, "range-hi", &r.Hi, fs.GetFloat64); err != nil {
			return err
		}
		if err := setFlag(cmd, "range-step", &r.Step, fs.GetFloat64); err != nil {
			return err
		}

		if toStdout {
			// Two blank lines separate gnuplot data blocks.
			if i > 0 {
				fmt.Fprint(cmd.OutOrStdout(), "\n\n")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", fn.Label())
			if err := plot.Write(cmd.OutOrStdout(), fn, r); err != nil {
				return err
			}
			continue
		}

		path, err := plot.WriteFile(cfg.OutputDir, fn, r)
		if err != nil {
			return err
		}
		logger.Debug("plot data written", "function", fn.Label(), "path", path, "points", r.Points())
		fmt.Fprintf(cmd.OutOrStdout(), "Plot data written: %s\n", path)
	}
	return nil
}
