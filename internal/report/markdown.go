package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/rootscan/internal/model"
	"github.com/nao1215/rootscan/internal/solver"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Output uses GitHub-flavored tables and alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	for _, fr := range report.Functions {
		if fr == nil {
			continue
		}
		w.writeFunction(md, fr)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run settings table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	s := report.Settings
	md.H1("Rootscan Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Domain", "[" + formatShort(s.Lo) + ", " + formatShort(s.Hi) + "]"},
			{"Step", formatShort(s.Step)},
			{"Bracket capacity", strconv.Itoa(s.Capacity)},
			{"Tolerance", formatShort(s.Tolerance)},
			{"Max iterations", strconv.Itoa(s.MaxIterations)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the status table, pie chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	counts := report.StatusCounts()
	rows := make([][]string, 0, len(statuses()))
	var total int
	for _, st := range statuses() {
		rows = append(rows, []string{st.String(), strconv.Itoa(counts[st])})
		total += counts[st]
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(total) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Solves"},
		Rows:   rows,
	})
	md.PlainText("")

	if total > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Solve Status Distribution"),
			piechart.WithShowData(true),
		)
		for _, st := range statuses() {
			if counts[st] > 0 {
				chart.LabelAndIntValue(st.String(), uint64(counts[st])) //nolint:gosec // counts are non-negative
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	failed := total - counts[solver.StatusConverged]
	switch {
	case report.RootCount() == 0:
		md.Warningf("No sign change was found in [%s, %s].", formatShort(report.Settings.Lo), formatShort(report.Settings.Hi))
	case counts[solver.StatusAborted] > 0:
		md.Cautionf("%d solve(s) were aborted.", counts[solver.StatusAborted])
	case failed > 0:
		md.Importantf("%d of %d solve(s) did not converge.", failed, total)
	default:
		md.Tip("Every solve converged.")
	}
	md.PlainText("")
}

// writeFunction writes the brackets and solves of one function.
func (w *MarkdownWriter) writeFunction(md *markdown.Markdown, fr *model.FunctionReport) {
	md.H2(fr.Function)
	md.PlainText("")
	if fr.Formula != "" {
		md.PlainTextf("`f(x) = %s`", fr.Formula)
		md.PlainText("")
	}
	if fr.CapacityExceeded {
		md.Note("The bracket capacity was exceeded; only the first brackets were solved.")
		md.PlainText("")
	}
	if fr.ErrorMessage != "" {
		md.Cautionf("Pipeline stopped: %s", fr.ErrorMessage)
		md.PlainText("")
	}

	if len(fr.Solves) == 0 {
		md.PlainText("No roots bracketed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(fr.Solves))
	for _, s := range fr.Solves {
		rows = append(rows, []string{
			s.Label,
			s.Method.String(),
			s.Interval.String(),
			formatFixed(s.Result.Root),
			strconv.Itoa(int(s.Result.Iterations)),
			formatFixed(s.Result.Error),
			s.Result.Status.String(),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Root", "Method", "Bracket", "x", "Iterations", "Error", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, s := range fr.Solves {
		if s.Error != "" {
			md.Details(s.Label+" "+s.Method.String(), s.Error)
		}
	}
}

// WriteSweep outputs the sweep report with one table per root.
func (w *MarkdownWriter) WriteSweep(report *model.SweepReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Rootscan Accuracy Sweep")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Sweep ID", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Tolerances", strconv.Itoa(len(report.Tolerances))},
			{"Digest", "`" + report.Digest + "`"},
		},
	})
	md.PlainText("")

	methods := solver.Methods()
	header := []string{"Epsilon"}
	for _, m := range methods {
		header = append(header, m.String()+" error", m.String()+" iterations")
	}

	for _, label := range report.Labels() {
		md.H2(label)
		md.PlainText("")

		series := make([][]model.Sample, len(methods))
		for i, m := range methods {
			series[i] = report.Series(label, m)
		}
		rows := make([][]string, 0, len(report.Tolerances))
		for k, eps := range report.Tolerances {
			row := []string{strconv.FormatFloat(eps, 'e', 0, 64)}
			for i := range methods {
				if k >= len(series[i]) {
					row = append(row, "-", "-")
					continue
				}
				r := series[i][k].Result
				row = append(row, formatFixed(r.Error), strconv.Itoa(int(r.Iterations)))
			}
			rows = append(rows, row)
		}
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		md.PlainText("")
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by rootscan*")
}

// formatFixed matches the %.15f of the error logs; NaN stays "NaN".
func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 15, 64)
}

func formatShort(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
