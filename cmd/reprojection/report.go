package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/reprojection-calibration/reprojection-sub000/calibration"
)

// printStatus prints one line with the termination of the refinement, green when it converged.
func printStatus(w io.Writer, result *calibration.Result) {
	status := color.New(color.FgGreen, color.Bold)
	if !result.Summary.Converged() {
		status = color.New(color.FgYellow, color.Bold)
	}
	status.Fprintf(w, "%s", result.Summary.Termination)
	fmt.Fprintf(w, " after %d iterations in %s", result.Summary.Iterations, result.Summary.Duration)
	if result.Summary.Message != "" {
		fmt.Fprintf(w, ": %s", result.Summary.Message)
	}
	fmt.Fprintln(w)
}

// renderSummary prints the initial, refined, and true intrinsics of a run side by side.
func renderSummary(result *calibration.Result, truth []float64) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("run %s: %s (%s)", result.RunID, result.Camera.Name, result.Camera.Model))
	t.AppendHeader(table.Row{"", "Intrinsics"})
	t.AppendRow(table.Row{"Initial", formatValues(result.InitialIntrinsics)})
	t.AppendRow(table.Row{"Refined", formatValues(result.State.Camera.Intrinsics)})
	if truth != nil {
		t.AppendRow(table.Row{"Truth", formatValues(truth)})
	}
	t.AppendFooter(table.Row{
		result.Summary.Termination.String(),
		fmt.Sprintf("cost %.3g -> %.3g in %d iterations", result.Summary.InitialCost, result.Summary.FinalCost,
			result.Summary.Iterations),
	})
	return t.Render()
}

// renderFrameErrors prints a row of reprojection error statistics per frame.
func renderFrameErrors(result *calibration.Result) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Timestamp (ns)", "Features", "Initial mean", "Initial max", "Final mean", "Final max"})
	for _, frame := range result.Frames {
		t.AppendRow(table.Row{
			frame.Timestamp,
			frame.Final.Count,
			fmt.Sprintf("%.4f", frame.Initial.Mean),
			fmt.Sprintf("%.4f", frame.Initial.Max),
			fmt.Sprintf("%.6f", frame.Final.Mean),
			fmt.Sprintf("%.6f", frame.Final.Max),
		})
	}
	if len(result.SkippedFrames) > 0 {
		t.AppendFooter(table.Row{"skipped", len(result.SkippedFrames)})
	}
	return t.Render()
}

// renderErrorHistogram buckets the initial mean error of the frames. It returns false when the
// frames do not spread over more than one value.
func renderErrorHistogram(result *calibration.Result, bins int) (string, bool) {
	means := make([]float64, len(result.Frames))
	for i, frame := range result.Frames {
		means[i] = frame.Initial.Mean
	}
	if len(lo.Uniq(means)) < 2 {
		return "", false
	}
	t := table.NewWriter()
	t.SetTitle("initial mean error per frame")
	t.AppendHeader(table.Row{"From (px)", "To (px)", "Frames"})
	for _, bucket := range histogram.Hist(bins, means).Buckets {
		t.AppendRow(table.Row{fmt.Sprintf("%.3f", bucket.Min), fmt.Sprintf("%.3f", bucket.Max), bucket.Count})
	}
	return t.Render(), true
}

// plotFrameErrors charts the mean reprojection error of every frame before and after refinement.
// The format follows the extension of path.
func plotFrameErrors(result *calibration.Result, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Reprojection error - %s", result.Camera.Name)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Mean error (px)"

	initial := make(plotter.XYs, 0, len(result.Frames))
	final := make(plotter.XYs, 0, len(result.Frames))
	for i, frame := range result.Frames {
		initial = append(initial, plotter.XY{X: float64(i), Y: frame.Initial.Mean})
		final = append(final, plotter.XY{X: float64(i), Y: frame.Final.Mean})
	}
	if err := plotutil.AddLinePoints(p, "initial", initial, "refined", final); err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(parts, ", ")
}
