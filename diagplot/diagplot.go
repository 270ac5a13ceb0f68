// Package diagplot draws the diagnostic figures of the CD14 analysis: the PCA
// score plot used to pick outliers by eye, and intensity by group.
package diagplot

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/flowvar/intensity"
	"github.com/carbocation/flowvar/pca"
	"github.com/carbocation/pfx"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	pointStyle = chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    drawing.Color{R: 31, G: 119, B: 180, A: 200},
	}
	flaggedStyle = chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    6,
		DotColor:    drawing.Color{R: 214, G: 39, B: 40, A: 255},
	}
)

// PCAScatter plots the first two component scores. Every point is labeled
// with its sample id; samples listed in flagged are drawn in red.
func PCAScatter(w io.Writer, res *pca.Result, flagged []string) error {
	if res.Components() < 2 {
		return fmt.Errorf("need 2 components to plot, have %d", res.Components())
	}

	isFlagged := make(map[string]struct{}, len(flagged))
	for _, v := range flagged {
		isFlagged[v] = struct{}{}
	}

	var xs, ys, fxs, fys []float64
	labels := chart.AnnotationSeries{}
	for i, id := range res.SampleIDs {
		x, y := res.Score(i, 0), res.Score(i, 1)
		if _, ok := isFlagged[id]; ok {
			fxs, fys = append(fxs, x), append(fys, y)
		} else {
			xs, ys = append(xs, x), append(ys, y)
		}
		labels.Annotations = append(labels.Annotations, chart.Value2{XValue: x, YValue: y, Label: id})
	}

	pov := res.ProportionOfVariance()
	series := []chart.Series{
		chart.ContinuousSeries{Name: "samples", Style: pointStyle, XValues: xs, YValues: ys},
	}
	if len(fxs) > 0 {
		series = append(series, chart.ContinuousSeries{Name: "flagged", Style: flaggedStyle, XValues: fxs, YValues: fys})
	}
	series = append(series, labels)

	graph := chart.Chart{
		Title:  "PCA of " + strings.Join(res.Columns, ", "),
		Width:  1024,
		Height: 768,
		XAxis:  chart.XAxis{Name: fmt.Sprintf("PC1 (%.1f%%)", 100*pov[0])},
		YAxis:  chart.YAxis{Name: fmt.Sprintf("PC2 (%.1f%%)", 100*pov[1])},
		Series: series,
	}

	return graph.Render(chart.PNG, w)
}

// GroupScatter plots one protein's intensity against the levels of an
// identifier column, e.g., CD14 by flow_date.
func GroupScatter(w io.Writer, t intensity.Table, protein, column string) error {
	values, err := t.Column(protein)
	if err != nil {
		return err
	}
	labels, err := t.Labels(column)
	if err != nil {
		return err
	}

	levels := make([]string, 0)
	position := make(map[string]float64)
	for _, v := range labels {
		if _, exists := position[v]; !exists {
			position[v] = 0
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)

	ticks := make([]chart.Tick, 0, len(levels))
	for i, level := range levels {
		position[level] = float64(i + 1)
		ticks = append(ticks, chart.Tick{Value: float64(i + 1), Label: level})
	}

	var xs, ys []float64
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, position[labels[i]])
		ys = append(ys, v)
	}
	if len(xs) == 0 {
		return fmt.Errorf("no %s values to plot", protein)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s by %s", protein, column),
		Width:  1024,
		Height: 768,
		XAxis: chart.XAxis{
			Name:  column,
			Ticks: ticks,
			Style: chart.Style{TextRotationDegrees: 45},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(levels) + 1)},
		},
		YAxis: chart.YAxis{Name: protein},
		Series: []chart.Series{
			chart.ContinuousSeries{Style: pointStyle, XValues: xs, YValues: ys},
		},
	}

	return graph.Render(chart.PNG, w)
}

// Histogram prints a terminal histogram of values, skipping NaNs.
func Histogram(w io.Writer, values []float64, bins int) error {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return fmt.Errorf("no finite values")
	}

	return histogram.Fprint(w, histogram.Hist(bins, finite), histogram.Linear(40))
}

// WritePNG renders into memory first so that a failed render does not leave a
// truncated file behind.
func WritePNG(path string, render func(io.Writer) error) error {
	buffer := bytes.NewBuffer([]byte{})
	if err := render(buffer); err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	outFile, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if _, err := buffer.WriteTo(outFile); err != nil {
		outFile.Close()
		return pfx.Err(err)
	}

	return outFile.Close()
}
