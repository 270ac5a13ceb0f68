package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/flowvar/intensity"
	"github.com/carbocation/flowvar/varcomp"
)

func printPCA(w io.Writer, a Analysis) {
	res := a.PCA
	pov := res.ProportionOfVariance()

	fmt.Fprintln(w, strings.Join([]string{"component", "variance", "proportion_of_variance"}, "\t"))
	for k, v := range res.Variances {
		fmt.Fprintf(w, "PC%d\t%.6g\t%.6g\n", k+1, v, pov[k])
	}
	fmt.Fprintln(w)

	header := []string{"sample_id"}
	for k := range res.Variances {
		header = append(header, fmt.Sprintf("PC%d", k+1))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for i, id := range res.SampleIDs {
		row := []string{id}
		for k := range res.Variances {
			row = append(row, fmt.Sprintf("%.6g", res.Score(i, k)))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	fmt.Fprintln(w)
}

func printSummaries(w io.Writer, t intensity.Table, cfg Config) error {
	fmt.Fprintln(w, strings.Join([]string{"protein", "column", "level", "n", "mean", "median", "sd"}, "\t"))
	for _, column := range cfg.Factors {
		summaries, err := intensity.Summarize(t, cfg.Response, column)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.6g\t%.6g\t%.6g\n", cfg.Response, s.Column, s.Level, s.N, s.Mean, s.Median, s.SD)
		}
	}
	fmt.Fprintln(w)

	return nil
}

// printDecompositions writes one row per subset with one share per factor
// and the residual.
func printDecompositions(w io.Writer, subsets []string, fits []varcomp.Decomposition) {
	if len(fits) == 0 {
		return
	}

	header := append([]string{"subset", "method", "n"}, fits[0].Names...)
	header = append(header, "log_likelihood")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for i, fit := range fits {
		row := []string{subsets[i], fit.Method.String(), fmt.Sprintf("%d", fit.Observations)}
		for _, name := range fit.Names {
			row = append(row, fmt.Sprintf("%.6f", fit.Percent[name]))
		}
		row = append(row, fmt.Sprintf("%.6f", fit.LogLikelihood))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}
