package main

import (
	"log"

	"github.com/carbocation/flowvar/flowdata"
	"github.com/carbocation/flowvar/intensity"
	"github.com/carbocation/flowvar/pca"
	"github.com/carbocation/flowvar/varcomp"
)

// Analysis is everything the pipeline computes in one run.
type Analysis struct {
	Assembly   intensity.AssembleStats
	Table      intensity.Table // every sample
	PCA        *pca.Result     // computed on Table, before outlier removal
	Filtered   intensity.Table // Table without the configured outliers
	Replicated intensity.Table // Filtered, lines with more than one sample

	FilteredFit   varcomp.Decomposition
	ReplicatedFit varcomp.Decomposition
}

// analyze runs the pipeline on already-loaded tables.
func analyze(ms []flowdata.Measurement, meta []flowdata.LineMeta, cfg Config) (Analysis, error) {
	out := Analysis{}

	records, stats, err := intensity.Assemble(ms, meta, intensity.AssembleOptions{
		Channels:             cfg.Channels,
		Aliases:              cfg.DonorAliases,
		SkipUnmappedChannels: cfg.SkipUnmappedChannels,
	})
	if err != nil {
		return out, err
	}
	out.Assembly = stats
	log.Println("Assembled", len(records), "intensity records")

	if out.Table, err = intensity.Pivot(records); err != nil {
		return out, err
	}
	log.Println("Pivoted into", out.Table.Len(), "samples with columns", out.Table.Proteins)

	if out.PCA, err = pca.Fit(out.Table, cfg.PCAColumns); err != nil {
		return out, err
	}

	out.Filtered = intensity.RemoveSamples(out.Table, cfg.OutlierSamples)
	log.Println("Removed", out.Table.Len()-out.Filtered.Len(), "of", len(cfg.OutlierSamples), "listed outlier samples")

	out.Replicated = intensity.ReplicatedLines(out.Filtered)
	log.Println("Kept", out.Replicated.Len(), "samples from lines measured more than once")

	fitter := varcomp.Profiled{Method: varcomp.REML}
	if cfg.Method == "ML" {
		fitter.Method = varcomp.ML
	}

	if out.FilteredFit, err = decompose(out.Filtered, cfg, fitter); err != nil {
		return out, err
	}
	if out.ReplicatedFit, err = decompose(out.Replicated, cfg, fitter); err != nil {
		return out, err
	}

	return out, nil
}

func decompose(t intensity.Table, cfg Config, fitter varcomp.Fitter) (varcomp.Decomposition, error) {
	design, err := varcomp.FromTable(t, cfg.Response, cfg.Factors...)
	if err != nil {
		return varcomp.Decomposition{}, err
	}

	return varcomp.Fit(design, varcomp.Options{Fitter: fitter})
}
