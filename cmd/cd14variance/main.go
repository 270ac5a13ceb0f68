// cd14variance estimates how much of the variance in CD14 intensity is due
// to flow date and to cell line, with a crossed random-intercept mixed model.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/flowvar"
	"github.com/carbocation/flowvar/compileinfo"
	"github.com/carbocation/flowvar/diagplot"
	"github.com/carbocation/flowvar/flowdata"
	"github.com/carbocation/flowvar/varcomp"
	"github.com/carbocation/pfx"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	fmt.Fprintln(os.Stderr, compileinfo.Get())

	var configPath, measurements, lineMeta, plotDir, outliers string
	var skipUnmapped, ml bool

	flag.StringVar(&configPath, "config", "", "Path to a JSON config file. (Optional; defaults reproduce the published analysis.)")
	flag.StringVar(&measurements, "measurements", "", "Path to the flow cytometry table (csv/tsv, optionally compressed, or .parquet; gs:// allowed). Overrides the config.")
	flag.StringVar(&lineMeta, "meta", "", "Path to the cell line metadata table. Overrides the config.")
	flag.StringVar(&plotDir, "plots", "", "Folder where diagnostic PNGs will be written. If empty, no plots are made.")
	flag.StringVar(&outliers, "outliers", "", "Comma-separated sample ids (line_id_flow_date) to remove. Overrides the config.")
	flag.BoolVar(&skipUnmapped, "skip-unmapped", false, "Drop measurements on channels with no protein mapping instead of failing?")
	flag.BoolVar(&ml, "ml", false, "Fit by maximum likelihood instead of REML?")
	flag.Parse()

	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = ParseConfigFromPath(configPath)
		if err != nil {
			log.Fatalln(err)
		}
		log.Println("Loaded config", configPath)
	}

	if measurements != "" {
		cfg.MeasurementsPath = measurements
	}
	if lineMeta != "" {
		cfg.LineMetadataPath = lineMeta
	}
	if plotDir != "" {
		cfg.PlotDir = plotDir
	}
	if outliers != "" {
		cfg.OutlierSamples = strings.Split(outliers, ",")
	}
	if skipUnmapped {
		cfg.SkipUnmappedChannels = true
	}
	if ml {
		cfg.Method = "ML"
	}
	if err := cfg.Validate(); err != nil {
		flag.Usage()
		log.Fatalln(err)
	}

	if err := run(context.Background(), cfg, STDOUT); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, cfg Config, w io.Writer) error {
	loader := flowdata.Loader{}

	// Initialize the Google Storage client only if we're pointing to Google
	// Storage paths.
	if flowvar.IsGoogleStorage(cfg.MeasurementsPath) || flowvar.IsGoogleStorage(cfg.LineMetadataPath) {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return pfx.Err(err)
		}
		defer client.Close()
		loader.Client = client
	}

	ms, err := loader.Measurements(ctx, cfg.MeasurementsPath)
	if err != nil {
		return err
	}

	meta, err := loader.LineMetadata(ctx, cfg.LineMetadataPath)
	if err != nil {
		return err
	}

	a, err := analyze(ms, meta, cfg)
	if err != nil {
		return err
	}

	if values, err := a.Table.Column(cfg.Response); err == nil {
		log.Println("Distribution of", cfg.Response, "across all samples:")
		if err := diagplot.Histogram(os.Stderr, values, 20); err != nil {
			log.Println("Could not draw histogram:", err)
		}
	}

	if cfg.PlotDir != "" {
		if err := writePlots(a, cfg); err != nil {
			return err
		}
	}

	// Every report starts with the build and library versions that produced it
	if err := compileinfo.Get().Fprint(w); err != nil {
		return pfx.Err(err)
	}
	printPCA(w, a)
	if err := printSummaries(w, a.Filtered, cfg); err != nil {
		return err
	}
	printDecompositions(w, []string{"outliers_removed", "replicated_lines"}, []varcomp.Decomposition{a.FilteredFit, a.ReplicatedFit})

	return nil
}

func writePlots(a Analysis, cfg Config) error {
	if err := os.MkdirAll(cfg.PlotDir, 0755); err != nil {
		return pfx.Err(err)
	}

	path := filepath.Join(cfg.PlotDir, "pca.png")
	if err := diagplot.WritePNG(path, func(w io.Writer) error {
		return diagplot.PCAScatter(w, a.PCA, cfg.OutlierSamples)
	}); err != nil {
		return err
	}
	log.Println("Wrote", path)

	for _, column := range cfg.Factors {
		path := filepath.Join(cfg.PlotDir, fmt.Sprintf("%s_by_%s.png", cfg.Response, column))
		if err := diagplot.WritePNG(path, func(w io.Writer) error {
			return diagplot.GroupScatter(w, a.Filtered, cfg.Response, column)
		}); err != nil {
			return err
		}
		log.Println("Wrote", path)
	}

	return nil
}
