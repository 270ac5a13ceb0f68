package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/carbocation/flowvar"
	"github.com/carbocation/flowvar/intensity"
	"github.com/carbocation/pfx"
)

// Config holds every constant the analysis depends on. The defaults reproduce
// the published CD14 analysis; outlier samples have no default because they
// are chosen by looking at the PCA plot.
type Config struct {
	ConfigPath           string               `json:"-"`
	MeasurementsPath     string               `json:"measurements"`
	LineMetadataPath     string               `json:"line_metadata"`
	Channels             intensity.ChannelMap `json:"channels"`
	DonorAliases         intensity.AliasTable `json:"donor_aliases"`
	OutlierSamples       []string             `json:"outlier_samples"`
	Response             string               `json:"response"`
	Factors              []string             `json:"factors"`
	PCAColumns           []string             `json:"pca_columns"`
	PlotDir              string               `json:"plot_dir"`
	SkipUnmappedChannels bool                 `json:"skip_unmapped_channels"`
	Method               string               `json:"method"`
}

func DefaultConfig() Config {
	return Config{
		MeasurementsPath: "data/flow_df.csv",
		LineMetadataPath: "data/line_meta.csv",
		Channels:         intensity.DefaultChannels(),
		DonorAliases:     intensity.DefaultAliases(),
		Response:         "CD14",
		Factors:          []string{intensity.ColumnFlowDate, intensity.ColumnLineID},
		PCAColumns:       intensity.DefaultChannels().Proteins(),
		Method:           "REML",
	}
}

// ParseConfigFromPath overlays the JSON file at path onto the defaults. Keys
// that are absent keep their default value; a map or list that is present
// replaces the default entirely.
func ParseConfigFromPath(path string) (Config, error) {
	out := DefaultConfig()
	out.ConfigPath = path

	f, err := os.Open(flowvar.ExpandHome(path))
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	var file Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}
		return out, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	out.overlay(file)

	if err := out.Validate(); err != nil {
		return out, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return out, nil
}

func (c *Config) overlay(file Config) {
	if file.MeasurementsPath != "" {
		c.MeasurementsPath = file.MeasurementsPath
	}
	if file.LineMetadataPath != "" {
		c.LineMetadataPath = file.LineMetadataPath
	}
	if file.Channels != nil {
		c.Channels = file.Channels
	}
	if file.DonorAliases != nil {
		c.DonorAliases = file.DonorAliases
	}
	if file.OutlierSamples != nil {
		c.OutlierSamples = file.OutlierSamples
	}
	if file.Response != "" {
		c.Response = file.Response
	}
	if file.Factors != nil {
		c.Factors = file.Factors
	}
	if file.PCAColumns != nil {
		c.PCAColumns = file.PCAColumns
	} else if file.Channels != nil {
		c.PCAColumns = file.Channels.Proteins()
	}
	if file.PlotDir != "" {
		c.PlotDir = file.PlotDir
	}
	if file.Method != "" {
		c.Method = file.Method
	}
	c.SkipUnmappedChannels = c.SkipUnmappedChannels || file.SkipUnmappedChannels
}

// Validate checks the configuration for mistakes that would otherwise only
// show up deep in the pipeline.
func (c *Config) Validate() error {
	c.MeasurementsPath = flowvar.ExpandHome(c.MeasurementsPath)
	c.LineMetadataPath = flowvar.ExpandHome(c.LineMetadataPath)
	c.PlotDir = flowvar.ExpandHome(c.PlotDir)
	c.Method = strings.ToUpper(c.Method)

	if c.MeasurementsPath == "" || c.LineMetadataPath == "" {
		return fmt.Errorf("both measurements and line_metadata paths are required")
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("no channels are mapped to proteins")
	}
	if err := c.DonorAliases.Validate(); err != nil {
		return err
	}
	if c.Response == "" {
		return fmt.Errorf("no response protein")
	}
	if len(c.Factors) == 0 {
		return fmt.Errorf("no grouping factors")
	}
	if len(c.PCAColumns) < 2 {
		return fmt.Errorf("pca_columns needs at least 2 proteins, got %v", c.PCAColumns)
	}

	proteins := make(map[string]struct{})
	for _, v := range c.Channels {
		proteins[v] = struct{}{}
	}
	for _, v := range append([]string{c.Response}, c.PCAColumns...) {
		if _, ok := proteins[v]; !ok {
			return fmt.Errorf("protein %q is not produced by any channel", v)
		}
	}

	switch c.Method {
	case "REML", "ML":
	default:
		return fmt.Errorf("method must be REML or ML, got %q", c.Method)
	}

	return nil
}
