package flowdata

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/araddon/dateparse"
	"github.com/carbocation/flowvar"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/parquet-go/parquet-go"
)

// DateLayout is the canonical spelling of a flow date after loading.
const DateLayout = "2006-01-02"

// Loader reads tables from local disk or Google Storage. Client may be nil if
// no gs:// paths are used.
type Loader struct {
	Client *storage.Client
}

// Measurements loads the flow cytometry table and normalizes its dates.
func (l Loader) Measurements(ctx context.Context, path string) ([]Measurement, error) {
	var out []Measurement
	if err := l.load(ctx, path, &out); err != nil {
		return nil, err
	}

	for i, v := range out {
		date, err := NormalizeDate(v.FlowDate)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s row %d: %w", path, i+1, err))
		}
		out[i].FlowDate = date
		out[i].Donor = strings.TrimSpace(v.Donor)
		out[i].Channel = strings.TrimSpace(v.Channel)
	}

	log.Printf("Loaded %d measurements from %s\n", len(out), path)

	return out, nil
}

// LineMetadata loads the cell line table.
func (l Loader) LineMetadata(ctx context.Context, path string) ([]LineMeta, error) {
	var out []LineMeta
	if err := l.load(ctx, path, &out); err != nil {
		return nil, err
	}

	for i, v := range out {
		out[i].LineID = strings.TrimSpace(v.LineID)
		out[i].Donor = strings.TrimSpace(v.Donor)
		out[i].GenotypeID = strings.TrimSpace(v.GenotypeID)
	}

	log.Printf("Loaded %d line metadata rows from %s\n", len(out), path)

	return out, nil
}

func (l Loader) load(ctx context.Context, path string, out interface{}) error {
	if IsParquet(path) {
		return l.loadParquet(ctx, path, out)
	}

	table, err := flowvar.ReadTable(ctx, path, l.Client)
	if err != nil {
		return err
	}

	return DecodeDelimited(table, out)
}

func (l Loader) loadParquet(ctx context.Context, path string, out interface{}) error {
	r, size, err := flowvar.OpenReaderAt(ctx, path, l.Client)
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	header := make([]string, 0)
	for _, field := range f.Schema().Fields() {
		header = append(header, field.Name())
	}
	if err := checkColumns(header, out, "parquet"); err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	switch dst := out.(type) {
	case *[]Measurement:
		*dst, err = parquet.Read[Measurement](r, size)
	case *[]LineMeta:
		*dst, err = parquet.Read[LineMeta](r, size)
	default:
		return pfx.Err(fmt.Errorf("%s: cannot decode parquet rows into %T", path, out))
	}
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return nil
}

// DecodeDelimited decodes a CSV-like table with a header row into out, which
// must be a pointer to a slice of tagged structs. The delimiter is detected.
// Every tagged column must be present in the header; extra columns are
// ignored.
func DecodeDelimited(table []byte, out interface{}) error {
	comma := flowvar.DetermineDelimiter(table)
	newReader := func() *csv.Reader {
		r := csv.NewReader(bytes.NewReader(table))
		r.Comma = comma
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		return r
	}

	header, err := newReader().Read()
	if err != nil {
		return pfx.Err(fmt.Errorf("reading header: %w", err))
	}
	if err := checkColumns(header, out, "csv"); err != nil {
		return pfx.Err(err)
	}

	if err := gocsv.UnmarshalCSV(newReader(), out); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// IsParquet reports whether path names a Parquet file.
func IsParquet(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".parquet")
}

// NormalizeDate rewrites any date spelling dateparse understands into
// DateLayout, so that one run day is one factor level.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty flow_date")
	}

	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		// Try some known values that dateparse fails to understand
		parsed, err = time.Parse("02-Jan-2006", raw)
		if err != nil {
			return "", fmt.Errorf("flow_date %q: %w", raw, err)
		}
	}

	return parsed.Format(DateLayout), nil
}
