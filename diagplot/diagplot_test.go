package diagplot

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/flowvar/intensity"
	"github.com/carbocation/flowvar/pca"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func testTable() intensity.Table {
	rows := []struct {
		Line, Date        string
		CD14, CD16, CD206 float64
	}{
		{"A", "2020-01-01", 900, 400, 250},
		{"A", "2020-01-02", 600, 300, 200},
		{"B", "2020-01-01", 1200, 350, 260},
		{"B", "2020-01-03", 750, 500, 180},
		{"C", "2020-01-02", 1000, 420, 300},
	}

	out := intensity.Table{Proteins: []string{"CD14", "CD16", "CD206"}}
	for _, r := range rows {
		out.Samples = append(out.Samples, intensity.Sample{
			LineID:   r.Line,
			FlowDate: r.Date,
			Values:   map[string]float64{"CD14": r.CD14, "CD16": r.CD16, "CD206": r.CD206},
		})
	}
	return out
}

func TestPCAScatter(t *testing.T) {
	res, err := pca.Fit(testTable(), []string{"CD14", "CD16", "CD206"})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := PCAScatter(&buf, res, []string{"B_2020-01-03"}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatal("Output is not a PNG")
	}
}

func TestGroupScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cd14_by_date.png")

	err := WritePNG(path, func(w io.Writer) error {
		return GroupScatter(w, testTable(), "CD14", intensity.ColumnFlowDate)
	})
	if err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, pngMagic) {
		t.Fatal("Output is not a PNG")
	}

	if err := GroupScatter(&bytes.Buffer{}, testTable(), "CD99", intensity.ColumnFlowDate); err == nil {
		t.Fatal("Expected an error for an unknown protein")
	}
}

func TestHistogram(t *testing.T) {
	var buf bytes.Buffer
	if err := Histogram(&buf, []float64{1, 2, 2, 3, 3, 3, 4}, 4); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("Expected histogram output")
	}
}
