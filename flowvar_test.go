package flowvar

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDetermineDelimiter(t *testing.T) {
	for _, v := range []struct {
		Input    string
		Expected rune
	}{
		{"donor,channel,mean1\nabcd,APC,1.5\nefgh,PE,2.5\nijkl,FITC,3.5", ','},
		{"donor\tchannel\tmean1\nabcd\tAPC\t1.5\nefgh\tPE\t2.5\nijkl\tFITC\t3.5\n", '\t'},
		{"donor;channel;mean1\nabcd;APC;1.5\nefgh;PE;2.5\nijkl;FITC;3.5\n", ';'},
	} {
		if got := DetermineDelimiter([]byte(v.Input)); got != v.Expected {
			t.Errorf("Input %q: expected %q, got %q", v.Input, v.Expected, got)
		}
	}
}

// payload compressed with bzip2, and with xz using a CRC32 check.
var (
	bzip2Payload = []byte{
		0x42, 0x5a, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26, 0x53, 0x59, 0xb8, 0xe4,
		0xfb, 0xa1, 0x00, 0x00, 0x0e, 0xdf, 0x80, 0x00, 0x10, 0x00, 0x04, 0x60,
		0x00, 0x00, 0x60, 0x48, 0x00, 0x87, 0xb5, 0xd4, 0x20, 0x20, 0x00, 0x31,
		0x46, 0x8c, 0x81, 0xa3, 0x4c, 0x8d, 0x06, 0xa6, 0x80, 0xd3, 0x43, 0x41,
		0xa1, 0x58, 0x91, 0x2b, 0x1a, 0x9d, 0x2c, 0x96, 0xc0, 0xc8, 0x65, 0x2e,
		0x24, 0x1d, 0xa1, 0xcd, 0xdc, 0xd9, 0x23, 0x50, 0xde, 0x90, 0xf7, 0xc5,
		0xdc, 0x91, 0x4e, 0x14, 0x24, 0x2e, 0x39, 0x3e, 0xe8, 0x40,
	}
	xzPayload = []byte{
		0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00, 0x01, 0x69, 0x22, 0xde, 0x36,
		0x02, 0x00, 0x21, 0x01, 0x16, 0x00, 0x00, 0x00, 0x74, 0x2f, 0xe5, 0xa3,
		0x01, 0x00, 0x28, 0x6c, 0x69, 0x6e, 0x65, 0x5f, 0x69, 0x64, 0x2c, 0x64,
		0x6f, 0x6e, 0x6f, 0x72, 0x2c, 0x67, 0x65, 0x6e, 0x6f, 0x74, 0x79, 0x70,
		0x65, 0x5f, 0x69, 0x64, 0x0a, 0x48, 0x50, 0x53, 0x49, 0x30, 0x31, 0x2c,
		0x66, 0x70, 0x64, 0x6a, 0x2c, 0x67, 0x31, 0x0a, 0x00, 0x00, 0x00, 0x00,
		0xd9, 0xfb, 0xf2, 0xe9, 0x00, 0x01, 0x3d, 0x29, 0xf9, 0x65, 0xdc, 0x08,
		0x90, 0x42, 0x99, 0x0d, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01, 0x59, 0x5a,
	}
)

func gzipBytes(t *testing.T, payload []byte) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// zipBytes stores payload as the first entry, followed by a decoy entry.
func zipBytes(t *testing.T, payload []byte) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range []struct {
		Name string
		Body []byte
	}{
		{"line_meta.csv", payload},
		{"README", []byte("not a table\n")},
	} {
		w, err := zw.Create(entry.Name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(entry.Body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestMaybeDecompress(t *testing.T) {
	payload := []byte("line_id,donor,genotype_id\nHPSI01,fpdj,g1\n")

	for _, v := range []struct {
		Input    []byte
		Expected DataType
	}{
		{payload, DataTypeNoCompression},
		{gzipBytes(t, payload), DataTypeGzip},
		{zipBytes(t, payload), DataTypeZip},
		{bzip2Payload, DataTypeBZip2},
		{xzPayload, DataTypeXZ},
	} {
		r, dt, err := MaybeDecompress(bytes.NewReader(v.Input))
		if err != nil {
			t.Fatalf("%s: %v", v.Expected, err)
		}
		if dt != v.Expected {
			t.Fatalf("Expected %s, got %s", v.Expected, dt)
		}

		var out bytes.Buffer
		if _, err := out.ReadFrom(r); err != nil {
			t.Fatalf("%s: %v", v.Expected, err)
		}
		if !bytes.Equal(out.Bytes(), payload) {
			t.Fatalf("%s: expected %q, got %q", v.Expected, payload, out.Bytes())
		}
	}
}

func TestReadTableCompressed(t *testing.T) {
	payload := []byte("line_id,donor,genotype_id\nHPSI01,fpdj,g1\n")

	for name, body := range map[string][]byte{
		"line_meta.csv.zip": zipBytes(t, payload),
		"line_meta.csv.bz2": bzip2Payload,
		"line_meta.csv.xz":  xzPayload,
	} {
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, body, 0644); err != nil {
			t.Fatal(err)
		}

		table, err := ReadTable(context.Background(), path, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(table, payload) {
			t.Fatalf("%s: expected %q, got %q", name, payload, table)
		}
	}
}

func TestMaybeDecompressShortInput(t *testing.T) {
	_, dt, err := MaybeDecompress(bytes.NewReader([]byte("a\n")))
	if err != nil {
		t.Fatal(err)
	}
	if dt != DataTypeNoCompression {
		t.Fatalf("Expected uncompressed, got %s", dt)
	}
}

func TestSplitGoogleStoragePath(t *testing.T) {
	bucket, object, err := splitGoogleStoragePath("gs://lab-bucket/flow/flow_df.csv.gz")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "lab-bucket" || object != "flow/flow_df.csv.gz" {
		t.Fatalf("Unexpected split: %s %s", bucket, object)
	}

	if _, _, err := splitGoogleStoragePath("gs://lab-bucket"); err == nil {
		t.Fatal("Expected an error for a bucket without an object")
	}
}
