package compileinfo

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"
)

func testBuildInfo() *debug.BuildInfo {
	return &debug.BuildInfo{
		GoVersion: "go1.21.0",
		Path:      "github.com/carbocation/flowvar/cmd/cd14variance",
		Main:      debug.Module{Path: "github.com/carbocation/flowvar"},
		Deps: []*debug.Module{
			{Path: "gonum.org/v1/gonum", Version: "v0.9.3"},
			{Path: "github.com/wcharczuk/go-chart/v2", Version: "v2.1.0"},
			{Path: "github.com/parquet-go/parquet-go", Version: "v0.24.0", Replace: &debug.Module{Path: "github.com/parquet-go/parquet-go", Version: "v0.24.1"}},
		},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2022-06-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
}

func TestFromBuildInfo(t *testing.T) {
	p := fromBuildInfo(testBuildInfo())

	if p.Module != "github.com/carbocation/flowvar" || p.Revision != "abc123" || !p.Dirty {
		t.Fatalf("Unexpected provenance %+v", p)
	}
	if len(p.Libraries) != 2 {
		t.Fatalf("Expected only the numerical libraries, got %v", p.Libraries)
	}
	if p.Libraries["github.com/parquet-go/parquet-go"] != "v0.24.1" {
		t.Fatalf("Expected the replacement version, got %v", p.Libraries)
	}
}

func TestLines(t *testing.T) {
	lines := fromBuildInfo(testBuildInfo()).Lines()

	expected := []string{
		"# build: github.com/carbocation/flowvar abc123+dirty (go1.21.0)",
		"# commit_time: 2022-06-01T00:00:00Z",
		"# gonum.org/v1/gonum: v0.9.3",
		"# github.com/parquet-go/parquet-go: v0.24.1",
	}
	if strings.Join(lines, "\n") != strings.Join(expected, "\n") {
		t.Fatalf("Expected\n%s\ngot\n%s", strings.Join(expected, "\n"), strings.Join(lines, "\n"))
	}
}

func TestFprintWithoutRevision(t *testing.T) {
	var buf bytes.Buffer
	p := Provenance{Module: "unknown", GoVersion: "go1.21.0"}
	if err := p.Fprint(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "# build: unknown unknown revision (go1.21.0)\n" {
		t.Fatalf("Unexpected output %q", buf.String())
	}
}
