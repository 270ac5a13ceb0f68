// Package compileinfo records the provenance of a variance decomposition: the
// commit of this module and the versions of the libraries that decide the
// numbers (the optimizer, the PCA, and the table readers).
package compileinfo

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
)

// NumericalModules are the dependencies whose versions can change fitted
// variances or loaded values.
var NumericalModules = []string{
	"gonum.org/v1/gonum",
	"github.com/parquet-go/parquet-go",
	"github.com/gocarina/gocsv",
	"github.com/araddon/dateparse",
}

type Provenance struct {
	Module    string
	GoVersion string
	Revision  string
	Time      string
	Dirty     bool

	// module path => version, for NumericalModules found in the binary
	Libraries map[string]string
}

// Get reads the build information embedded by the go tool. Binaries built
// outside a checkout have no revision.
func Get() Provenance {
	out := Provenance{Module: "unknown", Libraries: make(map[string]string)}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) Provenance {
	out := Provenance{
		Module:    info.Main.Path,
		GoVersion: info.GoVersion,
		Libraries: make(map[string]string),
	}
	if out.Module == "" {
		out.Module = info.Path
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Revision = s.Value
		case "vcs.time":
			out.Time = s.Value
		case "vcs.modified":
			out.Dirty = s.Value == "true"
		}
	}

	wanted := make(map[string]struct{}, len(NumericalModules))
	for _, v := range NumericalModules {
		wanted[v] = struct{}{}
	}
	for _, dep := range info.Deps {
		if dep.Replace != nil {
			dep = dep.Replace
		}
		if _, ok := wanted[dep.Path]; ok {
			out.Libraries[dep.Path] = dep.Version
		}
	}

	return out
}

func (p Provenance) String() string {
	revision := p.Revision
	if revision == "" {
		revision = "unknown revision"
	} else if p.Dirty {
		revision += "+dirty"
	}

	return fmt.Sprintf("%s %s (%s)", p.Module, revision, p.GoVersion)
}

// Lines renders the provenance as "# key: value" lines, with libraries in
// NumericalModules order. Missing libraries are omitted.
func (p Provenance) Lines() []string {
	out := []string{"# build: " + p.String()}
	if p.Time != "" {
		out = append(out, "# commit_time: "+p.Time)
	}
	for _, path := range NumericalModules {
		if version, ok := p.Libraries[path]; ok {
			out = append(out, fmt.Sprintf("# %s: %s", path, version))
		}
	}

	return out
}

func (p Provenance) Fprint(w io.Writer) error {
	_, err := fmt.Fprintln(w, strings.Join(p.Lines(), "\n"))
	return err
}
