// Package metafile models the bundler's build manifest: which inputs went
// into which outputs and at what cost in bytes. Both the HTML generator
// and the stats report are driven by it.
package metafile

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

type Metafile struct {
	Inputs  map[string]Input  `json:"inputs"`
	Outputs map[string]Output `json:"outputs"`
}

type Input struct {
	Bytes   int      `json:"bytes"`
	Imports []Import `json:"imports"`
	Format  string   `json:"format,omitempty"`
}

type Import struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

type Output struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []Import                `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
	CSSBundle  string                  `json:"cssBundle,omitempty"`
}

type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

func Parse(data string) (*Metafile, error) {
	m := &Metafile{}
	if err := json.Unmarshal([]byte(data), m); err != nil {
		return nil, fmt.Errorf("metafile: failed to parse: %w", err)
	}
	return m, nil
}

// OutputPaths returns every output path in deterministic order.
func (m *Metafile) OutputPaths() []string {
	paths := make([]string, 0, len(m.Outputs))
	for p := range m.Outputs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// EntryOutputs maps entry-point source path to its output path, skipping
// dynamic-import pseudo entries.
func (m *Metafile) EntryOutputs() map[string]string {
	entries := make(map[string]string)
	for out, o := range m.Outputs {
		if o.EntryPoint != "" {
			entries[o.EntryPoint] = out
		}
	}
	return entries
}

// StylesheetPaths returns all emitted .css outputs in deterministic order.
func (m *Metafile) StylesheetPaths() []string {
	var css []string
	for _, p := range m.OutputPaths() {
		if strings.HasSuffix(p, ".css") {
			css = append(css, p)
		}
	}
	return css
}

// SharedChunks returns the static imports of the given output: the chunks
// a browser will request before the entry can execute.
func (m *Metafile) SharedChunks(output string) []string {
	o, ok := m.Outputs[output]
	if !ok {
		return nil
	}
	var chunks []string
	for _, imp := range o.Imports {
		if imp.Kind == "import-statement" && !imp.External {
			chunks = append(chunks, imp.Path)
		}
	}
	sort.Strings(chunks)
	return chunks
}

// Rel makes an output path relative to the output directory prefix, for
// use as a URL path in generated HTML.
func Rel(outDir, outputPath string) string {
	prefix := path.Clean(slashed(outDir)) + "/"
	return strings.TrimPrefix(slashed(outputPath), prefix)
}

// slashed normalizes separators; the bundler reports forward slashes on
// every platform but the configured outdir may not use them.
func slashed(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
