package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/packsmith/packsmith/metafile"
	"github.com/packsmith/packsmith/resolve"
)

// emitHTML generates the entry document referencing every emitted bundle:
// stylesheet links, modulepreload hints for shared chunks, and a module
// script per entry point. Persisted builds write index.html into the
// output directory; in-memory builds append it as an artifact.
func (r *Runner) emitHTML(cfg resolve.Config, res *Result) error {
	html := renderIndex(cfg.Outdir, res.Meta)

	if cfg.Write {
		path := filepath.Join(cfg.Outdir, "index.html")
		if err := os.WriteFile(path, html, 0o644); err != nil {
			return fmt.Errorf("bundle: failed to write %s: %w", path, err)
		}
	}
	res.Artifacts = append(res.Artifacts, Artifact{
		Path:     "index.html",
		Bytes:    len(html),
		Contents: contentsUnlessWritten(cfg.Write, html),
	})
	return nil
}

func contentsUnlessWritten(written bool, b []byte) []byte {
	if written {
		return nil
	}
	return b
}

func renderIndex(outDir string, meta *metafile.Metafile) []byte {
	entries := meta.EntryOutputs()

	outputs := make([]string, 0, len(entries))
	for _, out := range entries {
		if strings.HasSuffix(out, ".js") {
			outputs = append(outputs, out)
		}
	}
	sort.Strings(outputs)

	preload := make(map[string]bool)
	for _, out := range outputs {
		for _, chunk := range meta.SharedChunks(out) {
			preload[chunk] = true
		}
	}
	chunks := make([]string, 0, len(preload))
	for c := range preload {
		chunks = append(chunks, c)
	}
	sort.Strings(chunks)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	for _, css := range meta.StylesheetPaths() {
		fmt.Fprintf(&b, "  <link rel=\"stylesheet\" href=\"%s\">\n", metafile.Rel(outDir, css))
	}
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "  <link rel=\"modulepreload\" href=\"%s\">\n", metafile.Rel(outDir, chunk))
	}
	b.WriteString("</head>\n<body>\n  <div id=\"root\"></div>\n")
	for _, out := range outputs {
		fmt.Fprintf(&b, "  <script type=\"module\" src=\"%s\"></script>\n", metafile.Rel(outDir, out))
	}
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
