// Package stats turns a build's metafile into the machine-readable
// composition report the stats mode emits. External visualizers consume
// the raw metafile written alongside it.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/packsmith/packsmith/metafile"
)

const (
	// ReportFile is the fixed report path inside the output directory.
	ReportFile = "stats.json"
	// MetafileFile is the raw bundler manifest for external tooling.
	MetafileFile = "metafile.json"

	topModules = 20
)

type Report struct {
	TotalBytes int          `json:"totalBytes"`
	Outputs    []OutputStat `json:"outputs"`
	TopModules []ModuleStat `json:"topModules"`
}

type OutputStat struct {
	Path       string `json:"path"`
	Bytes      int    `json:"bytes"`
	EntryPoint string `json:"entryPoint,omitempty"`
	Inputs     int    `json:"inputs"`
}

// ModuleStat is one input module and the bytes it contributed across all
// outputs it was bundled into.
type ModuleStat struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// Build computes the composition report for one build.
func Build(meta *metafile.Metafile) *Report {
	r := &Report{}
	sketch := newModuleSketch(topModules)

	for _, path := range meta.OutputPaths() {
		out := meta.Outputs[path]
		r.TotalBytes += out.Bytes
		r.Outputs = append(r.Outputs, OutputStat{
			Path:       path,
			Bytes:      out.Bytes,
			EntryPoint: out.EntryPoint,
			Inputs:     len(out.Inputs),
		})
		for input, contrib := range out.Inputs {
			sketch.add(input, contrib.BytesInOutput)
		}
	}

	r.TopModules = sketch.top()
	return r
}

// Write emits the report and the raw metafile into dir at their fixed
// paths.
func Write(dir string, meta *metafile.Metafile, raw string, logger *slog.Logger) error {
	report := Build(meta)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: failed to encode report: %w", err)
	}
	reportPath := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return fmt.Errorf("stats: failed to write %s: %w", reportPath, err)
	}

	metaPath := filepath.Join(dir, MetafileFile)
	if err := os.WriteFile(metaPath, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("stats: failed to write %s: %w", metaPath, err)
	}

	logger.Info("wrote build composition report",
		"report", reportPath,
		"outputs", len(report.Outputs),
		"total_bytes", report.TotalBytes,
	)
	return nil
}
