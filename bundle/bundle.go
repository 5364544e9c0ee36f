// Package bundle maps a resolved configuration onto the esbuild API and
// runs it. All side effects of a build live here: the output-directory
// reset, artifact emission, the generated HTML document and the gzip pass.
package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/packsmith/packsmith/metafile"
	"github.com/packsmith/packsmith/resolve"
)

// Artifact is one emitted output. Contents is only populated for
// in-memory builds; persisted builds leave it nil and the file on disk is
// authoritative.
type Artifact struct {
	// Path is relative to the output directory and doubles as the URL
	// path the dev server serves it under.
	Path     string
	Bytes    int
	Contents []byte
}

type Result struct {
	OutDir      string
	Artifacts   []Artifact
	Meta        *metafile.Metafile
	RawMetafile string
}

type Runner struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes one build with the given resolved configuration. It is
// synchronous and run-to-completion; a failed build leaves the output
// directory in whatever state the bundler got it to, exactly as the
// process exit code reports.
func (r *Runner) Run(cfg resolve.Config) (*Result, error) {
	opts, err := r.buildOptions(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.CleanOutdir && cfg.Write {
		// Clean-slate invariant: no stale artifact from a previous run
		// can be served.
		r.logger.Debug("resetting output directory", "dir", cfg.Outdir)
		if err := os.RemoveAll(cfg.Outdir); err != nil {
			return nil, fmt.Errorf("bundle: failed to clean output directory %s: %w", cfg.Outdir, err)
		}
		if err := os.MkdirAll(cfg.Outdir, 0o755); err != nil {
			return nil, fmt.Errorf("bundle: failed to create output directory %s: %w", cfg.Outdir, err)
		}
	}

	result := api.Build(opts)
	r.logMessages(result.Errors, result.Warnings)
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("bundle: build failed with %d errors", len(result.Errors))
	}

	meta, err := metafile.Parse(result.Metafile)
	if err != nil {
		return nil, err
	}

	res := &Result{
		OutDir:      cfg.Outdir,
		Meta:        meta,
		RawMetafile: result.Metafile,
	}
	if cfg.Write {
		for _, p := range meta.OutputPaths() {
			res.Artifacts = append(res.Artifacts, Artifact{
				Path:  metafile.Rel(cfg.Outdir, p),
				Bytes: meta.Outputs[p].Bytes,
			})
		}
	} else {
		res.Artifacts, err = r.memoryArtifacts(cfg.Outdir, result.OutputFiles)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Has(resolve.PluginHTML) {
		if err := r.emitHTML(cfg, res); err != nil {
			return nil, err
		}
	}
	if cfg.Has(resolve.PluginCompress) && cfg.Write {
		if err := r.compress(res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (r *Runner) buildOptions(cfg resolve.Config) (api.BuildOptions, error) {
	entries, plugins, err := r.entryPoints(cfg)
	if err != nil {
		return api.BuildOptions{}, err
	}

	loaders := make(map[string]api.Loader, len(cfg.Loaders))
	for ext, name := range cfg.Loaders {
		l, err := parseLoader(name)
		if err != nil {
			return api.BuildOptions{}, err
		}
		loaders[ext] = l
	}

	target, err := parseTarget(cfg.Target)
	if err != nil {
		return api.BuildOptions{}, err
	}

	opts := api.BuildOptions{
		EntryPointsAdvanced: entries,
		Bundle:              true,
		Write:               cfg.Write,
		Outdir:              cfg.Outdir,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Target:              target,
		Splitting:           cfg.Splitting,
		Metafile:            cfg.Metafile,
		MinifyWhitespace:    cfg.Minify,
		MinifyIdentifiers:   cfg.Minify,
		MinifySyntax:        cfg.Minify,
		Sourcemap:           sourcemap(cfg.Sourcemap),
		EntryNames:          cfg.EntryNames,
		ChunkNames:          cfg.ChunkNames,
		AssetNames:          cfg.AssetNames,
		Define:              cfg.Define,
		Loader:              loaders,
		Plugins:             plugins,
		LogLevel:            api.LogLevelSilent,
	}

	if cfg.Has(resolve.PluginReload) {
		opts.Banner = map[string]string{"js": reloadBanner}
	}

	return opts, nil
}

// entryPoints converts the entries map into the bundler's named entry
// list. Manifest-valued entries (.json) become virtual vendor modules
// importing every listed dependency.
func (r *Runner) entryPoints(cfg resolve.Config) ([]api.EntryPoint, []api.Plugin, error) {
	names := make([]string, 0, len(cfg.Entries))
	for name := range cfg.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var entries []api.EntryPoint
	var plugins []api.Plugin
	for _, name := range names {
		path := cfg.Entries[name]
		if strings.HasSuffix(path, ".json") {
			deps, err := manifestDependencies(path)
			if err != nil {
				return nil, nil, err
			}
			if len(deps) == 0 {
				// Empty dependency list: no vendor chunk at all.
				r.logger.Debug("dependency manifest empty, skipping chunk", "entry", name, "manifest", path)
				continue
			}
			resolveDir, err := filepath.Abs(filepath.Dir(path))
			if err != nil {
				return nil, nil, fmt.Errorf("bundle: %w", err)
			}
			entries = append(entries, api.EntryPoint{InputPath: virtualPrefix + name, OutputPath: name})
			plugins = append(plugins, vendorPlugin(name, deps, resolveDir))
			continue
		}
		entries = append(entries, api.EntryPoint{InputPath: path, OutputPath: name})
	}
	return entries, plugins, nil
}

func (r *Runner) memoryArtifacts(outDir string, files []api.OutputFile) ([]Artifact, error) {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	artifacts := make([]Artifact, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(absOut, f.Path)
		if err != nil {
			return nil, fmt.Errorf("bundle: output %s outside output directory: %w", f.Path, err)
		}
		artifacts = append(artifacts, Artifact{
			Path:     filepath.ToSlash(rel),
			Bytes:    len(f.Contents),
			Contents: f.Contents,
		})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Path < artifacts[j].Path })
	return artifacts, nil
}

func (r *Runner) logMessages(errs, warnings []api.Message) {
	for _, w := range warnings {
		r.logger.Warn("esbuild", append([]any{"text", w.Text}, logLocation(w)...)...)
	}
	for _, e := range errs {
		r.logger.Error("esbuild", append([]any{"text", e.Text}, logLocation(e)...)...)
	}
}

func logLocation(m api.Message) []any {
	if m.Location == nil {
		return nil
	}
	return []any{
		"file", m.Location.File,
		"line", m.Location.Line,
		"column", m.Location.Column,
	}
}

func sourcemap(m resolve.SourcemapMode) api.SourceMap {
	switch m {
	case resolve.SourcemapInline:
		return api.SourceMapInline
	case resolve.SourcemapLinked:
		return api.SourceMapLinked
	}
	return api.SourceMapNone
}

func parseLoader(name string) (api.Loader, error) {
	switch name {
	case "js":
		return api.LoaderJS, nil
	case "jsx":
		return api.LoaderJSX, nil
	case "ts":
		return api.LoaderTS, nil
	case "tsx":
		return api.LoaderTSX, nil
	case "css":
		return api.LoaderCSS, nil
	case "json":
		return api.LoaderJSON, nil
	case "text":
		return api.LoaderText, nil
	case "file":
		return api.LoaderFile, nil
	case "dataurl":
		return api.LoaderDataURL, nil
	case "base64":
		return api.LoaderBase64, nil
	case "binary":
		return api.LoaderBinary, nil
	case "copy":
		return api.LoaderCopy, nil
	}
	return api.LoaderNone, fmt.Errorf("bundle: unknown loader %q", name)
}

func parseTarget(name string) (api.Target, error) {
	switch name {
	case "", "es2017":
		return api.ES2017, nil
	case "esnext":
		return api.ESNext, nil
	case "es2015":
		return api.ES2015, nil
	case "es2016":
		return api.ES2016, nil
	case "es2018":
		return api.ES2018, nil
	case "es2019":
		return api.ES2019, nil
	case "es2020":
		return api.ES2020, nil
	case "es2021":
		return api.ES2021, nil
	case "es2022":
		return api.ES2022, nil
	}
	return api.DefaultTarget, fmt.Errorf("bundle: unknown target %q", name)
}

// reloadBanner is prepended to dev bundles; the dev server closes the
// stream on rebuild which makes EventSource reconnect, so a plain reload
// on message is enough.
const reloadBanner = `new EventSource("/__reload").onmessage = function() { location.reload(); };`
