package resolve

// SourcemapMode is the debug-symbol directive handed to the bundler.
type SourcemapMode int

const (
	SourcemapNone SourcemapMode = iota
	SourcemapInline
	SourcemapLinked
)

// Plugin names an output-generation step that runs around the bundler
// invocation. The resolver only merges plugin lists; the bundle package
// owns what each name does.
type Plugin string

const (
	// PluginHTML emits an index.html referencing every output artifact.
	PluginHTML Plugin = "html"
	// PluginCompress gzips persisted artifacts after emission.
	PluginCompress Plugin = "compress"
	// PluginStats writes the bundle composition report and raw metafile.
	PluginStats Plugin = "stats"
	// PluginPublish hands the output directory to the publisher after a
	// successful run.
	PluginPublish Plugin = "publish"
	// PluginReload injects the live-reload client into the dev build.
	PluginReload Plugin = "livereload"
)

// Config is the fully formed configuration handed to the bundler. The base
// instance is built once from the project file; Resolve layers the
// mode-specific fragments on top and the result is never mutated after.
type Config struct {
	// Entries maps chunk name to entry path. A value ending in .json is a
	// dependency manifest: the bundler synthesizes a module importing each
	// listed dependency (the vendor chunk).
	Entries map[string]string

	// DependencyManifest is the path to the package manifest the
	// production fragment derives the vendor entry from. Empty disables
	// the vendor chunk.
	DependencyManifest string

	// Outdir is the output directory for persisted artifacts, relative to
	// the working directory.
	Outdir string

	// Target is the language level handed to the bundler ("es2017",
	// "esnext"). Empty means the bundler default.
	Target string

	// Filename templates, forwarded to the bundler unmodified. [name] is
	// the chunk name, [hash] the per-chunk content fingerprint.
	EntryNames string
	ChunkNames string
	AssetNames string

	Sourcemap SourcemapMode

	// Define substitutes compile-time constants, which is what lets the
	// minifier strip dead branches guarded by them.
	Define map[string]string

	// Loaders maps a file extension (".svg") to a loader name understood
	// by the bundler ("file", "dataurl", "text").
	Loaders map[string]string

	Plugins []Plugin

	Minify      bool
	Splitting   bool
	Metafile    bool
	CleanOutdir bool

	// Write persists artifacts to Outdir. The dev server keeps everything
	// in memory instead.
	Write bool
}

// Has reports whether the plugin is registered.
func (c Config) Has(p Plugin) bool {
	for _, have := range c.Plugins {
		if have == p {
			return true
		}
	}
	return false
}

// Fragment is a partial Config: only the fields a mode changes. Nil
// pointers mean "not specified"; maps and lists are always additive.
type Fragment struct {
	Entries map[string]string
	Define  map[string]string
	Loaders map[string]string
	Plugins []Plugin

	Outdir     *string
	EntryNames *string
	ChunkNames *string
	AssetNames *string
	Sourcemap  *SourcemapMode

	Minify      *bool
	Splitting   *bool
	Metafile    *bool
	CleanOutdir *bool
	Write       *bool
}

// merge layers frag onto cfg. Scalars override, lists append without
// de-duplication, maps merge key-by-key with the fragment winning. Callers
// must not register the same logical plugin from two overlapping
// fragments; the superset predicates in the mode table exist precisely so
// they never do.
func merge(cfg Config, frag Fragment) Config {
	if len(frag.Entries) > 0 {
		cfg.Entries = mergeMap(cfg.Entries, frag.Entries)
	}
	if len(frag.Define) > 0 {
		cfg.Define = mergeMap(cfg.Define, frag.Define)
	}
	if len(frag.Loaders) > 0 {
		cfg.Loaders = mergeMap(cfg.Loaders, frag.Loaders)
	}
	if len(frag.Plugins) > 0 {
		plugins := make([]Plugin, 0, len(cfg.Plugins)+len(frag.Plugins))
		plugins = append(plugins, cfg.Plugins...)
		plugins = append(plugins, frag.Plugins...)
		cfg.Plugins = plugins
	}

	if frag.Outdir != nil {
		cfg.Outdir = *frag.Outdir
	}
	if frag.EntryNames != nil {
		cfg.EntryNames = *frag.EntryNames
	}
	if frag.ChunkNames != nil {
		cfg.ChunkNames = *frag.ChunkNames
	}
	if frag.AssetNames != nil {
		cfg.AssetNames = *frag.AssetNames
	}
	if frag.Sourcemap != nil {
		cfg.Sourcemap = *frag.Sourcemap
	}
	if frag.Minify != nil {
		cfg.Minify = *frag.Minify
	}
	if frag.Splitting != nil {
		cfg.Splitting = *frag.Splitting
	}
	if frag.Metafile != nil {
		cfg.Metafile = *frag.Metafile
	}
	if frag.CleanOutdir != nil {
		cfg.CleanOutdir = *frag.CleanOutdir
	}
	if frag.Write != nil {
		cfg.Write = *frag.Write
	}
	return cfg
}

// mergeMap copies base and overlays frag. The base map is never mutated:
// the caller's Config must stay read-only from the resolver's perspective.
func mergeMap(base, frag map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(frag))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range frag {
		out[k] = v
	}
	return out
}

func ptr[T any](v T) *T { return &v }
