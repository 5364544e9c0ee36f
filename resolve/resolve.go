// Package resolve selects and merges the mode-specific configuration
// fragments a run needs. It is pure: no I/O, no environment access, no
// failure path. Everything with a side effect lives behind the config it
// produces.
package resolve

// rule pairs an applicability predicate with the fragment it contributes.
// The table is evaluated top to bottom and every matching fragment is
// merged in order. The production predicate covers build, stats and deploy
// so the three share one fragment instead of three copies that drift.
type rule struct {
	applies  func(Mode) bool
	fragment func(base Config) Fragment
}

var table = []rule{
	{
		applies:  func(m Mode) bool { return !m.Production() },
		fragment: devFragment,
	},
	{
		applies:  Mode.Production,
		fragment: productionFragment,
	},
	{
		applies:  func(m Mode) bool { return m == ModeStats },
		fragment: statsFragment,
	},
	{
		applies:  func(m Mode) bool { return m == ModeDeploy },
		fragment: deployFragment,
	},
}

// Resolve produces the configuration for one invocation. Identical inputs
// always yield an identical result; base is not mutated.
func Resolve(mode Mode, base Config) Config {
	cfg := base
	for _, r := range table {
		if r.applies(mode) {
			cfg = merge(cfg, r.fragment(base))
		}
	}
	return cfg
}

// devFragment serves the single app entry from memory with nothing
// fingerprinted and nothing minified.
func devFragment(Config) Fragment {
	return Fragment{
		EntryNames: ptr("[name]"),
		ChunkNames: ptr("[name]"),
		Sourcemap:  ptr(SourcemapNone),
		Minify:     ptr(false),
		Metafile:   ptr(true),
		Write:      ptr(false),
		Plugins:    []Plugin{PluginHTML, PluginReload},
	}
}

// productionFragment is shared by build, stats and deploy: persisted
// fingerprinted output, full source maps, minification with dead-code
// stripping, the manifest-derived vendor entry, duplicate-module
// elimination across chunks, and an output-directory reset.
func productionFragment(base Config) Fragment {
	f := Fragment{
		EntryNames:  ptr("[name].[hash]"),
		ChunkNames:  ptr("chunks/[name].[hash]"),
		AssetNames:  ptr("assets/[name].[hash]"),
		Sourcemap:   ptr(SourcemapLinked),
		Minify:      ptr(true),
		Splitting:   ptr(true),
		Metafile:    ptr(true),
		CleanOutdir: ptr(true),
		Write:       ptr(true),
		Define:      map[string]string{"process.env.NODE_ENV": `"production"`},
		Plugins:     []Plugin{PluginHTML, PluginCompress},
	}
	if base.DependencyManifest != "" {
		f.Entries = map[string]string{"vendor": base.DependencyManifest}
	}
	return f
}

func statsFragment(Config) Fragment {
	return Fragment{
		Metafile: ptr(true),
		Plugins:  []Plugin{PluginStats},
	}
}

func deployFragment(Config) Fragment {
	return Fragment{
		Plugins: []Plugin{PluginPublish},
	}
}
