package config

import (
	"time"

	"github.com/packsmith/packsmith/resolve"
)

// Config is the project file (packsmith.toml). It is loaded once per
// invocation and read-only afterward; the mode resolver layers its
// fragments on the Base() it produces.
type Config struct {
	Project Project `toml:"project"`
	Bundle  Bundle  `toml:"bundle"`
	Server  Server  `toml:"server"`
	Deploy  Deploy  `toml:"deploy"`
}

type Project struct {
	// Entries maps chunk name to source entry path.
	Entries map[string]string `toml:"entries"`

	// SourceDir is the root the dev server watches.
	SourceDir string `toml:"source_dir"`

	// OutDir receives persisted build artifacts. It is owned exclusively
	// by the production modes for the duration of a run and reset before
	// anything is written.
	OutDir string `toml:"out_dir"`

	// Manifest is the dependency manifest (package.json) the vendor chunk
	// is derived from. Empty disables the vendor chunk.
	Manifest string `toml:"manifest"`
}

type Bundle struct {
	// Target is the language level handed to the bundler (es2017, es2020,
	// esnext).
	Target string `toml:"target"`

	// Loaders maps file extensions to loader names (file, dataurl, text).
	Loaders map[string]string `toml:"loaders"`

	// Define lists additional compile-time constant substitutions on top
	// of the ones the production fragment sets.
	Define map[string]string `toml:"define"`
}

type Server struct {
	Addr                    string   `toml:"addr"`
	ReadTimeout             Duration `toml:"read_timeout"`
	ReadHeaderTimeout       Duration `toml:"read_header_timeout"`
	WriteTimeout            Duration `toml:"write_timeout"`
	IdleTimeout             Duration `toml:"idle_timeout"`
	ShutdownGracefulTimeout Duration `toml:"shutdown_graceful_timeout"`

	// DebounceInterval coalesces filesystem events into one rebuild.
	DebounceInterval Duration `toml:"debounce_interval"`
}

type Deploy struct {
	// Remote is the git remote URL (or name) the output directory is
	// pushed to.
	Remote string `toml:"remote"`

	// Branch is the static-hosting branch, conventionally gh-pages.
	Branch string `toml:"branch"`

	// CommitMessage for the publish commit. A timestamp is appended.
	CommitMessage string `toml:"commit_message"`

	AuthorName  string `toml:"author_name"`
	AuthorEmail string `toml:"author_email"`
}

// Duration wraps time.Duration for TOML text values like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Base converts the project file into the resolver's mode-independent
// base configuration.
func (c *Config) Base() resolve.Config {
	entries := make(map[string]string, len(c.Project.Entries))
	for name, path := range c.Project.Entries {
		entries[name] = path
	}
	loaders := make(map[string]string, len(c.Bundle.Loaders))
	for ext, loader := range c.Bundle.Loaders {
		loaders[ext] = loader
	}
	define := make(map[string]string, len(c.Bundle.Define))
	for k, v := range c.Bundle.Define {
		define[k] = v
	}

	return resolve.Config{
		Entries:            entries,
		DependencyManifest: c.Project.Manifest,
		Outdir:             c.Project.OutDir,
		Target:             c.Bundle.Target,
		EntryNames:         "[name]",
		Loaders:            loaders,
		Define:             define,
	}
}
