package config

import "time"

// NewDefaultConfig creates a Config with sensible defaults: a single app
// entry, dist output, vendor chunk from package.json.
func NewDefaultConfig() *Config {
	return &Config{
		Project: Project{
			Entries:   map[string]string{"app": "src/app.js"},
			SourceDir: "src",
			OutDir:    "dist",
			Manifest:  "package.json",
		},
		Bundle: Bundle{
			Target: "es2017",
			Loaders: map[string]string{
				".svg": "file",
				".png": "file",
			},
		},
		Server: Server{
			Addr:                    ":3000",
			ReadTimeout:             Duration{Duration: 2 * time.Second},
			ReadHeaderTimeout:       Duration{Duration: 2 * time.Second},
			WriteTimeout:            Duration{Duration: 5 * time.Second},
			IdleTimeout:             Duration{Duration: 1 * time.Minute},
			ShutdownGracefulTimeout: Duration{Duration: 15 * time.Second},
			DebounceInterval:        Duration{Duration: 150 * time.Millisecond},
		},
		Deploy: Deploy{
			Branch:        "gh-pages",
			CommitMessage: "packsmith deploy",
			AuthorName:    "packsmith",
			AuthorEmail:   "packsmith@localhost",
		},
	}
}
