package bundle

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/packsmith/packsmith/resolve"
)

func testRunner() *Runner {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// writeProject lays out a minimal source tree in dir and chdirs into it.
func writeProject(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(dir)
}

func baseConfig() resolve.Config {
	return resolve.Config{
		Entries: map[string]string{"app": "src/app.js"},
		Outdir:  "dist",
	}
}

func listArtifacts(t *testing.T, res *Result) []string {
	t.Helper()
	paths := make([]string, 0, len(res.Artifacts))
	for _, a := range res.Artifacts {
		paths = append(paths, a.Path)
	}
	sort.Strings(paths)
	return paths
}

func findOne(t *testing.T, paths []string, prefix, suffix string) string {
	t.Helper()
	var found string
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) && strings.HasSuffix(p, suffix) {
			if found != "" {
				t.Fatalf("multiple artifacts match %s*%s: %v", prefix, suffix, paths)
			}
			found = p
		}
	}
	if found == "" {
		t.Fatalf("no artifact matches %s*%s in %v", prefix, suffix, paths)
	}
	return found
}

func TestRun_ProductionBuild(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js":  `import "./app.css"; console.log("hello");`,
		"src/app.css": `body { color: red; }`,
	})
	// Simulate a stale artifact from a previous run with different names.
	if err := os.MkdirAll("dist", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("dist/stale.js", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := resolve.Resolve(resolve.ModeBuild, baseConfig())
	res, err := testRunner().Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	paths := listArtifacts(t, res)
	js := findOne(t, paths, "app.", ".js")
	css := findOne(t, paths, "app.", ".css")

	// fingerprinted names, not plain
	if js == "app.js" || css == "app.css" {
		t.Errorf("artifact names not fingerprinted: %v", paths)
	}
	// debug-symbol companions
	if _, err := os.Stat(filepath.Join("dist", js+".map")); err != nil {
		t.Errorf("missing source map for %s: %v", js, err)
	}
	// generated entry document references the fingerprinted outputs
	html, err := os.ReadFile("dist/index.html")
	if err != nil {
		t.Fatalf("missing index.html: %v", err)
	}
	if !strings.Contains(string(html), js) || !strings.Contains(string(html), css) {
		t.Errorf("index.html does not reference artifacts:\n%s", html)
	}
	// gzip companions from the compress plugin
	if _, err := os.Stat(filepath.Join("dist", js+".gz")); err != nil {
		t.Errorf("missing gzip companion for %s: %v", js, err)
	}
	if _, err := os.Stat("dist/index.html.gz"); err != nil {
		t.Errorf("missing gzip companion for index.html: %v", err)
	}
	// clean-slate: the stale artifact is gone
	if _, err := os.Stat("dist/stale.js"); !os.IsNotExist(err) {
		t.Error("stale artifact survived the output-directory reset")
	}
}

// Identical sources must yield identical fingerprints on rerun.
func TestRun_IdempotentFingerprints(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js": `console.log("stable");`,
	})
	cfg := resolve.Resolve(resolve.ModeBuild, baseConfig())

	first, err := testRunner().Run(cfg)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := testRunner().Run(cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	a, b := listArtifacts(t, first), listArtifacts(t, second)
	if len(a) != len(b) {
		t.Fatalf("artifact count changed between identical runs: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("fingerprint changed on no-op rerun: %s vs %s", a[i], b[i])
		}
	}
}

// An app-only edit must not move the vendor chunk's fingerprint.
func TestRun_VendorFingerprintStability(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js":                        `console.log("v1");`,
		"package.json":                      `{"dependencies": {"leftpad": "1.0.0"}}`,
		"node_modules/leftpad/package.json": `{"name": "leftpad", "main": "index.js"}`,
		"node_modules/leftpad/index.js":     `export function pad(s) { return " " + s; }`,
	})

	base := baseConfig()
	base.DependencyManifest = "package.json"
	cfg := resolve.Resolve(resolve.ModeBuild, base)

	first, err := testRunner().Run(cfg)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	vendor1 := findOne(t, listArtifacts(t, first), "vendor.", ".js")

	if err := os.WriteFile("src/app.js", []byte(`console.log("v2 changed");`), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := testRunner().Run(cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	vendor2 := findOne(t, listArtifacts(t, second), "vendor.", ".js")
	app1 := findOne(t, listArtifacts(t, first), "app.", ".js")
	app2 := findOne(t, listArtifacts(t, second), "app.", ".js")

	if vendor1 != vendor2 {
		t.Errorf("vendor fingerprint moved on app-only change: %s vs %s", vendor1, vendor2)
	}
	if app1 == app2 {
		t.Errorf("app fingerprint did not move on content change: %s", app1)
	}
}

// One entry, empty dependency list: exactly one JS output plus the HTML
// document, with the source-map companion present.
func TestRun_EmptyManifest(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js":   `console.log("solo");`,
		"package.json": `{"dependencies": {}}`,
	})
	base := baseConfig()
	base.DependencyManifest = "package.json"
	cfg := resolve.Resolve(resolve.ModeBuild, base)

	res, err := testRunner().Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	paths := listArtifacts(t, res)

	var js, html, maps int
	for _, p := range paths {
		switch {
		case strings.HasSuffix(p, ".map"):
			maps++
		case strings.HasSuffix(p, ".js"):
			js++
		case p == "index.html":
			html++
		}
	}
	if js != 1 || html != 1 || maps != 1 {
		t.Errorf("want exactly one JS, one HTML, one map; got %v", paths)
	}
	if findOne(t, paths, "app.", ".js") == "" {
		t.Error("app output missing")
	}
}

func TestRun_InMemory(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js": `console.log("dev");`,
	})
	cfg := resolve.Resolve(resolve.ModeStart, baseConfig())
	res, err := testRunner().Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat("dist"); !os.IsNotExist(err) {
		t.Error("start mode persisted artifacts to disk")
	}

	paths := listArtifacts(t, res)
	if len(paths) != 2 { // app.js + index.html, nothing fingerprinted
		t.Errorf("artifacts = %v, want app.js and index.html", paths)
	}
	for _, a := range res.Artifacts {
		if len(a.Contents) == 0 {
			t.Errorf("in-memory artifact %s has no contents", a.Path)
		}
		if a.Path == "app.js" && !strings.Contains(string(a.Contents), "/__reload") {
			t.Error("live-reload banner missing from dev bundle")
		}
	}
}

func TestRun_BuildError(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js": `import "./missing.js";`,
	})
	cfg := resolve.Resolve(resolve.ModeBuild, baseConfig())
	if _, err := testRunner().Run(cfg); err == nil {
		t.Error("Run succeeded with an unresolvable import")
	}
}

func TestRun_UnknownLoader(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js": `console.log(1);`,
	})
	base := baseConfig()
	base.Loaders = map[string]string{".wasm": "wat"}
	cfg := resolve.Resolve(resolve.ModeBuild, base)
	if _, err := testRunner().Run(cfg); err == nil {
		t.Error("Run accepted an unknown loader name")
	}
}

func TestRun_UnknownTarget(t *testing.T) {
	writeProject(t, map[string]string{
		"src/app.js": `console.log(1);`,
	})
	base := baseConfig()
	base.Target = "es1999"
	cfg := resolve.Resolve(resolve.ModeBuild, base)
	if _, err := testRunner().Run(cfg); err == nil {
		t.Error("Run accepted an unknown target name")
	}
}

func TestManifestDependencies(t *testing.T) {
	t.Run("sorted", func(t *testing.T) {
		writeProject(t, map[string]string{
			"package.json": `{"dependencies": {"zeta": "1", "alpha": "2", "mid": "3"}}`,
		})
		deps, err := manifestDependencies("package.json")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"alpha", "mid", "zeta"}
		for i := range want {
			if deps[i] != want[i] {
				t.Fatalf("deps = %v, want %v", deps, want)
			}
		}
	})

	t.Run("missing file", func(t *testing.T) {
		writeProject(t, map[string]string{})
		if _, err := manifestDependencies("package.json"); err == nil {
			t.Error("no error for missing manifest")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		writeProject(t, map[string]string{"package.json": `{`})
		if _, err := manifestDependencies("package.json"); err == nil {
			t.Error("no error for malformed manifest")
		}
	})
}
