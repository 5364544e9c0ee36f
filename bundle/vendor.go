package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const virtualPrefix = "packsmith-vendor:"

// manifestDependencies reads a package manifest and returns its dependency
// names, sorted. Sorting keeps the synthesized vendor module byte-stable
// across runs, which keeps its fingerprint stable.
func manifestDependencies(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: failed to read dependency manifest %s: %w", path, err)
	}
	var manifest struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("bundle: failed to parse dependency manifest %s: %w", path, err)
	}
	deps := make([]string, 0, len(manifest.Dependencies))
	for name := range manifest.Dependencies {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps, nil
}

// vendorPlugin serves a virtual module importing each dependency for side
// effects, so the dependency chunk is emitted independently of what the
// app entry happens to import.
func vendorPlugin(name string, deps []string, resolveDir string) api.Plugin {
	filter := "^" + regexp.QuoteMeta(virtualPrefix+name) + "$"
	namespace := virtualPrefix + name

	var b strings.Builder
	for _, dep := range deps {
		fmt.Fprintf(&b, "import %q;\n", dep)
	}
	contents := b.String()

	return api.Plugin{
		Name: "packsmith-vendor",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: namespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: namespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderJS,
						ResolveDir: resolveDir,
					}, nil
				})
		},
	}
}
