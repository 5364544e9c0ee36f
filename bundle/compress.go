package bundle

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// compressible extensions; everything else (images, fonts) is either
// already compressed or not worth the CPU.
var compressible = map[string]bool{
	".js":   true,
	".css":  true,
	".html": true,
	".map":  true,
	".svg":  true,
	".json": true,
}

// compress writes a .gz companion next to every compressible persisted
// artifact so the file server can answer Accept-Encoding: gzip without
// compressing per request.
func (r *Runner) compress(res *Result) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	var count int
	for _, a := range res.Artifacts {
		if !compressible[filepath.Ext(a.Path)] {
			continue
		}
		count++
		path := filepath.Join(res.OutDir, filepath.FromSlash(a.Path))
		g.Go(func() error {
			return gzipFile(path)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bundle: gzip pass failed: %w", err)
	}
	r.logger.Debug("gzipped artifacts", "count", count)
	return nil
}

func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		os.Remove(path + ".gz")
		return err
	}
	// Close before checking: the footer has to flush for the file to be
	// a valid stream.
	if err := gz.Close(); err != nil {
		os.Remove(path + ".gz")
		return err
	}
	return nil
}
