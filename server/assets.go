package server

import (
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/packsmith/packsmith/bundle"
	"github.com/packsmith/packsmith/cache"
)

// AssetStore holds the current in-memory build, keyed by URL path. A
// rebuild replaces the whole set atomically enough for a dev server: the
// cache is cleared and repopulated before the reload event goes out.
type AssetStore struct {
	mu    sync.RWMutex
	cache cache.Cache[string, []byte]
}

func NewAssetStore(c cache.Cache[string, []byte]) *AssetStore {
	return &AssetStore{cache: c}
}

// Store swaps in the artifacts of one build result.
func (s *AssetStore) Store(res *bundle.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Clear()
	for _, a := range res.Artifacts {
		if a.Contents == nil {
			continue
		}
		s.cache.Set("/"+a.Path, a.Contents, int64(len(a.Contents)))
	}
	s.cache.Wait()
}

func (s *AssetStore) Get(urlPath string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if urlPath == "/" {
		urlPath = "/index.html"
	}
	return s.cache.Get(urlPath)
}

// ServeHTTP serves assets straight from memory. Nothing is fingerprinted
// in dev, so everything is marked uncacheable.
func (s *AssetStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean(r.URL.Path)
	contents, ok := s.Get(clean)
	if !ok {
		// Unknown paths fall back to the entry document so client-side
		// routes survive a reload.
		if !strings.Contains(path.Base(clean), ".") {
			if index, found := s.Get("/"); found {
				writeAsset(w, "/index.html", index)
				return
			}
		}
		http.NotFound(w, r)
		return
	}
	writeAsset(w, clean, contents)
}

func writeAsset(w http.ResponseWriter, urlPath string, contents []byte) {
	if ct := mime.TypeByExtension(path.Ext(urlPath)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Write(contents)
}
