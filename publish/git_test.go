package publish

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPublisher(remote string) *GitPublisher {
	return NewGitPublisher(remote, "gh-pages", "deploy", "tester", "tester@localhost", discard())
}

// bareRemote creates a local bare repository to push into.
func bareRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, true); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeSite(t *testing.T, files map[string]string) string {
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
	return dir
}

// branchFiles lists the files in the tip commit of branch on the remote.
func branchFiles(t *testing.T, remote, branch string) map[string]bool {
	t.Helper()
	repo, err := git.PlainOpen(remote)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		t.Fatalf("branch %s missing on remote: %v", branch, err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		t.Fatal(err)
	}
	tree, err := commit.Tree()
	if err != nil {
		t.Fatal(err)
	}
	files := make(map[string]bool)
	iter := tree.Files()
	for {
		f, err := iter.Next()
		if err != nil {
			break
		}
		files[f.Name] = true
	}
	return files
}

func TestPublish_FirstDeploy(t *testing.T) {
	remote := bareRemote(t)
	site := writeSite(t, map[string]string{
		"index.html":       "<html></html>",
		"app.ABC123.js":    "console.log(1)",
		"chunks/shared.js": "export const x = 1",
	})

	p := newPublisher(remote)
	if err := p.Publish(context.Background(), site); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	files := branchFiles(t, remote, "gh-pages")
	for _, want := range []string{"index.html", "app.ABC123.js", "chunks/shared.js"} {
		if !files[want] {
			t.Errorf("published tree missing %s: %v", want, files)
		}
	}
}

func TestPublish_SecondDeployReplacesTree(t *testing.T) {
	remote := bareRemote(t)
	p := newPublisher(remote)

	first := writeSite(t, map[string]string{"index.html": "v1", "app.OLD.js": "old"})
	if err := p.Publish(context.Background(), first); err != nil {
		t.Fatalf("first Publish: %v", err)
	}

	second := writeSite(t, map[string]string{"index.html": "v2", "app.NEW.js": "new"})
	if err := p.Publish(context.Background(), second); err != nil {
		t.Fatalf("second Publish: %v", err)
	}

	files := branchFiles(t, remote, "gh-pages")
	if !files["app.NEW.js"] {
		t.Errorf("new artifact missing: %v", files)
	}
	if files["app.OLD.js"] {
		t.Errorf("stale artifact survived redeploy: %v", files)
	}
}

func TestPublish_NothingToPublish(t *testing.T) {
	remote := bareRemote(t)
	p := newPublisher(remote)
	site := writeSite(t, map[string]string{"index.html": "same"})

	if err := p.Publish(context.Background(), site); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	// identical content: clean worktree, no new commit, no error
	if err := p.Publish(context.Background(), site); err != nil {
		t.Fatalf("no-op Publish: %v", err)
	}
}

func TestPublish_FailureKeepsLocalArtifacts(t *testing.T) {
	site := writeSite(t, map[string]string{"index.html": "<html></html>"})

	var reported error
	p := newPublisher(filepath.Join(t.TempDir(), "missing-remote"))
	p.OnError = func(err error) { reported = err }

	err := p.Publish(context.Background(), site)
	if err == nil {
		t.Fatal("Publish succeeded against a missing remote")
	}
	if reported == nil {
		t.Error("error callback not invoked")
	}

	// the local build output is untouched by the remote failure
	if _, statErr := os.Stat(filepath.Join(site, "index.html")); statErr != nil {
		t.Errorf("local artifact lost after publish failure: %v", statErr)
	}
}

func TestPublish_NoRemoteConfigured(t *testing.T) {
	p := newPublisher("")
	if err := p.Publish(context.Background(), t.TempDir()); err == nil {
		t.Error("Publish accepted an empty remote")
	}
}
