package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// GitPublisher publishes a directory as one commit on a branch of a git
// remote, the gh-pages convention. Authentication is whatever the ambient
// git configuration provides (ssh agent, credential helper).
type GitPublisher struct {
	remote  string
	branch  string
	message string
	author  string
	email   string
	logger  *slog.Logger

	// OnError is invoked once with the publish failure before it is
	// returned. Errors are logged and surfaced, never retried.
	OnError func(error)
}

func NewGitPublisher(remote, branch, message, author, email string, logger *slog.Logger) *GitPublisher {
	return &GitPublisher{
		remote:  remote,
		branch:  branch,
		message: message,
		author:  author,
		email:   email,
		logger:  logger,
	}
}

func (p *GitPublisher) Publish(ctx context.Context, dir string) error {
	if err := p.publish(ctx, dir); err != nil {
		err = fmt.Errorf("publish: %w", err)
		p.logger.Error("publish failed, local artifacts retained", "dir", dir, "error", err)
		if p.OnError != nil {
			p.OnError(err)
		}
		return err
	}
	return nil
}

func (p *GitPublisher) publish(ctx context.Context, dir string) error {
	if p.remote == "" {
		return errors.New("no deploy remote configured")
	}

	work, err := os.MkdirTemp("", "packsmith-deploy-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	refName := plumbing.NewBranchReferenceName(p.branch)

	repo, err := git.PlainCloneContext(ctx, work, false, &git.CloneOptions{
		URL:           p.remote,
		ReferenceName: refName,
		SingleBranch:  true,
	})
	switch {
	case err == nil:
	case isMissingBranch(err):
		// First deploy: empty remote or the hosting branch does not exist
		// yet. Start the branch from scratch.
		p.logger.Debug("hosting branch missing on remote, creating", "branch", p.branch)
		repo, err = p.initBranch(work, refName)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("failed to clone %s: %w", p.remote, err)
	}

	if err := clearWorktree(work); err != nil {
		return err
	}
	if err := copyTree(dir, work); err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return err
	}

	status, err := wt.Status()
	if err != nil {
		return err
	}
	if status.IsClean() {
		p.logger.Info("nothing to publish, remote already current", "branch", p.branch)
		return nil
	}

	commit, err := wt.Commit(fmt.Sprintf("%s (%s)", p.message, time.Now().UTC().Format(time.RFC3339)), &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.author,
			Email: p.email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return err
	}

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs: []gitcfg.RefSpec{
			gitcfg.RefSpec(fmt.Sprintf("%s:%s", refName, refName)),
		},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push %s: %w", p.branch, err)
	}

	p.logger.Info("published output directory",
		"dir", dir,
		"remote", p.remote,
		"branch", p.branch,
		"commit", commit.String(),
	)
	return nil
}

// initBranch creates a fresh repository whose HEAD points at the hosting
// branch, with the remote configured for the later push.
func (p *GitPublisher) initBranch(work string, refName plumbing.ReferenceName) (*git.Repository, error) {
	repo, err := git.PlainInit(work, false)
	if err != nil {
		return nil, err
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, refName)); err != nil {
		return nil, err
	}
	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{p.remote},
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func isMissingBranch(err error) bool {
	if errors.Is(err, transport.ErrEmptyRemoteRepository) ||
		errors.Is(err, plumbing.ErrReferenceNotFound) {
		return true
	}
	var noRef git.NoMatchingRefSpecError
	return errors.As(err, &noRef)
}

// clearWorktree removes everything but the repository metadata so deleted
// artifacts disappear from the published tree.
func clearWorktree(work string) error {
	entries, err := os.ReadDir(work)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == git.GitDirName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(work, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}
