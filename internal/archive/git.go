package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitPusher commits a matrix directory into a git repository natively,
// without an external archiver. The repository lives at the directory itself;
// when a remote URL is given the commit is also pushed to origin.
type GitPusher struct {
	logger Logger

	authorName  string
	authorEmail string
}

// NewGitPusher creates a native git pusher.
func NewGitPusher(logger Logger) *GitPusher {
	if logger == nil {
		logger = &noopLogger{}
	}
	return &GitPusher{
		logger:      logger,
		authorName:  "testmatrix",
		authorEmail: "testmatrix@localhost",
	}
}

// Push stages everything under fileDir and commits it. An empty repoURL
// commits locally only; otherwise the commit is pushed to origin, creating
// the remote if needed.
func (p *GitPusher) Push(ctx context.Context, fileDir, repoURL string) error {
	repo, err := p.openOrInit(fileDir)
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage matrix files: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		p.logger.Info("Archive repo at %s already up to date", fileDir)
		return nil
	}

	commit, err := worktree.Commit("Update test matrix", &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.authorName,
			Email: p.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit matrix files: %w", err)
	}
	p.logger.Info("Committed matrix update %s in %s", commit.String(), fileDir)

	if repoURL == "" {
		return nil
	}
	return p.push(ctx, repo, repoURL)
}

// openOrInit opens the repository at dir, initializing one on first use.
func (p *GitPusher) openOrInit(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("failed to open archive repo at %s: %w", dir, err)
	}

	p.logger.Debug("Initializing archive repo at %s", dir)
	repo, err = git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init archive repo at %s: %w", dir, err)
	}
	return repo, nil
}

// push sends the current branch to origin, creating the remote if missing.
func (p *GitPusher) push(ctx context.Context, repo *git.Repository, repoURL string) error {
	if _, err := repo.Remote("origin"); err != nil {
		if !errors.Is(err, git.ErrRemoteNotFound) {
			return fmt.Errorf("failed to look up origin remote: %w", err)
		}
		_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
			Name: "origin",
			URLs: []string{repoURL},
		})
		if err != nil {
			return fmt.Errorf("failed to create origin remote: %w", err)
		}
	}

	err := repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		p.logger.Info("Remote %s already up to date", repoURL)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", repoURL, err)
	}

	p.logger.Info("Pushed matrix update to %s", repoURL)
	return nil
}
