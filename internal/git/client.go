// Package git wraps the version-control operations the orchestrator needs:
// cloning a project checkout, pulling its branch with a change summary, and
// querying the current branch.
package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"harbormaster/internal/errors"
)

// Client performs git operations on project checkouts.
type Client struct{}

// New creates a git client.
func New() *Client {
	return &Client{}
}

// PullSummary reports what a pull changed.
type PullSummary struct {
	FilesChanged int `json:"files_changed"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
}

// Updated reports whether the pull brought in any changes.
func (s *PullSummary) Updated() bool {
	return s.FilesChanged != 0 || s.Insertions != 0 || s.Deletions != 0
}

// IsRepository reports whether path holds a git repository.
func (c *Client) IsRepository(path string) bool {
	_, err := gogit.PlainOpen(path)
	return err == nil
}

// Clone clones a repository at the given branch. A partial clone is removed
// on failure.
func (c *Client) Clone(ctx context.Context, repoURL, path, branch string) error {
	if repoURL == "" {
		return errors.New(errors.ErrGitRepoInvalid, "repository URL cannot be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrFileSystem, "failed to resolve checkout path", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.Wrap(errors.ErrFileSystem, "failed to create parent directory", err)
	}

	opts := &gogit.CloneOptions{
		URL: repoURL,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	if _, err := gogit.PlainCloneContext(ctx, absPath, false, opts); err != nil {
		// Clean up partial clone on failure
		os.RemoveAll(absPath)

		if strings.Contains(err.Error(), "authentication") {
			return errors.GitCloneFailed(repoURL, err)
		}
		if strings.Contains(err.Error(), "not found") {
			return errors.NewWithDetails(errors.ErrGitRepoInvalid, "Repository not found", repoURL)
		}
		return errors.GitCloneFailed(repoURL, err)
	}

	return nil
}

// Pull fetches and merges the current branch of a checkout and summarizes
// the resulting change. An already-up-to-date checkout yields a zero
// summary.
func (c *Client) Pull(ctx context.Context, path string) (*PullSummary, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, errors.NewWithDetails(errors.ErrGitRepoInvalid, "Not a git repository", path)
	}

	before, err := repo.Head()
	if err != nil {
		return nil, errors.GitPullFailed(path, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, errors.GitPullFailed(path, err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{RemoteName: "origin"})
	if err == gogit.NoErrAlreadyUpToDate {
		return &PullSummary{}, nil
	}
	if err != nil {
		return nil, errors.GitPullFailed(path, err)
	}

	after, err := repo.Head()
	if err != nil {
		return nil, errors.GitPullFailed(path, err)
	}
	if before.Hash() == after.Hash() {
		return &PullSummary{}, nil
	}

	summary, err := diffSummary(ctx, repo, before.Hash(), after.Hash())
	if err != nil {
		// The pull itself succeeded; an unreadable diff should not fail it.
		return &PullSummary{FilesChanged: 1}, nil
	}
	return summary, nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (c *Client) CurrentBranch(path string) (string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return "", errors.NewWithDetails(errors.ErrGitRepoInvalid, "Not a git repository", path)
	}

	head, err := repo.Head()
	if err != nil {
		return "", errors.Wrap(errors.ErrGitRepoInvalid, "failed to resolve HEAD", err)
	}
	return head.Name().Short(), nil
}

// diffSummary computes file/insertion/deletion counts between two commits.
func diffSummary(ctx context.Context, repo *gogit.Repository, before, after plumbing.Hash) (*PullSummary, error) {
	beforeCommit, err := repo.CommitObject(before)
	if err != nil {
		return nil, err
	}
	afterCommit, err := repo.CommitObject(after)
	if err != nil {
		return nil, err
	}

	patch, err := beforeCommit.PatchContext(ctx, afterCommit)
	if err != nil {
		return nil, err
	}

	summary := &PullSummary{}
	for _, stat := range patch.Stats() {
		summary.FilesChanged++
		summary.Insertions += stat.Addition
		summary.Deletions += stat.Deletion
	}
	return summary, nil
}
