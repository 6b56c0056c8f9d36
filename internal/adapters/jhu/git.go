package jhu

import (
	"context"
	"errors"
	"io"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// goGitClient implements gitClient on go-git.
type goGitClient struct{}

func (goGitClient) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
	return err
}

func (goGitClient) CommitBefore(_ context.Context, dir string, at time.Time) (string, time.Time, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", time.Time{}, err
	}

	// Linear walk from HEAD, newest first, filtered to commit times <= at.
	iter, err := repo.Log(&git.LogOptions{Until: &at})
	if err != nil {
		return "", time.Time{}, err
	}
	defer iter.Close()

	commit, err := iter.Next()
	if errors.Is(err, io.EOF) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return commit.Hash.String(), commit.Committer.When, nil
}

func (goGitClient) Checkout(_ context.Context, dir, commit string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(commit)})
}
