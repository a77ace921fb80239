// Package gitsource keeps a local checkout of a shared deck repository in
// step with its remote.
package gitsource

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	git "github.com/go-git/go-git/v5"
)

// Sync clones the repository at url into localPath if no checkout exists
// there yet, or pulls the latest changes if one does.
func Sync(url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning deck repository", "url", url, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("clone %s: %w", url, err)
		}
	case err == nil:
		slog.Info("pulling deck repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("open checkout %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("worktree %s: %w", localPath, err)
		}
		err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("pull %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	return nil
}
