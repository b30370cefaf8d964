// Package sync keeps the data directory in a git repository. Local
// snapshots are committed in-process; exchanging history with the remote
// goes through the git binary.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// ErrNotRepository is returned when the data directory has no .git.
var ErrNotRepository = errors.New("not a git repository, run 'habitual init' first")

var signature = object.Signature{Name: "habitual", Email: "habitual@localhost"}

// Repo is a data directory under git.
type Repo struct {
	Dir    string
	Out    io.Writer // progress for the user
	Logger *zap.Logger
	Now    func() time.Time
}

// NewRepo returns a Repo writing progress to out.
func NewRepo(dir string, out io.Writer, logger *zap.Logger) *Repo {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{Dir: dir, Out: out, Logger: logger, Now: time.Now}
}

// Init creates the repository if needed and points origin at remote.
// An empty remote leaves the remotes untouched.
func (r *Repo) Init(remote string) error {
	repo, err := git.PlainOpen(r.Dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(r.Dir, false)
		if err == nil {
			fmt.Fprintf(r.Out, "Initialized git repository in %s\n", r.Dir)
		}
	}
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	if remote == "" {
		fmt.Fprintln(r.Out, "No remote specified. Use --remote <url> to set one.")
		return nil
	}

	if err := repo.DeleteRemote("origin"); err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("removing origin: %w", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{remote},
	}); err != nil {
		return fmt.Errorf("setting remote: %w", err)
	}
	fmt.Fprintf(r.Out, "Remote set to: %s\n", remote)
	return nil
}

// Snapshot stages everything and commits it. It reports false when the
// worktree was already clean.
func (r *Repo) Snapshot(message string) (bool, error) {
	repo, err := git.PlainOpen(r.Dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return false, ErrNotRepository
	}
	if err != nil {
		return false, fmt.Errorf("opening repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("staging changes: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("reading status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}

	sig := signature
	sig.When = r.Now()
	hash, err := wt.Commit(message, &git.CommitOptions{Author: &sig})
	if err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	r.Logger.Debug("snapshot committed", zap.String("hash", hash.String()))
	return true, nil
}

// Sync commits local changes, pulls (rebase first, merge as fallback) and
// pushes.
func (r *Repo) Sync(ctx context.Context) error {
	fmt.Fprintln(r.Out, "Staging changes...")
	if _, err := r.Snapshot("sync " + r.Now().Format("2006-01-02 15:04:05")); err != nil {
		return err
	}

	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git binary required for sync: %w", err)
	}

	fmt.Fprintln(r.Out, "Pulling...")
	if err := r.git(ctx, "pull", "--rebase"); err != nil {
		r.Logger.Warn("rebase failed, falling back to merge", zap.Error(err))
		fmt.Fprintln(r.Out, "Rebase failed, trying merge...")
		_ = r.git(ctx, "rebase", "--abort")

		if err := r.git(ctx, "pull", "--no-rebase"); err != nil {
			_ = r.git(ctx, "merge", "--abort")
			return fmt.Errorf("sync failed: could not rebase or merge. Resolve conflicts manually")
		}
	}

	fmt.Fprintln(r.Out, "Pushing...")
	if err := r.git(ctx, "push"); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	fmt.Fprintln(r.Out, "Sync complete.")
	return nil
}

func (r *Repo) git(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.Dir}, args...)...)
	cmd.Stdout = r.Out
	cmd.Stderr = r.Out
	return cmd.Run()
}
