package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"
)

// NewWorkspace creates a workspace rooted at root
func NewWorkspace(root, host, accessToken, defaultBranch string) *Workspace {
	if defaultBranch == "" {
		defaultBranch = "master"
	}
	return &Workspace{
		Root:          root,
		Host:          host,
		AccessToken:   accessToken,
		DefaultBranch: defaultBranch,
	}
}

// RepoPath returns the location of the working copy for owner/repo
func (w *Workspace) RepoPath(owner, repo string) string {
	return filepath.Join(w.Root, owner, repo)
}

// RepoExists reports whether a working copy for owner/repo has been set up
func (w *Workspace) RepoExists(ctx context.Context, owner, repo string) (bool, error) {
	path := w.RepoPath(owner, repo)

	_, err := gogit.PlainOpen(path)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		log.Debug().Str("path", path).Msg("Working copy does not exist")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open working copy %s: %w", path, err)
	}

	return true, nil
}

// SetupRepo clones owner/repo and registers the operator's fork as a remote
// named after username.
func (w *Workspace) SetupRepo(ctx context.Context, owner, repo, username string) error {
	path := w.RepoPath(owner, repo)
	log.Debug().Str("path", path).Str("owner", owner).Str("repo", repo).Msg("Setting up working copy")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	if _, err := w.run(ctx, filepath.Dir(path), "clone", w.remoteURL(owner, repo), path); err != nil {
		return fmt.Errorf("failed to clone %s/%s: %w", owner, repo, err)
	}

	if _, err := w.run(ctx, path, "remote", "add", username, w.remoteURL(username, repo)); err != nil {
		return fmt.Errorf("failed to add remote %s: %w", username, err)
	}

	return nil
}

// ResetAndPullMaster discards local changes and fast-forwards the default
// branch to origin.
func (w *Workspace) ResetAndPullMaster(ctx context.Context, owner, repo string) error {
	path := w.RepoPath(owner, repo)

	if _, err := w.run(ctx, path, "reset", "--hard"); err != nil {
		return fmt.Errorf("failed to reset working copy: %w", err)
	}

	if _, err := w.run(ctx, path, "checkout", w.DefaultBranch); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", w.DefaultBranch, err)
	}

	if _, err := w.run(ctx, path, "pull", "origin", w.DefaultBranch); err != nil {
		return fmt.Errorf("failed to pull %s: %w", w.DefaultBranch, err)
	}

	return nil
}

// CreateAndCheckoutBranch (re)creates branchName at origin/baseBranch and checks it out.
// An existing branch of the same name is reset, so re-running a backport reuses it.
func (w *Workspace) CreateAndCheckoutBranch(ctx context.Context, owner, repo, baseBranch, branchName string) error {
	path := w.RepoPath(owner, repo)

	if _, err := w.run(ctx, path, "fetch", "origin", baseBranch); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", baseBranch, err)
	}

	if _, err := w.run(ctx, path, "branch", branchName, "origin/"+baseBranch, "--force"); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branchName, err)
	}

	if _, err := w.run(ctx, path, "checkout", branchName); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branchName, err)
	}

	log.Debug().Str("branch", branchName).Str("base", baseBranch).Msg("Created and checked out backport branch")
	return nil
}

// CherryPick applies sha onto the current branch. When git exits with status 1
// the commit did not apply cleanly and a *ConflictError is returned; every
// other failure is a *CommandError.
func (w *Workspace) CherryPick(ctx context.Context, owner, repo, sha string) error {
	path := w.RepoPath(owner, repo)

	_, err := w.run(ctx, path, "cherry-pick", sha)
	if err == nil {
		return nil
	}

	var cmdErr *CommandError
	var exitErr *exec.ExitError
	if errors.As(err, &cmdErr) && errors.As(cmdErr.Err, &exitErr) && exitErr.ExitCode() == 1 {
		log.Debug().Str("sha", sha).Msg("Cherry-pick stopped on conflicts")
		return &ConflictError{SHA: sha, Output: cmdErr.Output, Err: exitErr}
	}

	return err
}

// UnresolvedFiles lists paths that still carry unmerged entries in the index
func (w *Workspace) UnresolvedFiles(ctx context.Context, owner, repo string) ([]string, error) {
	path := w.RepoPath(owner, repo)

	output, err := w.run(ctx, path, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// Push force-pushes branchName to the operator's fork
func (w *Workspace) Push(ctx context.Context, owner, repo, username, branchName string) error {
	path := w.RepoPath(owner, repo)

	if _, err := w.run(ctx, path, "push", username, branchName, "--force"); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", branchName, username, err)
	}

	log.Debug().Str("remote", username).Str("branch", branchName).Msg("Pushed branch")
	return nil
}

func (w *Workspace) remoteURL(owner, repo string) string {
	if w.BaseURL != "" {
		return fmt.Sprintf("%s/%s/%s.git", strings.TrimSuffix(w.BaseURL, "/"), owner, repo)
	}

	credentials := w.AccessToken
	if w.TokenUser != "" {
		credentials = w.TokenUser + ":" + w.AccessToken
	}
	return fmt.Sprintf("https://%s@%s/%s/%s.git", credentials, w.Host, owner, repo)
}

// run executes git in dir and returns the combined output
func (w *Workspace) run(ctx context.Context, dir string, args ...string) (string, error) {
	log.Debug().Str("dir", dir).Str("args", w.redact(strings.Join(args, " "))).Msg("Running git")

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	log.Trace().Str("output", w.redact(string(output))).Msg("git output")
	if err != nil {
		redacted := make([]string, len(args))
		for i, arg := range args {
			redacted[i] = w.redact(arg)
		}
		return string(output), &CommandError{Args: redacted, Output: w.redact(string(output)), Err: err}
	}

	return string(output), nil
}

func (w *Workspace) redact(s string) string {
	if w.AccessToken == "" {
		return s
	}
	return strings.ReplaceAll(s, w.AccessToken, "***")
}
