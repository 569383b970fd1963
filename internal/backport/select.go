package backport

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mxcd/backport/internal/configuration"
	"github.com/mxcd/backport/internal/hosting"
	"github.com/mxcd/backport/internal/progress"
	"github.com/mxcd/backport/internal/prompt"
	"github.com/rs/zerolog/log"
)

// SelectRepository picks the repository to work on. A single configured
// repository whose name ends in the current directory name is used without
// asking; otherwise the operator chooses, from the matching repositories
// when there are several.
func SelectRepository(prompter prompt.Prompter, out io.Writer, fullNames []string, cwd string) (RepositoryInfo, error) {
	if len(fullNames) == 0 {
		return RepositoryInfo{}, &configuration.InvalidConfigError{Reason: "no repositories configured"}
	}

	currentDir := filepath.Base(cwd)
	var matches []string
	for _, name := range fullNames {
		if strings.HasSuffix(name, "/"+currentDir) {
			matches = append(matches, name)
		}
	}

	if len(matches) == 1 {
		fmt.Fprintf(out, "Repository: %s\n", matches[0])
		return ParseRepositoryInfo(matches[0])
	}

	label := "Select repository"
	candidates := fullNames
	if len(matches) > 1 {
		log.Debug().Str("dir", currentDir).Strs("matches", matches).Msg("Current directory matches several repositories")
		label = fmt.Sprintf("Several repositories match %q, select one", currentDir)
		candidates = matches
	}

	index, err := prompter.Select(label, candidates)
	if err != nil {
		return RepositoryInfo{}, err
	}
	return ParseRepositoryInfo(candidates[index])
}

// EnsureRepository sets up the working copy for owner/repo unless it exists
func EnsureRepository(ctx context.Context, vcs VersionControl, ind progress.Indicator, owner, repo, username string) error {
	exists, err := vcs.RepoExists(ctx, owner, repo)
	if err != nil {
		return err
	}
	if exists {
		log.Debug().Str("owner", owner).Str("repo", repo).Msg("Working copy already exists")
		return nil
	}

	return progress.Do(ind, "Cloning repository (may take a few minutes the first time)", "", func() error {
		return vcs.SetupRepo(ctx, owner, repo, username)
	})
}

// PickCommit lists recent commits by username and lets the operator choose one
func PickCommit(ctx context.Context, client hosting.Client, prompter prompt.Prompter, ind progress.Indicator, owner, repo, username string) (hosting.Commit, error) {
	commits, err := progress.Run(ind, "Loading commits...", "", func() ([]hosting.Commit, error) {
		return client.GetCommits(ctx, owner, repo, username)
	})
	if err != nil {
		return hosting.Commit{}, err
	}
	if len(commits) == 0 {
		return hosting.Commit{}, fmt.Errorf("no commits by %s found in %s/%s", username, owner, repo)
	}

	options := make([]string, len(commits))
	for i, commit := range commits {
		options[i] = fmt.Sprintf("%s: %s", CommitReference(commit.SHA).ShortSHA, commit.Message)
	}

	index, err := prompter.Select("Select commit to backport", options)
	if err != nil {
		return hosting.Commit{}, err
	}
	return commits[index], nil
}

// LoadCommit fetches sha directly, bypassing the picker
func LoadCommit(ctx context.Context, client hosting.Client, ind progress.Indicator, owner, repo, sha string) (hosting.Commit, error) {
	commit, err := progress.Run(ind, "Loading commit "+CommitReference(sha).ShortSHA, "", func() (*hosting.Commit, error) {
		return client.GetCommit(ctx, owner, repo, sha)
	})
	if err != nil {
		return hosting.Commit{}, err
	}
	return *commit, nil
}

// PickVersion lets the operator choose one of the repository's versions
func PickVersion(prompter prompt.Prompter, repository *configuration.Repository) (string, error) {
	if len(repository.Versions) == 0 {
		return "", &configuration.InvalidConfigError{Reason: fmt.Sprintf("repository %s has no versions", repository.Name)}
	}

	index, err := prompter.Select("Select version to backport to", repository.Versions)
	if err != nil {
		return "", err
	}
	return repository.Versions[index], nil
}

// CheckVersion accepts a preselected version only if it is configured
func CheckVersion(repository *configuration.Repository, version string) (string, error) {
	if !slices.Contains(repository.Versions, version) {
		return "", &configuration.InvalidConfigError{
			Reason: fmt.Sprintf("version %q is not configured for %s", version, repository.Name),
		}
	}
	return version, nil
}
