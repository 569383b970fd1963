package backport

import (
	"context"
	"fmt"
	"io"

	"github.com/mxcd/backport/internal/configuration"
	"github.com/mxcd/backport/internal/hosting"
	"github.com/mxcd/backport/internal/progress"
	"github.com/mxcd/backport/internal/prompt"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators of a backport run
type Deps struct {
	Config   *configuration.Config
	VCS      VersionControl
	Client   hosting.Client
	Prompter prompt.Prompter
	Progress progress.Indicator
	Out      io.Writer
}

// Options preselect parts of a run that are otherwise prompted for
type Options struct {
	// Cwd is matched against the configured repositories
	Cwd string
	// SHA skips the commit picker
	SHA string
	// Version skips the version picker; it must be configured for the repository
	Version string
}

// Run selects a repository, commit and version and backports the commit
func Run(ctx context.Context, deps Deps, opts Options) (*Result, error) {
	config := deps.Config

	info, err := SelectRepository(deps.Prompter, deps.Out, config.FullNames(), opts.Cwd)
	if err != nil {
		return nil, err
	}

	repository := config.FindRepository(info.FullName())
	if repository == nil {
		return nil, &configuration.InvalidConfigError{Reason: fmt.Sprintf("repository %s is not configured", info.FullName())}
	}

	// a preselected version is checked before cloning
	var version string
	if opts.Version != "" {
		if version, err = CheckVersion(repository, opts.Version); err != nil {
			return nil, err
		}
	}

	if err := EnsureRepository(ctx, deps.VCS, deps.Progress, info.Owner, info.Name, config.Username); err != nil {
		return nil, err
	}

	var commit hosting.Commit
	if opts.SHA != "" {
		commit, err = LoadCommit(ctx, deps.Client, deps.Progress, info.Owner, info.Name, opts.SHA)
	} else {
		commit, err = PickCommit(ctx, deps.Client, deps.Prompter, deps.Progress, info.Owner, info.Name, config.CommitAuthor())
	}
	if err != nil {
		return nil, err
	}

	reference, err := ResolveReference(ctx, deps.Client, info.Owner, info.Name, commit.SHA)
	if err != nil {
		return nil, err
	}

	if version == "" {
		if version, err = PickVersion(deps.Prompter, repository); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("repository", info.FullName()).
		Str("sha", commit.SHA).
		Str("reference", reference.String()).
		Str("version", version).
		Msg("Backport selected")

	orchestrator := NewOrchestrator(deps.VCS, deps.Client, deps.Prompter, deps.Progress, OrchestratorOptions{
		Templates:                TemplatesFromConfig(config),
		VerifyConflictResolution: config.VerifyConflictResolution,
	})
	return orchestrator.Run(ctx, Request{
		Repository: info,
		Commit:     commit,
		Reference:  reference,
		Version:    version,
		Username:   config.Username,
	})
}
