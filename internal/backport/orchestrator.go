package backport

import (
	"context"
	"errors"
	"fmt"

	"github.com/mxcd/backport/internal/git"
	"github.com/mxcd/backport/internal/hosting"
	"github.com/mxcd/backport/internal/progress"
	"github.com/mxcd/backport/internal/prompt"
	"github.com/rs/zerolog/log"
)

const conflictResolvedPrompt = "Press enter when you have commited all changes"

// VersionControl is the working copy layer, implemented by *git.Workspace.
// CherryPick reports conflicts as *git.ConflictError.
type VersionControl interface {
	RepoExists(ctx context.Context, owner, repo string) (bool, error)
	SetupRepo(ctx context.Context, owner, repo, username string) error
	ResetAndPullMaster(ctx context.Context, owner, repo string) error
	CreateAndCheckoutBranch(ctx context.Context, owner, repo, baseBranch, branchName string) error
	CherryPick(ctx context.Context, owner, repo, sha string) error
	Push(ctx context.Context, owner, repo, username, branchName string) error
	UnresolvedFiles(ctx context.Context, owner, repo string) ([]string, error)
	RepoPath(owner, repo string) string
}

// OrchestratorOptions tune a backport run
type OrchestratorOptions struct {
	Templates Templates
	// VerifyConflictResolution checks the index for unmerged files after the
	// operator confirms a conflict as resolved.
	VerifyConflictResolution bool
}

// Orchestrator drives a single commit onto a single release branch:
// sync, branch, cherry-pick (with a manual conflict gate), push and open a
// pull request. Every step is all-or-nothing.
type Orchestrator struct {
	vcs      VersionControl
	client   hosting.Client
	prompter prompt.Prompter
	progress progress.Indicator
	options  OrchestratorOptions
}

func NewOrchestrator(vcs VersionControl, client hosting.Client, prompter prompt.Prompter, ind progress.Indicator, options OrchestratorOptions) *Orchestrator {
	if options.Templates == (Templates{}) {
		options.Templates = DefaultTemplates()
	}
	return &Orchestrator{
		vcs:      vcs,
		client:   client,
		prompter: prompter,
		progress: ind,
		options:  options,
	}
}

// Request is one backport of Commit onto Version
type Request struct {
	Repository RepositoryInfo
	Commit     hosting.Commit
	Reference  Reference
	Version    string
	Username   string
}

// Result reports how far a run got. It is returned on failure too, with
// State set to StateFailed.
type Result struct {
	State       State
	Transitions []State
	Branch      string
	Payload     hosting.PullRequestPayload
	PullRequest *hosting.PullRequest
}

func (r *Result) to(state State) {
	log.Debug().Str("from", r.State.String()).Str("to", state.String()).Msg("Backport state transition")
	r.State = state
	r.Transitions = append(r.Transitions, state)
}

func (r *Result) fail(err error) (*Result, error) {
	r.to(StateFailed)
	return r, err
}

// Run executes the backport described by req
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	owner, repo := req.Repository.Owner, req.Repository.Name
	result := &Result{
		State:  StateIdle,
		Branch: BranchName(req.Version, req.Reference),
	}

	log.Debug().
		Str("repository", req.Repository.FullName()).
		Str("sha", req.Commit.SHA).
		Str("version", req.Version).
		Str("branch", result.Branch).
		Msg("Starting backport")

	result.to(StateSyncing)
	err := progress.Do(o.progress, "Pulling latest changes", "", func() error {
		if err := o.vcs.ResetAndPullMaster(ctx, owner, repo); err != nil {
			return err
		}
		result.to(StateBranching)
		return o.vcs.CreateAndCheckoutBranch(ctx, owner, repo, req.Version, result.Branch)
	})
	if err != nil {
		return result.fail(err)
	}

	result.to(StateReplaying)
	failMessage := fmt.Sprintf("Cherry-picking failed. Please resolve conflicts in: %s", o.vcs.RepoPath(owner, repo))
	err = progress.Do(o.progress, "Cherry-picking commit", failMessage, func() error {
		return o.vcs.CherryPick(ctx, owner, repo, req.Commit.SHA)
	})
	if err != nil {
		var conflict *git.ConflictError
		if !errors.As(err, &conflict) {
			return result.fail(err)
		}
		if err := o.resolveConflict(ctx, result, owner, repo, conflict); err != nil {
			return result.fail(err)
		}
	}

	result.to(StatePushing)
	err = progress.Do(o.progress, fmt.Sprintf("Pushing branch %s:%s", req.Username, result.Branch), "", func() error {
		return o.vcs.Push(ctx, owner, repo, req.Username, result.Branch)
	})
	if err != nil {
		return result.fail(err)
	}

	result.to(StatePublishingChange)
	result.Payload, err = NewPayload(req.Commit, req.Version, req.Reference, req.Username, o.options.Templates)
	if err != nil {
		return result.fail(err)
	}
	result.PullRequest, err = progress.Run(o.progress, "Creating pull request", "", func() (*hosting.PullRequest, error) {
		return o.client.CreatePullRequest(ctx, owner, repo, result.Payload)
	})
	if err != nil {
		return result.fail(err)
	}

	result.to(StateDone)
	return result, nil
}

// resolveConflict asks the operator once whether the conflict was resolved
func (o *Orchestrator) resolveConflict(ctx context.Context, result *Result, owner, repo string, conflict *git.ConflictError) error {
	result.to(StateConflictPending)

	resolved, err := o.prompter.Confirm(conflictResolvedPrompt, true)
	if err != nil {
		return err
	}
	if !resolved {
		result.to(StateAbandoned)
		return &CherrypickConflictUnresolvedError{Details: conflict.Error()}
	}

	if o.options.VerifyConflictResolution {
		files, err := o.vcs.UnresolvedFiles(ctx, owner, repo)
		if err != nil {
			return err
		}
		if len(files) > 0 {
			result.to(StateAbandoned)
			return &CherrypickConflictUnresolvedError{Details: conflict.Error(), UnresolvedFiles: files}
		}
	}

	result.to(StateResolved)
	return nil
}
