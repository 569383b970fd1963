package backport

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mxcd/backport/internal/hosting"
)

type fakeVCS struct {
	exists        bool
	errs          map[string]error
	cherryPickErr error
	unresolved    []string
	calls         []string
}

func (f *fakeVCS) record(call string) error {
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeVCS) RepoExists(ctx context.Context, owner, repo string) (bool, error) {
	return f.exists, f.record("RepoExists")
}

func (f *fakeVCS) SetupRepo(ctx context.Context, owner, repo, username string) error {
	if err := f.record("SetupRepo"); err != nil {
		return err
	}
	f.exists = true
	return nil
}

func (f *fakeVCS) ResetAndPullMaster(ctx context.Context, owner, repo string) error {
	return f.record("ResetAndPullMaster")
}

func (f *fakeVCS) CreateAndCheckoutBranch(ctx context.Context, owner, repo, baseBranch, branchName string) error {
	return f.record(fmt.Sprintf("CreateAndCheckoutBranch %s %s", baseBranch, branchName))
}

func (f *fakeVCS) CherryPick(ctx context.Context, owner, repo, sha string) error {
	f.calls = append(f.calls, "CherryPick "+sha)
	return f.cherryPickErr
}

func (f *fakeVCS) Push(ctx context.Context, owner, repo, username, branchName string) error {
	return f.record(fmt.Sprintf("Push %s %s", username, branchName))
}

func (f *fakeVCS) UnresolvedFiles(ctx context.Context, owner, repo string) ([]string, error) {
	return f.unresolved, f.record("UnresolvedFiles")
}

func (f *fakeVCS) RepoPath(owner, repo string) string {
	return filepath.Join("/repos", owner, repo)
}

func (f *fakeVCS) called(prefix string) int {
	n := 0
	for _, call := range f.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type fakeClient struct {
	commits   []hosting.Commit
	commit    *hosting.Commit
	pr        *hosting.PullRequest
	prErr     error
	createErr error
	created   []hosting.PullRequestPayload
	requests  int
	authors   []string
}

func (f *fakeClient) GetCommits(ctx context.Context, owner, repo, author string) ([]hosting.Commit, error) {
	f.requests++
	f.authors = append(f.authors, author)
	return f.commits, nil
}

func (f *fakeClient) GetCommit(ctx context.Context, owner, repo, sha string) (*hosting.Commit, error) {
	f.requests++
	if f.commit == nil {
		return nil, fmt.Errorf("commit %s not found", sha)
	}
	return f.commit, nil
}

func (f *fakeClient) GetPullRequestByCommit(ctx context.Context, owner, repo, sha string) (*hosting.PullRequest, error) {
	f.requests++
	return f.pr, f.prErr
}

func (f *fakeClient) CreatePullRequest(ctx context.Context, owner, repo string, payload hosting.PullRequestPayload) (*hosting.PullRequest, error) {
	f.created = append(f.created, payload)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &hosting.PullRequest{Number: 100, URL: "https://github.com/" + owner + "/" + repo + "/pull/100"}, nil
}

type selectCall struct {
	label   string
	options []string
}

// fakePrompter answers prompts from scripted queues
type fakePrompter struct {
	selections   []int
	confirms     []bool
	err          error
	selectCalls  []selectCall
	confirmCalls []string
}

func (f *fakePrompter) Select(label string, options []string) (int, error) {
	f.selectCalls = append(f.selectCalls, selectCall{label: label, options: options})
	if f.err != nil {
		return -1, f.err
	}
	if len(f.selections) == 0 {
		return -1, fmt.Errorf("unexpected select prompt %q", label)
	}
	answer := f.selections[0]
	f.selections = f.selections[1:]
	return answer, nil
}

func (f *fakePrompter) Confirm(label string, def bool) (bool, error) {
	f.confirmCalls = append(f.confirmCalls, label)
	if f.err != nil {
		return false, f.err
	}
	if len(f.confirms) == 0 {
		return false, fmt.Errorf("unexpected confirm prompt %q", label)
	}
	answer := f.confirms[0]
	f.confirms = f.confirms[1:]
	return answer, nil
}
