package hosting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	gl "gitlab.com/gitlab-org/api/client-go"
)

const defaultGitLabHost = "gitlab.com"

// GitLabClient talks to gitlab.com or a self-hosted GitLab. Pull requests
// are GitLab merge requests, numbered by their project-scoped IID.
type GitLabClient struct {
	client      *gl.Client
	commitLimit int
}

// NewGitLabClient creates a GitLab client. host may be a bare hostname or a
// full base URL.
func NewGitLabClient(host, accessToken string, commitLimit int) (*GitLabClient, error) {
	if host == "" {
		host = defaultGitLabHost
	}
	baseURL := host
	if !strings.Contains(host, "://") {
		baseURL = "https://" + host
	}

	client, err := gl.NewClient(accessToken, gl.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client for %s: %w", host, err)
	}

	return &GitLabClient{client: client, commitLimit: commitLimit}, nil
}

// GetCommits lists the most recent commits whose author name or email
// matches author
func (c *GitLabClient) GetCommits(ctx context.Context, owner, repo, author string) ([]Commit, error) {
	log.Debug().Str("owner", owner).Str("repo", repo).Str("author", author).Msg("Listing commits")

	opts := &gl.ListCommitsOptions{Author: gl.Ptr(author)}
	if c.commitLimit > 0 {
		opts.PerPage = int64(c.commitLimit)
	}

	commits, resp, err := c.client.Commits.ListCommits(projectPath(owner, repo), opts, gl.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("list commits", resp, err)
	}

	result := make([]Commit, 0, len(commits))
	for _, commit := range commits {
		result = append(result, Commit{SHA: commit.ID, Message: firstLine(commit.Title)})
	}
	return result, nil
}

// GetCommit fetches a single commit
func (c *GitLabClient) GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error) {
	log.Debug().Str("owner", owner).Str("repo", repo).Str("sha", sha).Msg("Fetching commit")

	commit, resp, err := c.client.Commits.GetCommit(projectPath(owner, repo), sha, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("get commit", resp, err)
	}

	return &Commit{SHA: commit.ID, Message: firstLine(commit.Title)}, nil
}

// GetPullRequestByCommit returns the merge request that introduced sha, or nil.
// Merged merge requests win over open ones.
func (c *GitLabClient) GetPullRequestByCommit(ctx context.Context, owner, repo, sha string) (*PullRequest, error) {
	log.Debug().Str("owner", owner).Str("repo", repo).Str("sha", sha).Msg("Looking up merge request for commit")

	mergeRequests, resp, err := c.client.Commits.ListMergeRequestsByCommit(projectPath(owner, repo), sha, gl.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("list merge requests for commit", resp, err)
	}
	if len(mergeRequests) == 0 {
		return nil, nil
	}

	chosen := mergeRequests[0]
	for _, mr := range mergeRequests {
		if mr.State == "merged" {
			chosen = mr
			break
		}
	}

	return &PullRequest{Number: int(chosen.IID), URL: chosen.WebURL}, nil
}

// CreatePullRequest opens a merge request from the fork named in the payload
// head into owner/repo.
func (c *GitLabClient) CreatePullRequest(ctx context.Context, owner, repo string, payload PullRequestPayload) (*PullRequest, error) {
	username, branch, err := splitHead(payload.Head)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("owner", owner).Str("repo", repo).Str("head", payload.Head).Str("base", payload.Base).Msg("Creating merge request")

	target, resp, err := c.client.Projects.GetProject(projectPath(owner, repo), nil, gl.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("get target project", resp, err)
	}

	opts := &gl.CreateMergeRequestOptions{
		Title:           gl.Ptr(payload.Title),
		Description:     gl.Ptr(payload.Body),
		SourceBranch:    gl.Ptr(branch),
		TargetBranch:    gl.Ptr(payload.Base),
		TargetProjectID: gl.Ptr(target.ID),
	}

	created, resp, err := c.client.MergeRequests.CreateMergeRequest(projectPath(username, repo), opts, gl.WithContext(ctx))
	if err != nil {
		return nil, gitlabError("create merge request", resp, err)
	}

	log.Debug().Int("number", int(created.IID)).Str("url", created.WebURL).Msg("Created merge request")
	return &PullRequest{Number: int(created.IID), URL: created.WebURL}, nil
}

func projectPath(owner, repo string) string {
	return owner + "/" + repo
}

func gitlabError(operation string, resp *gl.Response, err error) error {
	if resp == nil || !isFailure(resp.Response) {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}

	apiErr := &APIError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Message:    err.Error(),
		Detail:     err.Error(),
	}

	var errResp *gl.ErrorResponse
	if errors.As(err, &errResp) {
		apiErr.Message = errResp.Message
		var detail any
		if len(errResp.Body) > 0 && json.Unmarshal(errResp.Body, &detail) == nil {
			apiErr.Detail = detail
		}
	}

	log.Debug().Str("operation", operation).Int("status", resp.StatusCode).Msg("GitLab API request failed")
	return apiErr
}
