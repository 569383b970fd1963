package hosting

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v68/github"
	"github.com/rs/zerolog/log"
)

const defaultGitHubHost = "github.com"

// GitHubClient talks to github.com or a GitHub Enterprise instance
type GitHubClient struct {
	client      *gh.Client
	commitLimit int
}

// NewGitHubClient creates a GitHub client. Hosts other than github.com are
// treated as GitHub Enterprise.
func NewGitHubClient(host, accessToken string, commitLimit int) (*GitHubClient, error) {
	client := gh.NewClient(nil).WithAuthToken(accessToken)

	if host != "" && host != defaultGitHubHost {
		baseURL := "https://" + host + "/api/v3/"
		uploadURL := "https://" + host + "/api/uploads/"

		var err error
		client, err = client.WithEnterpriseURLs(baseURL, uploadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise urls for %s: %w", host, err)
		}
	}

	return &GitHubClient{client: client, commitLimit: commitLimit}, nil
}

// GetCommits lists the most recent commits authored by author
func (c *GitHubClient) GetCommits(ctx context.Context, owner, repo, author string) ([]Commit, error) {
	log.Debug().Str("owner", owner).Str("repo", repo).Str("author", author).Msg("Listing commits")

	opts := &gh.CommitsListOptions{
		Author:      author,
		ListOptions: gh.ListOptions{PerPage: c.commitLimit},
	}

	commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, githubError("list commits", resp, err)
	}

	result := make([]Commit, 0, len(commits))
	for _, commit := range commits {
		result = append(result, Commit{
			SHA:     commit.GetSHA(),
			Message: firstLine(commit.GetCommit().GetMessage()),
		})
	}
	return result, nil
}

// GetCommit fetches a single commit
func (c *GitHubClient) GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error) {
	log.Debug().Str("owner", owner).Str("repo", repo).Str("sha", sha).Msg("Fetching commit")

	commit, resp, err := c.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, githubError("get commit", resp, err)
	}

	return &Commit{
		SHA:     commit.GetSHA(),
		Message: firstLine(commit.GetCommit().GetMessage()),
	}, nil
}

// GetPullRequestByCommit returns the pull request that introduced sha, or nil.
// Merged pull requests win over open ones.
func (c *GitHubClient) GetPullRequestByCommit(ctx context.Context, owner, repo, sha string) (*PullRequest, error) {
	log.Debug().Str("owner", owner).Str("repo", repo).Str("sha", sha).Msg("Looking up pull request for commit")

	pulls, resp, err := c.client.PullRequests.ListPullRequestsWithCommit(ctx, owner, repo, sha, &gh.ListOptions{PerPage: 10})
	if err != nil {
		return nil, githubError("list pull requests for commit", resp, err)
	}
	if len(pulls) == 0 {
		return nil, nil
	}

	chosen := pulls[0]
	for _, pull := range pulls {
		if pull.MergedAt != nil {
			chosen = pull
			break
		}
	}

	return &PullRequest{Number: chosen.GetNumber(), URL: chosen.GetHTMLURL()}, nil
}

// CreatePullRequest opens a pull request on owner/repo
func (c *GitHubClient) CreatePullRequest(ctx context.Context, owner, repo string, payload PullRequestPayload) (*PullRequest, error) {
	log.Debug().Str("owner", owner).Str("repo", repo).Str("head", payload.Head).Str("base", payload.Base).Msg("Creating pull request")

	created, resp, err := c.client.PullRequests.Create(ctx, owner, repo, &gh.NewPullRequest{
		Title: gh.Ptr(payload.Title),
		Body:  gh.Ptr(payload.Body),
		Head:  gh.Ptr(payload.Head),
		Base:  gh.Ptr(payload.Base),
	})
	if err != nil {
		return nil, githubError("create pull request", resp, err)
	}

	log.Debug().Int("number", created.GetNumber()).Str("url", created.GetHTMLURL()).Msg("Created pull request")
	return &PullRequest{Number: created.GetNumber(), URL: created.GetHTMLURL()}, nil
}

func githubError(operation string, resp *gh.Response, err error) error {
	if resp == nil || !isFailure(resp.Response) {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}

	apiErr := &APIError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Message:    err.Error(),
		Detail:     err.Error(),
	}

	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) {
		apiErr.Message = errResp.Message
		apiErr.Detail = errResp
	}

	log.Debug().Str("operation", operation).Int("status", resp.StatusCode).Msg("GitHub API request failed")
	return apiErr
}
