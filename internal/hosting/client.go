package hosting

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mxcd/backport/internal/configuration"
)

// Commit is a commit as listed by the hosted repository. Message holds the
// first line of the commit message only.
type Commit struct {
	SHA     string
	Message string
}

// PullRequest describes a pull request (or GitLab merge request)
type PullRequest struct {
	Number int
	URL    string
}

// PullRequestPayload is the request to open a pull request. Head is
// "{username}:{branch}", Base the target branch.
type PullRequestPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// Client is the hosted-repository API used by the backport flow
type Client interface {
	GetCommits(ctx context.Context, owner, repo, author string) ([]Commit, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error)
	GetPullRequestByCommit(ctx context.Context, owner, repo, sha string) (*PullRequest, error)
	CreatePullRequest(ctx context.Context, owner, repo string, payload PullRequestPayload) (*PullRequest, error)
}

// APIError is returned when the hosted API answers with a non-success status.
// Detail carries the structured error body for reporting.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
	Detail     any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// NewClient creates the client for the configured provider
func NewClient(config *configuration.Config) (Client, error) {
	switch config.Provider {
	case configuration.ProviderTypeGitHub, "":
		return NewGitHubClient(config.Host, config.AccessToken, config.CommitLimit)
	case configuration.ProviderTypeGitLab:
		return NewGitLabClient(config.Host, config.AccessToken, config.CommitLimit)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

// isFailure reports whether resp carries a non-success status
func isFailure(resp *http.Response) bool {
	return resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299)
}

// firstLine returns the subject line of a commit message
func firstLine(message string) string {
	subject, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(subject)
}

// splitHead splits "{username}:{branch}" into its parts
func splitHead(head string) (string, string, error) {
	user, branch, ok := strings.Cut(head, ":")
	if !ok || user == "" || branch == "" {
		return "", "", fmt.Errorf("invalid head %q, expected username:branch", head)
	}
	return user, branch, nil
}
