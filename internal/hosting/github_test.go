package hosting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSHA = "6a0f7c9d5e4b3a2f1e0d9c8b7a6f5e4d3c2b1a09"

func newTestGitHubClient(t *testing.T, mux *http.ServeMux) *GitHubClient {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewGitHubClient("github.com", "ghp_test", 10)
	require.NoError(t, err)

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.client.BaseURL = baseURL
	return client
}

func TestGitHubGetCommits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/elastic/kibana/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "octocat", r.URL.Query().Get("author"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		fmt.Fprintf(w, `[
			{"sha": %q, "commit": {"message": "Fix flaky test\n\nLonger description"}},
			{"sha": "b2c3d4e5f6", "commit": {"message": "Bump version"}}
		]`, testSHA)
	})
	client := newTestGitHubClient(t, mux)

	commits, err := client.GetCommits(context.Background(), "elastic", "kibana", "octocat")
	require.NoError(t, err)
	assert.Equal(t, []Commit{
		{SHA: testSHA, Message: "Fix flaky test"},
		{SHA: "b2c3d4e5f6", Message: "Bump version"},
	}, commits)
}

func TestGitHubGetCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/elastic/kibana/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testSHA, r.PathValue("sha"))
		fmt.Fprintf(w, `{"sha": %q, "commit": {"message": "Fix flaky test"}}`, testSHA)
	})
	client := newTestGitHubClient(t, mux)

	commit, err := client.GetCommit(context.Background(), "elastic", "kibana", testSHA)
	require.NoError(t, err)
	assert.Equal(t, &Commit{SHA: testSHA, Message: "Fix flaky test"}, commit)
}

func TestGitHubGetPullRequestByCommit(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     *PullRequest
	}{
		{
			name:     "no pull request",
			response: `[]`,
			want:     nil,
		},
		{
			name:     "single open pull request",
			response: `[{"number": 42, "html_url": "https://github.com/elastic/kibana/pull/42"}]`,
			want:     &PullRequest{Number: 42, URL: "https://github.com/elastic/kibana/pull/42"},
		},
		{
			name: "merged pull request preferred",
			response: `[
				{"number": 41, "html_url": "https://github.com/elastic/kibana/pull/41"},
				{"number": 42, "html_url": "https://github.com/elastic/kibana/pull/42", "merged_at": "2018-01-02T03:04:05Z"}
			]`,
			want: &PullRequest{Number: 42, URL: "https://github.com/elastic/kibana/pull/42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repos/elastic/kibana/commits/{sha}/pulls", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, testSHA, r.PathValue("sha"))
				fmt.Fprint(w, tt.response)
			})
			client := newTestGitHubClient(t, mux)

			pr, err := client.GetPullRequestByCommit(context.Background(), "elastic", "kibana", testSHA)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pr)
		})
	}
}

func TestGitHubCreatePullRequest(t *testing.T) {
	payload := PullRequestPayload{
		Title: "[Backport] Fix flaky test",
		Body:  "Backports pull request #42 to 6.x",
		Head:  "octocat:backport/6.x/pr-42",
		Base:  "6.x",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/elastic/kibana/pulls", func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, payload.Title, got["title"])
		assert.Equal(t, payload.Body, got["body"])
		assert.Equal(t, payload.Head, got["head"])
		assert.Equal(t, payload.Base, got["base"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 99, "html_url": "https://github.com/elastic/kibana/pull/99"}`)
	})
	client := newTestGitHubClient(t, mux)

	pr, err := client.CreatePullRequest(context.Background(), "elastic", "kibana", payload)
	require.NoError(t, err)
	assert.Equal(t, &PullRequest{Number: 99, URL: "https://github.com/elastic/kibana/pull/99"}, pr)
}

func TestGitHubCreatePullRequestFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/elastic/kibana/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "Validation Failed", "errors": [{"resource": "PullRequest", "code": "custom", "message": "A pull request already exists for octocat:backport/6.x/pr-42."}]}`)
	})
	client := newTestGitHubClient(t, mux)

	_, err := client.CreatePullRequest(context.Background(), "elastic", "kibana", PullRequestPayload{
		Title: "t", Head: "octocat:backport/6.x/pr-42", Base: "6.x",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Validation Failed", apiErr.Message)

	detail, ok := apiErr.Detail.(*gh.ErrorResponse)
	require.True(t, ok, "expected *github.ErrorResponse detail, got %T", apiErr.Detail)
	require.Len(t, detail.Errors, 1)
	assert.Contains(t, detail.Errors[0].Message, "already exists")
}

func TestGitHubNetworkErrorIsNotAPIError(t *testing.T) {
	mux := http.NewServeMux()
	client := newTestGitHubClient(t, mux)
	baseURL, err := url.Parse("http://127.0.0.1:1/")
	require.NoError(t, err)
	client.client.BaseURL = baseURL

	_, err = client.GetCommits(context.Background(), "elastic", "kibana", "octocat")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestNewGitHubClientEnterprise(t *testing.T) {
	client, err := NewGitHubClient("github.example.com", "ghp_test", 5)
	require.NoError(t, err)
	assert.Equal(t, "https://github.example.com/api/v3/", client.client.BaseURL.String())
	assert.Equal(t, 5, client.commitLimit)
}
