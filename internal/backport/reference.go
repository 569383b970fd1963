package backport

import (
	"context"
	"fmt"

	"github.com/mxcd/backport/internal/hosting"
	"github.com/rs/zerolog/log"
)

const shortSHALength = 7

// ReferenceKind tells whether a change arrived through a pull request or as a bare commit
type ReferenceKind int

const (
	ReferenceCommit ReferenceKind = iota
	ReferencePullRequest
)

// Reference is the human-addressable origin of a backported change.
// Exactly one of Number and ShortSHA is meaningful, depending on Kind.
type Reference struct {
	Kind     ReferenceKind
	Number   int
	ShortSHA string
}

// PullRequestReference refers to pull request number n
func PullRequestReference(n int) Reference {
	return Reference{Kind: ReferencePullRequest, Number: n}
}

// CommitReference refers to a raw commit by the first seven characters of sha
func CommitReference(sha string) Reference {
	if len(sha) > shortSHALength {
		sha = sha[:shortSHALength]
	}
	return Reference{Kind: ReferenceCommit, ShortSHA: sha}
}

// Short is the token used in branch names: pr-{n} or commit-{sha7}
func (r Reference) Short() string {
	if r.Kind == ReferencePullRequest {
		return fmt.Sprintf("pr-%d", r.Number)
	}
	return "commit-" + r.ShortSHA
}

// String is the human-readable form used in pull request bodies
func (r Reference) String() string {
	if r.Kind == ReferencePullRequest {
		return fmt.Sprintf("pull request #%d", r.Number)
	}
	return "commit " + r.ShortSHA
}

// ResolveReference asks the hosted repository whether sha came in through a
// pull request. Client errors are returned unchanged.
func ResolveReference(ctx context.Context, client hosting.Client, owner, repo, sha string) (Reference, error) {
	pr, err := client.GetPullRequestByCommit(ctx, owner, repo, sha)
	if err != nil {
		return Reference{}, err
	}

	if pr != nil {
		log.Debug().Str("sha", sha).Int("number", pr.Number).Msg("Commit belongs to pull request")
		return PullRequestReference(pr.Number), nil
	}

	log.Debug().Str("sha", sha).Msg("No pull request found for commit")
	return CommitReference(sha), nil
}
