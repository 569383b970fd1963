package git

import (
	"fmt"
	"strings"
)

// Workspace holds the local working copies of all backport repositories,
// one per owner/name under Root.
type Workspace struct {
	Root          string
	Host          string
	AccessToken   string
	DefaultBranch string
	// TokenUser is prepended to the token in remote URLs ("oauth2" for GitLab).
	TokenUser string
	// BaseURL replaces https://{token}@{Host} when set, e.g. a file:// mirror.
	BaseURL string
}

// CommandError is returned when a git invocation fails for a reason other
// than a cherry-pick conflict.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	output := strings.TrimSpace(e.Output)
	if output == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v, output: %s", strings.Join(e.Args, " "), e.Err, output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ConflictError is returned by CherryPick when the commit could not be
// applied cleanly. The working copy is left mid cherry-pick for manual
// resolution.
type ConflictError struct {
	SHA    string
	Output string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cherry-pick of %s did not apply cleanly: %s", e.SHA, strings.TrimSpace(e.Output))
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
