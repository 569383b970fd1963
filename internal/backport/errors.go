package backport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mxcd/backport/internal/configuration"
	"github.com/mxcd/backport/internal/hosting"
)

// ErrInvalidConfig matches every configuration problem, see configuration.InvalidConfigError
var ErrInvalidConfig = configuration.ErrInvalidConfig

// CherrypickConflictUnresolvedError is returned when the operator did not
// resolve a cherry-pick conflict. Details holds the output of the failed
// cherry-pick.
type CherrypickConflictUnresolvedError struct {
	Details         string
	UnresolvedFiles []string
}

func (e *CherrypickConflictUnresolvedError) Error() string {
	if len(e.UnresolvedFiles) > 0 {
		return fmt.Sprintf("cherry-pick conflict was not resolved, unmerged files: %s", strings.Join(e.UnresolvedFiles, ", "))
	}
	return "cherry-pick conflict was not resolved"
}

// Kind is the operator-facing category of a failed run
type Kind int

const (
	KindUnclassified Kind = iota
	KindInvalidConfig
	KindHostedAPI
	KindCherrypickConflictUnresolved
)

func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "invalid-config"
	case KindHostedAPI:
		return "hosted-api-error"
	case KindCherrypickConflictUnresolved:
		return "cherrypick-conflict-unresolved"
	default:
		return "unclassified"
	}
}

// Classification is the result of Classify. Err is the matched error in the
// chain, typed according to Kind.
type Classification struct {
	Kind Kind
	Err  error
}

// Classify maps err onto the closed set of failure kinds
func Classify(err error) Classification {
	var apiErr *hosting.APIError
	var conflictErr *CherrypickConflictUnresolvedError
	var configErr *configuration.InvalidConfigError

	switch {
	case errors.As(err, &configErr):
		return Classification{Kind: KindInvalidConfig, Err: configErr}
	case errors.Is(err, ErrInvalidConfig):
		return Classification{Kind: KindInvalidConfig, Err: err}
	case errors.As(err, &apiErr):
		return Classification{Kind: KindHostedAPI, Err: apiErr}
	case errors.As(err, &conflictErr):
		return Classification{Kind: KindCherrypickConflictUnresolved, Err: conflictErr}
	default:
		return Classification{Kind: KindUnclassified, Err: err}
	}
}

// Report writes the operator-facing message for err to w
func Report(w io.Writer, err error, configPath string) error {
	classification := Classify(err)

	switch classification.Kind {
	case KindInvalidConfig:
		var configErr *configuration.InvalidConfigError
		if errors.As(err, &configErr) && configPath == "" {
			configPath = configErr.Path
		}
		if _, werr := fmt.Fprintf(w, "Welcome to the Backport CLI tool! Update this config to proceed: %s\n", configPath); werr != nil {
			return werr
		}
		if configErr != nil && configErr.Reason != configuration.ReasonNotFound {
			_, werr := fmt.Fprintln(w, err.Error())
			return werr
		}
		return nil

	case KindHostedAPI:
		apiErr := classification.Err.(*hosting.APIError)
		detail := apiErr.Detail
		if detail == nil {
			detail = apiErr.Message
		}
		data, merr := json.MarshalIndent(detail, "", "    ")
		if merr != nil {
			_, werr := fmt.Fprintf(w, "%+v\n", err)
			return werr
		}
		_, werr := fmt.Fprintln(w, string(data))
		return werr

	case KindCherrypickConflictUnresolved:
		conflictErr := classification.Err.(*CherrypickConflictUnresolvedError)
		message := "Merge conflict was not resolved " + conflictErr.Details
		if len(conflictErr.UnresolvedFiles) > 0 {
			message += "\nUnmerged files: " + strings.Join(conflictErr.UnresolvedFiles, ", ")
		}
		_, werr := fmt.Fprintln(w, message)
		return werr

	default:
		_, werr := fmt.Fprintf(w, "%+v\n", err)
		return werr
	}
}
