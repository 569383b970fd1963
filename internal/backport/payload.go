package backport

import (
	"fmt"
	"io"
	"strings"

	"github.com/mxcd/backport/internal/configuration"
	"github.com/mxcd/backport/internal/hosting"
	"github.com/valyala/fasttemplate"
)

// RepositoryInfo identifies the repository a run operates on
type RepositoryInfo struct {
	Owner string
	Name  string
}

func (r RepositoryInfo) FullName() string {
	return r.Owner + "/" + r.Name
}

// ParseRepositoryInfo splits "owner/name" on its first slash
func ParseRepositoryInfo(fullName string) (RepositoryInfo, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return RepositoryInfo{}, &configuration.InvalidConfigError{
			Reason: fmt.Sprintf("repository %q must be in owner/name format", fullName),
		}
	}
	return RepositoryInfo{Owner: owner, Name: name}, nil
}

// BranchName is the deterministic backport branch for version and ref
func BranchName(version string, ref Reference) string {
	return fmt.Sprintf("backport/%s/%s", version, ref.Short())
}

// Templates renders pull request titles and bodies. Placeholders are
// {message}, {reference}, {version}, {sha} and {branch}.
type Templates struct {
	Title string
	Body  string
}

// DefaultTemplates produce "[Backport] {message}" and "Backports {reference} to {version}"
func DefaultTemplates() Templates {
	return Templates{
		Title: configuration.DefaultTitleTemplate,
		Body:  configuration.DefaultBodyTemplate,
	}
}

// TemplatesFromConfig falls back to the defaults for unset templates
func TemplatesFromConfig(config *configuration.Config) Templates {
	templates := DefaultTemplates()
	if config.TitleTemplate != "" {
		templates.Title = config.TitleTemplate
	}
	if config.BodyTemplate != "" {
		templates.Body = config.BodyTemplate
	}
	return templates
}

// NewPayload builds the pull request that proposes the backport branch of
// commit into version.
func NewPayload(commit hosting.Commit, version string, ref Reference, username string, templates Templates) (hosting.PullRequestPayload, error) {
	branch := BranchName(version, ref)
	values := map[string]string{
		"message":   commit.Message,
		"reference": ref.String(),
		"version":   version,
		"sha":       commit.SHA,
		"branch":    branch,
	}

	title, err := render(templates.Title, values)
	if err != nil {
		return hosting.PullRequestPayload{}, fmt.Errorf("failed to render title template: %w", err)
	}
	body, err := render(templates.Body, values)
	if err != nil {
		return hosting.PullRequestPayload{}, fmt.Errorf("failed to render body template: %w", err)
	}

	return hosting.PullRequestPayload{
		Title: title,
		Body:  body,
		Head:  username + ":" + branch,
		Base:  version,
	}, nil
}

func render(template string, values map[string]string) (string, error) {
	t, err := fasttemplate.NewTemplate(template, "{", "}")
	if err != nil {
		return "", err
	}
	return t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		value, ok := values[tag]
		if !ok {
			return 0, fmt.Errorf("unknown placeholder {%s}", tag)
		}
		return io.WriteString(w, value)
	})
}
