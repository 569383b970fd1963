package configuration

type Config struct {
	Username                 string        `yaml:"username"`
	AccessToken              string        `yaml:"accessToken"`
	Author                   string        `yaml:"author,omitempty"`
	Provider                 ProviderType  `yaml:"provider,omitempty"`
	Host                     string        `yaml:"host,omitempty"`
	DefaultBranch            string        `yaml:"defaultBranch,omitempty"`
	CommitLimit              int           `yaml:"commitLimit,omitempty"`
	VerifyConflictResolution bool          `yaml:"verifyConflictResolution,omitempty"`
	RepositoriesPath         string        `yaml:"repositoriesPath,omitempty"`
	TitleTemplate            string        `yaml:"titleTemplate,omitempty"`
	BodyTemplate             string        `yaml:"bodyTemplate,omitempty"`
	Repositories             []*Repository `yaml:"repositories"`
}

type ProviderType string

const (
	ProviderTypeGitHub ProviderType = "github"
	ProviderTypeGitLab ProviderType = "gitlab"
)

// Repository is a repository that can be backported to, keyed by its full
// "owner/name".
type Repository struct {
	Name     string   `yaml:"name"`
	Versions []string `yaml:"versions"`
}

const (
	DefaultTitleTemplate = "[Backport] {message}"
	DefaultBodyTemplate  = "Backports {reference} to {version}"
	DefaultCommitLimit   = 10
	DefaultBranch        = "master"
)

// TemplatePlaceholders are the tags titleTemplate and bodyTemplate may use.
var TemplatePlaceholders = []string{"message", "reference", "version", "sha", "branch"}

// CommitAuthor is the value commits are filtered by. GitHub matches it against
// the login or email, GitLab against the author name or email, so GitLab
// users whose display name differs from their username set author.
func (c *Config) CommitAuthor() string {
	if c.Author != "" {
		return c.Author
	}
	return c.Username
}

// FullNames returns the "owner/name" of every configured repository in order.
func (c *Config) FullNames() []string {
	names := make([]string, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		names = append(names, repo.Name)
	}
	return names
}

// FindRepository returns the repository with the given full name, or nil.
func (c *Config) FindRepository(fullName string) *Repository {
	for _, repo := range c.Repositories {
		if repo.Name == fullName {
			return repo
		}
	}
	return nil
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderTypeGitHub
	}
	if c.Host == "" {
		switch c.Provider {
		case ProviderTypeGitLab:
			c.Host = "gitlab.com"
		default:
			c.Host = "github.com"
		}
	}
	if c.DefaultBranch == "" {
		c.DefaultBranch = DefaultBranch
	}
	if c.CommitLimit <= 0 {
		c.CommitLimit = DefaultCommitLimit
	}
	if c.RepositoriesPath == "" {
		c.RepositoriesPath = "~/.backport/repositories"
	}
	if c.TitleTemplate == "" {
		c.TitleTemplate = DefaultTitleTemplate
	}
	if c.BodyTemplate == "" {
		c.BodyTemplate = DefaultBodyTemplate
	}
}
