package configuration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks every error caused by a missing, unreadable or
// incomplete configuration file.
var ErrInvalidConfig = errors.New("invalid configuration")

// ReasonNotFound is the InvalidConfigError reason for a missing configuration file
const ReasonNotFound = "configuration file not found"

// InvalidConfigError describes why the configuration at Path cannot be used.
type InvalidConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Path, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}

func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

const configTemplate = `# Backport configuration
username: ""
accessToken: ""
# author filters the commit picker; defaults to username.
# GitLab matches it against the commit author name or email.
# author: ""
# provider: github
# host: github.com
# defaultBranch: master
repositories:
  - name: elastic/kibana
    versions: ["6.x", "6.1", "6.0"]
`

// DefaultConfigPath returns ~/.backport/config.yml
func DefaultConfigPath() string {
	return filepath.Join("~", ".backport", "config.yml")
}

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// LoadConfiguration reads and parses the configuration from the given path.
// A missing file is replaced by a template and reported as ErrInvalidConfig so
// the operator knows where to fill in credentials. Environment and SOPS
// substitution is applied and defaults are filled in.
func LoadConfiguration(configPath string) (*Config, error) {
	path := ExpandPath(configPath)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := WriteTemplate(path); writeErr != nil {
				log.Warn().Err(writeErr).Str("path", path).Msg("Failed to write configuration template")
			}
			return nil, &InvalidConfigError{Path: path, Reason: ReasonNotFound}
		}
		return nil, &InvalidConfigError{Path: path, Reason: "failed to read configuration file", Err: err}
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, &InvalidConfigError{Path: path, Reason: "failed to parse configuration YAML", Err: err}
	}

	ctx := NewSubstitutionContext()
	if err := ctx.SubstituteInConfig(&config); err != nil {
		return nil, &InvalidConfigError{Path: path, Reason: "failed to substitute variables", Err: err}
	}

	config.ApplyDefaults()
	config.RepositoriesPath = ExpandPath(config.RepositoriesPath)

	log.Debug().
		Str("path", path).
		Int("repositories", len(config.Repositories)).
		Msg("Loaded configuration")

	return &config, nil
}

// WriteTemplate writes the starter configuration to path unless a file exists there.
func WriteTemplate(path string) error {
	path = ExpandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	// the file will hold an access token
	return os.WriteFile(path, []byte(configTemplate), 0600)
}
