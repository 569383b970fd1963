package configuration

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/valyala/fasttemplate"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of configuration validation
type ValidationResult struct {
	Valid  bool               `json:"valid" yaml:"valid"`
	Errors []*ValidationError `json:"errors" yaml:"errors"`
}

// AddError adds a validation error to the result
func (r *ValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, &ValidationError{
		Field:   field,
		Message: message,
	})
}

// Err converts an invalid result into an InvalidConfigError for configPath.
func (r *ValidationResult) Err(configPath string) error {
	if r.Valid {
		return nil
	}
	messages := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		messages = append(messages, err.Error())
	}
	return &InvalidConfigError{Path: configPath, Reason: strings.Join(messages, "; ")}
}

// ValidateConfiguration performs validation on the configuration
func ValidateConfiguration(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]*ValidationError, 0),
	}

	if strings.TrimSpace(config.Username) == "" {
		result.AddError("username", "username cannot be empty")
	}

	if strings.TrimSpace(config.AccessToken) == "" {
		result.AddError("accessToken", "access token cannot be empty")
	}

	if config.Provider != "" && !isValidProviderType(config.Provider) {
		result.AddError("provider", fmt.Sprintf("invalid provider type: %s", config.Provider))
	}

	if config.CommitLimit < 0 {
		result.AddError("commitLimit", "commit limit cannot be negative")
	}

	for _, tmpl := range []struct {
		field string
		value string
	}{
		{"titleTemplate", config.TitleTemplate},
		{"bodyTemplate", config.BodyTemplate},
	} {
		if tmpl.value == "" {
			continue
		}
		if err := validateTemplate(tmpl.value); err != nil {
			result.AddError(tmpl.field, fmt.Sprintf("invalid template: %v", err))
		}
	}

	if len(config.Repositories) == 0 {
		result.AddError("repositories", "at least one repository must be configured")
	}

	repositoryNames := make(map[string]bool)
	for i, repo := range config.Repositories {
		fieldPrefix := fmt.Sprintf("repositories[%d]", i)

		if repo == nil {
			result.AddError(fieldPrefix, "repository entry cannot be empty")
			continue
		}

		if strings.TrimSpace(repo.Name) == "" {
			result.AddError(fmt.Sprintf("%s.name", fieldPrefix), "repository name cannot be empty")
		} else {
			owner, name, ok := strings.Cut(repo.Name, "/")
			if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
				result.AddError(fmt.Sprintf("%s.name", fieldPrefix), fmt.Sprintf("repository name must be in owner/name format, got %q", repo.Name))
			}
			if repositoryNames[repo.Name] {
				result.AddError(fmt.Sprintf("%s.name", fieldPrefix), fmt.Sprintf("duplicate repository name: %s", repo.Name))
			}
			repositoryNames[repo.Name] = true
		}

		if len(repo.Versions) == 0 {
			result.AddError(fmt.Sprintf("%s.versions", fieldPrefix), "at least one version must be configured")
		}

		versions := make(map[string]bool)
		for j, version := range repo.Versions {
			if strings.TrimSpace(version) == "" {
				result.AddError(fmt.Sprintf("%s.versions[%d]", fieldPrefix, j), "version cannot be empty")
				continue
			}
			if versions[version] {
				result.AddError(fmt.Sprintf("%s.versions[%d]", fieldPrefix, j), fmt.Sprintf("duplicate version: %s", version))
			}
			versions[version] = true
		}
	}

	return result
}

// validateTemplate parses template and rejects placeholders that would
// render as empty strings.
func validateTemplate(template string) error {
	t, err := fasttemplate.NewTemplate(template, "{", "}")
	if err != nil {
		return err
	}
	_, err = t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		if !slices.Contains(TemplatePlaceholders, tag) {
			return 0, fmt.Errorf("unknown placeholder {%s}, expected one of %s", tag, strings.Join(TemplatePlaceholders, ", "))
		}
		return 0, nil
	})
	return err
}

func isValidProviderType(providerType ProviderType) bool {
	switch providerType {
	case ProviderTypeGitHub, ProviderTypeGitLab:
		return true
	default:
		return false
	}
}
