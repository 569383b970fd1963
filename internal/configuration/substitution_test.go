package configuration

import (
	"errors"
	"strings"
	"testing"
)

func TestGetYAMLValue(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]interface{}
		path      string
		want      interface{}
		wantError bool
	}{
		{
			name:      "top-level access",
			data:      map[string]interface{}{"token": "secret123"},
			path:      "token",
			want:      "secret123",
			wantError: false,
		},
		{
			name: "nested access",
			data: map[string]interface{}{
				"github": map[string]interface{}{
					"token": "ghp_nested",
				},
			},
			path:      "github.token",
			want:      "ghp_nested",
			wantError: false,
		},
		{
			name: "interface{} keyed map",
			data: map[string]interface{}{
				"gitlab": map[interface{}]interface{}{
					"token": "glpat-value",
				},
			},
			path:      "gitlab.token",
			want:      "glpat-value",
			wantError: false,
		},
		{
			name:      "path not found",
			data:      map[string]interface{}{"token": "secret"},
			path:      "nonexistent",
			wantError: true,
		},
		{
			name:      "empty path",
			data:      map[string]interface{}{"token": "secret"},
			path:      "",
			wantError: true,
		},
		{
			name: "path with empty segment",
			data: map[string]interface{}{
				"github": map[string]interface{}{"token": "secret"},
			},
			path:      "github..token",
			wantError: true,
		},
		{
			name:      "traverse into non-map",
			data:      map[string]interface{}{"value": "string"},
			path:      "value.nested",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetYAMLValue(tt.data, tt.path)

			if tt.wantError {
				if err == nil {
					t.Errorf("GetYAMLValue() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("GetYAMLValue() unexpected error: %v", err)
				return
			}

			if got != tt.want {
				t.Errorf("GetYAMLValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubstituteVariables_EnvVars(t *testing.T) {
	t.Setenv("BACKPORT_TEST_USER", "octocat")
	t.Setenv("BACKPORT_TEST_TOKEN", "ghp_123")

	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{
			name:  "simple substitution",
			input: "${BACKPORT_TEST_USER}",
			want:  "octocat",
		},
		{
			name:  "substitution in middle of string",
			input: "https://${BACKPORT_TEST_TOKEN}@github.com",
			want:  "https://ghp_123@github.com",
		},
		{
			name:  "multiple substitutions",
			input: "${BACKPORT_TEST_USER}:${BACKPORT_TEST_TOKEN}",
			want:  "octocat:ghp_123",
		},
		{
			name:  "no substitution needed",
			input: "plain string",
			want:  "plain string",
		},
		{
			name:  "dollar sign without braces",
			input: "price: $100",
			want:  "price: $100",
		},
		{
			name:      "undefined variable",
			input:     "${BACKPORT_TEST_UNDEFINED}",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewSubstitutionContext()
			got, err := ctx.SubstituteVariables(tt.input)

			if tt.wantError {
				if err == nil {
					t.Errorf("SubstituteVariables() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("SubstituteVariables() unexpected error: %v", err)
				return
			}

			if got != tt.want {
				t.Errorf("SubstituteVariables() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSOPSReference(t *testing.T) {
	secrets := map[string]interface{}{
		"github": map[string]interface{}{
			"token": "ghp_from_sops",
		},
	}

	tests := []struct {
		name      string
		expr      string
		want      string
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid reference",
			expr: "SOPS[secrets.enc.yml].github.token",
			want: "ghp_from_sops",
		},
		{
			name:      "missing closing bracket",
			expr:      "SOPS[secrets.enc.yml.github.token",
			wantError: true,
			errorMsg:  "missing ]",
		},
		{
			name:      "missing dot after bracket",
			expr:      "SOPS[secrets.enc.yml]github",
			wantError: true,
			errorMsg:  "expected . after ]",
		},
		{
			name:      "missing YAML path",
			expr:      "SOPS[secrets.enc.yml]",
			wantError: true,
			errorMsg:  "must include a YAML path",
		},
		{
			name:      "unknown key",
			expr:      "SOPS[secrets.enc.yml].gitlab.token",
			wantError: true,
			errorMsg:  "failed to access path",
		},
		{
			name:      "invalid prefix",
			expr:      "INVALID[secrets.enc.yml].token",
			wantError: true,
			errorMsg:  "invalid SOPS reference format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewSubstitutionContext()
			ctx.decrypt = func(string) (map[string]interface{}, error) {
				return secrets, nil
			}

			got, err := ctx.resolveSOPSReference(tt.expr)

			if tt.wantError {
				if err == nil {
					t.Errorf("resolveSOPSReference() expected error but got none")
					return
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("resolveSOPSReference() error = %q, want it to contain %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("resolveSOPSReference() unexpected error: %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("resolveSOPSReference() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadSOPSFileCaching(t *testing.T) {
	calls := 0
	ctx := NewSubstitutionContext()
	ctx.decrypt = func(string) (map[string]interface{}, error) {
		calls++
		return map[string]interface{}{"token": "cached"}, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := ctx.loadSOPSFile("secrets.enc.yml"); err != nil {
			t.Fatalf("loadSOPSFile() unexpected error: %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 decrypt call, got %d", calls)
	}
}

func TestLoadSOPSFileDecryptError(t *testing.T) {
	ctx := NewSubstitutionContext()
	ctx.decrypt = func(string) (map[string]interface{}, error) {
		return nil, errors.New("no key")
	}

	if _, err := ctx.loadSOPSFile("secrets.enc.yml"); err == nil {
		t.Fatal("loadSOPSFile() expected error but got none")
	}
	if len(ctx.sopsCache) != 0 {
		t.Errorf("failed decrypts must not be cached")
	}
}

func TestSubstituteInConfig(t *testing.T) {
	t.Setenv("BACKPORT_TEST_USER", "octocat")
	t.Setenv("BACKPORT_TEST_TOKEN", "ghp_123")
	t.Setenv("BACKPORT_TEST_HOST", "github.example.com")

	config := &Config{
		Username:    "${BACKPORT_TEST_USER}",
		AccessToken: "${BACKPORT_TEST_TOKEN}",
		Host:        "${BACKPORT_TEST_HOST}",
		Repositories: []*Repository{
			{Name: "elastic/kibana", Versions: []string{"6.x"}},
		},
	}

	ctx := NewSubstitutionContext()
	if err := ctx.SubstituteInConfig(config); err != nil {
		t.Fatalf("SubstituteInConfig() error = %v", err)
	}

	if config.Username != "octocat" {
		t.Errorf("Username = %q, want %q", config.Username, "octocat")
	}
	if config.AccessToken != "ghp_123" {
		t.Errorf("AccessToken = %q, want %q", config.AccessToken, "ghp_123")
	}
	if config.Host != "github.example.com" {
		t.Errorf("Host = %q, want %q", config.Host, "github.example.com")
	}
}

func TestSubstituteInConfigMissingVariable(t *testing.T) {
	config := &Config{AccessToken: "${BACKPORT_TEST_NOT_SET}"}

	ctx := NewSubstitutionContext()
	err := ctx.SubstituteInConfig(config)
	if err == nil {
		t.Fatal("SubstituteInConfig() expected error but got none")
	}
	if !strings.Contains(err.Error(), "accessToken") {
		t.Errorf("error %q should name the field", err.Error())
	}
}
