package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/mxcd/backport/internal/backport"
	"github.com/mxcd/backport/internal/configuration"
	"github.com/mxcd/backport/internal/git"
	"github.com/mxcd/backport/internal/hosting"
	"github.com/mxcd/backport/internal/progress"
	"github.com/mxcd/backport/internal/prompt"
	"github.com/mxcd/backport/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

var version = "development"

func main() {

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{},
		Usage:   "print only the version",
	}

	cmd := &cli.Command{
		Name:           "backport",
		Version:        version,
		Usage:          "Backport a merged commit onto a release branch",
		DefaultCommand: "run",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "debug output",
				Sources: cli.EnvVars("BACKPORT_VERBOSE"),
			},
			&cli.BoolFlag{
				Name:    "very-verbose",
				Aliases: []string{"vv"},
				Usage:   "trace output",
				Sources: cli.EnvVars("BACKPORT_VERY_VERBOSE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return initCli(ctx, cmd)
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Select a commit and version and open a backport pull request",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "sha",
						Usage: "Commit to backport, skips the commit selection",
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "Target version, skips the version selection",
					},
				},
				Action: runCommand,
			},
			{
				Name:  "repos",
				Usage: "List configured repositories and their versions",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: reposCommand,
			},
			{
				Name:  "validate",
				Usage: "Validate configuration",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output format: table, json, yaml",
						Value: "table",
					},
				},
				Action: validateCommand,
			},
			{
				Name:  "init-config",
				Usage: "Write a configuration template",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: initConfigCommand,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("command terminated with error")
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   configuration.DefaultConfigPath(),
		Sources: cli.EnvVars("BACKPORT_CONFIG"),
	}
}

func initCli(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	godotenv.Load()
	util.SetCliLoggerDefaults()
	util.SetCliLogLevel(cmd)
	log.Trace().Msg("Trace logging enabled")
	log.Debug().Msg("Debug logging enabled")

	return ctx, nil
}

// loadValidConfiguration loads and validates the configuration, returning an
// error that wraps configuration.ErrInvalidConfig on any problem.
func loadValidConfiguration(configPath string) (*configuration.Config, error) {
	config, err := configuration.LoadConfiguration(configPath)
	if err != nil {
		return nil, err
	}

	if result := configuration.ValidateConfiguration(config); !result.Valid {
		return nil, result.Err(configPath)
	}
	return config, nil
}

func newWorkspace(config *configuration.Config) *git.Workspace {
	workspace := git.NewWorkspace(config.RepositoriesPath, config.Host, config.AccessToken, config.DefaultBranch)
	if config.Provider == configuration.ProviderTypeGitLab {
		workspace.TokenUser = "oauth2"
	}
	return workspace
}

func runCommand(ctx context.Context, cmd *cli.Command) error {
	configPath := configuration.ExpandPath(cmd.String("config"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	result, err := runBackport(ctx, cmd, configPath)
	if err != nil {
		log.Debug().Err(err).Str("kind", backport.Classify(err).Kind.String()).Msg("Backport failed")
		if reportErr := backport.Report(os.Stderr, err, configPath); reportErr != nil {
			log.Error().Err(reportErr).Msg("Failed to report error")
		}
		return cli.Exit("", 1)
	}

	if result.PullRequest != nil && result.PullRequest.URL != "" {
		fmt.Printf("Pull request created: %s\n", result.PullRequest.URL)
	}
	return nil
}

func runBackport(ctx context.Context, cmd *cli.Command, configPath string) (*backport.Result, error) {
	config, err := loadValidConfiguration(configPath)
	if err != nil {
		return nil, err
	}

	client, err := hosting.NewClient(config)
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine current directory: %w", err)
	}

	return backport.Run(ctx, backport.Deps{
		Config:   config,
		VCS:      newWorkspace(config),
		Client:   client,
		Prompter: prompt.NewTerminal(),
		Progress: progress.NewSpinner(os.Stderr),
		Out:      os.Stdout,
	}, backport.Options{
		Cwd:     cwd,
		SHA:     cmd.String("sha"),
		Version: cmd.String("version"),
	})
}

func reposCommand(ctx context.Context, cmd *cli.Command) error {
	configPath := configuration.ExpandPath(cmd.String("config"))

	config, err := loadValidConfiguration(configPath)
	if err != nil {
		backport.Report(os.Stderr, err, configPath)
		return cli.Exit("", 3)
	}

	workspace := newWorkspace(config)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("📦 Repositories")
	t.AppendHeader(table.Row{"Repository", "Versions", "Working Copy"})
	for _, repository := range config.Repositories {
		info, err := backport.ParseRepositoryInfo(repository.Name)
		if err != nil {
			return cli.Exit(err.Error(), 3)
		}

		status := "not cloned"
		exists, err := workspace.RepoExists(ctx, info.Owner, info.Name)
		if err != nil {
			log.Warn().Err(err).Str("repository", repository.Name).Msg("Failed to inspect working copy")
			status = "unreadable"
		} else if exists {
			status = workspace.RepoPath(info.Owner, info.Name)
		}

		t.AppendRow(table.Row{repository.Name, strings.Join(repository.Versions, ", "), status})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	return nil
}

func validateCommand(ctx context.Context, cmd *cli.Command) error {
	configPath := configuration.ExpandPath(cmd.String("config"))
	outputFormat := cmd.String("output")

	log.Debug().Str("config", configPath).Msg("Loading configuration...")

	config, err := configuration.LoadConfiguration(configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return cli.Exit(fmt.Sprintf("Configuration load error: %v", err), 3)
	}

	validationResult := configuration.ValidateConfiguration(config)

	if err := outputValidationResult(validationResult, outputFormat); err != nil {
		log.Error().Err(err).Msg("Failed to output validation results")
		return cli.Exit(fmt.Sprintf("Output error: %v", err), 1)
	}

	if !validationResult.Valid {
		return cli.Exit("Configuration validation failed", 3)
	}

	log.Debug().Msg("Configuration is valid")
	return nil
}

func outputValidationResult(result *configuration.ValidationResult, format string) error {
	switch format {
	case "table":
		return outputValidationTable(result)
	case "json":
		return outputValidationJSON(result)
	case "yaml":
		return outputValidationYAML(result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputValidationTable(result *configuration.ValidationResult) error {
	if result.Valid {
		fmt.Println("✓ Configuration is valid")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("✗ Configuration validation failed")
	t.AppendHeader(table.Row{"Field", "Problem"})
	for _, err := range result.Errors {
		t.AppendRow(table.Row{err.Field, err.Message})
	}
	t.AppendFooter(table.Row{"Total errors", len(result.Errors)})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func validationOutput(result *configuration.ValidationResult) map[string]interface{} {
	return map[string]interface{}{
		"valid":      result.Valid,
		"errorCount": len(result.Errors),
		"errors":     result.Errors,
	}
}

func outputValidationJSON(result *configuration.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(validationOutput(result))
}

func outputValidationYAML(result *configuration.ValidationResult) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	return encoder.Encode(validationOutput(result))
}

func initConfigCommand(ctx context.Context, cmd *cli.Command) error {
	configPath := configuration.ExpandPath(cmd.String("config"))

	if err := configuration.WriteTemplate(configPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to write configuration template: %v", err), 1)
	}

	fmt.Printf("Configuration template written to %s\n", configPath)
	return nil
}
