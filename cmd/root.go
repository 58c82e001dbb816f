// Package cmd provides the CLI commands for basesha-find.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/basesha-find/internal/domain"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func() (*AppConfig, error)

	// GitRepoFactory creates a LocalGitRepository for the given path.
	GitRepoFactory func(path string, log Logger) (domain.LocalGitRepository, error)

	// PipelineClientFactory creates a PipelineClient for the project.
	PipelineClientFactory func(cfg *AppConfig, project domain.Project, log Logger) (domain.PipelineClient, error)

	// ResolverFactory creates a Resolver with the given dependencies.
	ResolverFactory func(
		gitRepo domain.LocalGitRepository,
		client domain.PipelineClient,
		log Logger,
	) domain.Resolver

	// OutputWriterFactory creates an OutputWriter.
	OutputWriterFactory func() domain.OutputWriter

	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// CircleToken is passed to the PipelineClientFactory.
	CircleToken string

	// Tag is the release tag being built, if any.
	Tag string

	// MainBranch and DevBranch override the positional branch names when non-empty.
	MainBranch string
	DevBranch  string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// Command-line flags.
var (
	repoPath string
	verbose  bool
	timeout  time.Duration
)

// Positional argument indexes.
const (
	argBuildURL = iota
	argBranch
	argMainBranch
	argDevBranch
	argErrorOnMissing
	argAllowOnHold
	argWorkflowName
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for basesha-find.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "basesha-find <build-url> <branch> [main-branch] [dev-branch] " +
			"[error-on-missing] [allow-on-hold] [workflow-name]",
		Short: "Find the base commit for CI change detection",
		Long: `basesha-find resolves the commit that change detection should diff against.

The strategy depends on what is being built:

  - a release tag (CIRCLE_TAG set): the commit of the previous v* tag
  - a feature branch: the merge-base with the dev branch
  - the main or dev branch: the newest commit whose CircleCI workflow
    succeeded, found by paging through the branch's pipeline history

When no successful workflow exists on main or dev, HEAD~1 is used unless
error-on-missing is "1", in which case the command fails.

On success the last line on stdout is "Commit: <sha>".

Environment:
  CIRCLE_API_TOKEN   CircleCI API token (needed for private projects)
  CIRCLE_TAG         release tag being built
  MAIN_BRANCH_NAME   overrides main-branch
  DEV_BRANCH_NAME    overrides dev-branch

Examples:
  # Last successful run of any workflow on main
  basesha-find https://circleci.com/gh/org/repo/42 main

  # Only consider the "build" workflow, accept on_hold runs, fail if none
  basesha-find https://circleci.com/gh/org/repo/42 main main dev 1 1 build`,
		Args:         cobra.RangeArgs(argBranch+1, argWorkflowName+1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, deps)
		},
	}

	if deps != nil && deps.Stdout != nil {
		rootCmd.SetOut(deps.Stdout)
	}
	if deps != nil && deps.Stderr != nil {
		rootCmd.SetErr(deps.Stderr)
	}

	// Define flags
	rootCmd.Flags().StringVarP(&repoPath, "repo", "C", ".",
		"Path to the local Git repository")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0,
		"Abort resolution after this duration (0 disables the limit)")

	return rootCmd
}

// buildInput turns positional arguments and configuration into resolver input.
// Environment branch overrides win over positional names.
func buildInput(args []string, cfg *AppConfig) domain.ResolveInput {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	input := domain.ResolveInput{
		Branch:         arg(argBranch),
		MainBranch:     firstNonEmpty(cfg.MainBranch, arg(argMainBranch), domain.DefaultMainBranch),
		DevBranch:      firstNonEmpty(cfg.DevBranch, arg(argDevBranch), domain.DefaultDevBranch),
		Tag:            cfg.Tag,
		ErrorOnMissing: arg(argErrorOnMissing) == "1",
		AllowOnHold:    arg(argAllowOnHold) == "1",
		WorkflowName:   arg(argWorkflowName),
	}
	return input
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// runResolve executes the base-commit resolution with injected dependencies.
func runResolve(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Get stderr for warnings
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	// Initialize logger
	log := deps.LoggerFactory()

	log.Info(ctx, "starting basesha-find", map[string]interface{}{
		"build_url": args[argBuildURL],
		"branch":    args[argBranch],
		"repo":      repoPath,
		"verbose":   verbose,
	})

	// Load configuration
	cfg, err := deps.ConfigLoader()
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return fmt.Errorf("configuration error: %w", err)
	}

	project, err := domain.ParseBuildURL(args[argBuildURL])
	if err != nil {
		log.Error(ctx, "failed to parse build URL", err, nil)
		return err
	}

	input := buildInput(args, cfg)

	// Initialize Git repository adapter
	gitRepo, err := deps.GitRepoFactory(repoPath, log)
	if err != nil {
		log.Error(ctx, "failed to open git repository", err, map[string]interface{}{
			"path": repoPath,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return fmt.Errorf("not a git repository: %s", repoPath)
		}
		return err
	}
	defer func() {
		if closeErr := gitRepo.Close(); closeErr != nil {
			log.Warn(ctx, "failed to close git repository", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	// Initialize CircleCI client; no request is made until the protected-branch route needs one
	client, err := deps.PipelineClientFactory(cfg, project, log)
	if err != nil {
		log.Error(ctx, "failed to initialize pipeline client", err, nil)
		return fmt.Errorf("pipeline client error: %w", err)
	}

	resolver := deps.ResolverFactory(gitRepo, client, log)
	result, err := resolver.Resolve(ctx, input)
	if err != nil {
		log.Error(ctx, "failed to resolve base commit", err, nil)
		if errors.Is(err, domain.ErrNoSuccessfulWorkflow) {
			return fmt.Errorf("no successful workflow found on branch %s", input.Branch)
		}
		return err
	}

	// Write the commit line to stdout
	writer := deps.OutputWriterFactory()
	if err := writer.WriteCommit(result.Commit); err != nil {
		log.Error(ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	log.Info(ctx, "base commit resolution complete", map[string]interface{}{
		"commit":       result.Commit,
		"route":        result.Route.String(),
		"fallback":     result.Fallback,
		"pipeline_id":  result.PipelineID,
		"previous_tag": result.PreviousTag,
	})

	return nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		return
	}
}
