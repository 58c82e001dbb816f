// Package main is the entry point for the basesha-find CLI application.
// basesha-find resolves the base commit CI change detection should diff against,
// printing it as "Commit: <sha>" for consumption by later pipeline steps.
package main

import (
	"os"
	"sync"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/basesha-find/cmd"
	"github.com/MyCarrier-DevOps/basesha-find/internal/adapters/circleci"
	"github.com/MyCarrier-DevOps/basesha-find/internal/adapters/console"
	"github.com/MyCarrier-DevOps/basesha-find/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/basesha-find/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/basesha-find/internal/adapters/output"
	"github.com/MyCarrier-DevOps/basesha-find/internal/domain"
	"github.com/MyCarrier-DevOps/basesha-find/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/basesha-find/internal/usecases"
)

func main() {
	// The logger is built on first use so the --verbose flag can raise
	// LOG_LEVEL before the zap configuration is read.
	newLogger := sync.OnceValue(func() *logadapter.ZapAdapter {
		return logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig(), map[string]any{
			"component": config.DefaultLogAppName,
		})
	})

	// Wire up production dependencies
	deps := &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return newLogger()
		},

		ConfigLoader: func() (*cmd.AppConfig, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return &cmd.AppConfig{
				CircleToken: cfg.CircleToken,
				Tag:         cfg.Tag,
				MainBranch:  cfg.MainBranch,
				DevBranch:   cfg.DevBranch,
				LogLevel:    cfg.LogLevel,
				LogAppName:  cfg.LogAppName,
			}, nil
		},

		GitRepoFactory: func(path string, _ cmd.Logger) (domain.LocalGitRepository, error) {
			return git.NewGoGitRepository(path, newLogger().With(map[string]any{"adapter": "git"}))
		},

		PipelineClientFactory: func(
			cfg *cmd.AppConfig,
			project domain.Project,
			_ cmd.Logger,
		) (domain.PipelineClient, error) {
			if cfg == nil {
				return nil, newConfigTypeError("*cmd.AppConfig")
			}
			log := newLogger().With(map[string]any{
				"adapter": "circleci",
				"project": project.Slug,
			})
			return circleci.NewClient(project, cfg.CircleToken, log), nil
		},

		ResolverFactory: func(
			gitRepo domain.LocalGitRepository,
			client domain.PipelineClient,
			_ cmd.Logger,
		) domain.Resolver {
			return usecases.NewBaseCommitResolver(gitRepo, client, console.NewReporter(), newLogger())
		},

		OutputWriterFactory: func() domain.OutputWriter {
			return output.NewWriter()
		},

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

func newConfigTypeError(expected string) error {
	return &configTypeError{expected: expected}
}

// configTypeError is returned when the loaded configuration is missing or of the wrong type.
type configTypeError struct {
	expected string
}

func (e *configTypeError) Error() string {
	return "invalid configuration type: expected " + e.expected
}
