// Package main is the entry point for the relmate CLI application.
// relmate automates semantic-version releases for repositories using the
// conventional-commit convention: it resolves the next version from the
// commit history, renders a changelog, drives the lifecycle hook
// pipeline, and creates the version commit and tag.
package main

import (
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/relmate/relmate/cmd"
	"github.com/relmate/relmate/internal/adapters/changelog"
	"github.com/relmate/relmate/internal/adapters/conventional"
	gitadapter "github.com/relmate/relmate/internal/adapters/git"
	logadapter "github.com/relmate/relmate/internal/adapters/logger"
	"github.com/relmate/relmate/internal/adapters/output"
	"github.com/relmate/relmate/internal/domain"
	"github.com/relmate/relmate/internal/hooks"
	"github.com/relmate/relmate/internal/infrastructure/config"
	"github.com/relmate/relmate/internal/usecases"
)

func main() {
	// Wire up production dependencies
	deps := &cmd.Dependencies{
		LoggerFactory: func(level string) (cmd.Logger, error) {
			return logadapter.New(level)
		},

		ConfigLoader: config.Load,

		BackendFactory: func(repoPath string, cfg *config.Config, log cmd.Logger) (domain.Backend, error) {
			return gitadapter.NewGoGitBackend(repoPath, gitadapter.Options{
				TagPrefix:      cfg.Settings.TagPrefix,
				SigningKeyPath: cfg.SigningKeyPath,
			}, log)
		},

		OrchestratorFactory: func(
			repoPath string,
			backend domain.Backend,
			settings *domain.Settings,
			log cmd.Logger,
			stdout io.Writer,
		) cmd.Orchestrator {
			parser := conventional.NewParser()
			resolver := usecases.NewVersionResolver(backend, parser, settings, log)
			pipeline := hooks.NewPipeline(settings, nil, log)
			renderer := changelog.NewRenderer()
			// Changelog paths in the configuration are relative to the
			// repository root.
			fs := afero.NewBasePathFs(afero.NewOsFs(), repoPath)
			return usecases.NewReleaseOrchestrator(
				backend,
				resolver,
				pipeline,
				renderer,
				settings,
				fs,
				output.NewWriterWithOutput(stdout),
				log,
			)
		},

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}
