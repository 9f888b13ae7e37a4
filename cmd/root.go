// Package cmd provides the CLI commands for relmate.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/relmate/relmate/internal/domain"
	"github.com/relmate/relmate/internal/infrastructure/config"
	"github.com/relmate/relmate/internal/usecases"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Orchestrator is the release engine as consumed by the CLI boundary.
type Orchestrator interface {
	Release(ctx context.Context, in usecases.ReleaseInput) error
	ReleaseMonorepo(ctx context.Context, in usecases.MonorepoInput) error
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger at the given level.
	LoggerFactory func(level string) (Logger, error)

	// ConfigLoader loads the application configuration for a repository.
	ConfigLoader func(repoPath, configFile string) (*config.Config, error)

	// BackendFactory creates the version-control backend for the repository.
	BackendFactory func(repoPath string, cfg *config.Config, log Logger) (domain.Backend, error)

	// OrchestratorFactory assembles the release orchestrator for the
	// repository at repoPath.
	OrchestratorFactory func(
		repoPath string,
		backend domain.Backend,
		settings *domain.Settings,
		log Logger,
		stdout io.Writer,
	) Orchestrator

	// Stdout is the writer for command output (dry-run candidate tags).
	Stdout io.Writer

	// Stderr is the writer for warnings and errors.
	Stderr io.Writer
}

// defaultDeps holds the production dependencies, set by main before Execute.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// bumpOptions holds the flag values of one bump invocation.
type bumpOptions struct {
	auto        bool
	major       bool
	minor       bool
	patch       bool
	version     string
	preRelease  string
	hookProfile string
	dryRun      bool
	pkg         string
	configFile  string
	verbose     bool
}

// NewRootCmd creates the root command for relmate.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relmate",
		Short: "Automated semantic-version releases from conventional commits",
		Long: `relmate automates releases for repositories whose commits follow the
conventional-commit convention. It resolves the next semantic version
from the commit history, generates a changelog, runs the configured
lifecycle hooks, and creates the version commit and tag.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newBumpCmd(deps))
	return rootCmd
}

func newBumpCmd(deps *Dependencies) *cobra.Command {
	opts := &bumpOptions{}

	bumpCmd := &cobra.Command{
		Use:   "bump [path]",
		Short: "Compute and apply the next version for the repository or a package",
		Long: `bump resolves the next semantic version for the repository (or one of
its configured packages), writes the changelog, runs pre-bump hooks,
creates the version commit, tags it, and runs post-bump hooks.

With no level flag the increment is resolved automatically from the
conventional commits since the last release.

Examples:
  # Resolve the increment from the commit history
  relmate bump

  # Explicit increments
  relmate bump --minor
  relmate bump --version 2.0.0

  # Pre-release and profiles
  relmate bump --auto --pre beta.1 --hook-profile hotfix

  # Monorepo: bump one package, or every configured package
  relmate bump --package billing
  relmate bump

  # Show the candidate tag without touching the repository
  relmate bump --dry-run`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBump(cmd, args, deps, opts)
		},
	}

	flags := bumpCmd.Flags()
	flags.BoolVar(&opts.auto, "auto", false, "Resolve the increment from the commit history (default)")
	flags.BoolVar(&opts.major, "major", false, "Increment the major version")
	flags.BoolVar(&opts.minor, "minor", false, "Increment the minor version")
	flags.BoolVar(&opts.patch, "patch", false, "Increment the patch version")
	flags.StringVar(&opts.version, "version", "", "Set an explicit version")
	flags.StringVar(&opts.preRelease, "pre", "", "Set the pre-release identifier on the next version")
	flags.StringVar(&opts.hookProfile, "hook-profile", "", "Use a named hook profile")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the candidate tag and perform no mutation")
	flags.StringVar(&opts.pkg, "package", "", "Bump a single configured package")
	flags.StringVar(&opts.configFile, "config", "", "Path to the configuration file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose/debug logging")

	return bumpCmd
}

// incrementRequest validates the mutually exclusive level flags and builds
// the request, defaulting to automatic resolution.
func incrementRequest(opts *bumpOptions) (domain.IncrementRequest, error) {
	var requests []domain.IncrementRequest
	if opts.auto {
		requests = append(requests, domain.AutoIncrement())
	}
	if opts.major {
		requests = append(requests, domain.MajorIncrement())
	}
	if opts.minor {
		requests = append(requests, domain.MinorIncrement())
	}
	if opts.patch {
		requests = append(requests, domain.PatchIncrement())
	}
	if opts.version != "" {
		requests = append(requests, domain.ManualIncrement(opts.version))
	}

	switch len(requests) {
	case 0:
		return domain.AutoIncrement(), nil
	case 1:
		return requests[0], nil
	default:
		return domain.IncrementRequest{}, errors.New(
			"only one of --auto, --major, --minor, --patch, --version may be given")
	}
}

// runBump executes the bump workflow with injected dependencies.
func runBump(cmd *cobra.Command, args []string, deps *Dependencies, opts *bumpOptions) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	request, err := incrementRequest(opts)
	if err != nil {
		return err
	}

	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	cfg, err := deps.ConfigLoader(repoPath, opts.configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	log, err := deps.LoggerFactory(level)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	backend, err := deps.BackendFactory(repoPath, cfg, log)
	if err != nil {
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return fmt.Errorf("not a git repository: %s", repoPath)
		}
		return err
	}

	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	orchestrator := deps.OrchestratorFactory(repoPath, backend, &cfg.Settings, log, stdout)

	if opts.pkg != "" {
		if _, ok := cfg.Settings.Packages[opts.pkg]; !ok {
			return fmt.Errorf("package %q is not configured", opts.pkg)
		}
	}

	monorepo := len(cfg.Settings.Packages) > 0 && opts.pkg == ""
	if monorepo && request.Kind != domain.IncrementAuto {
		return errors.New("an explicit increment requires --package in monorepo mode")
	}

	if monorepo {
		err = orchestrator.ReleaseMonorepo(ctx, usecases.MonorepoInput{
			PreRelease:  opts.preRelease,
			HookProfile: opts.hookProfile,
			DryRun:      opts.dryRun,
		})
	} else {
		err = orchestrator.Release(ctx, usecases.ReleaseInput{
			Request:     request,
			PreRelease:  opts.preRelease,
			HookProfile: opts.hookProfile,
			DryRun:      opts.dryRun,
			Package:     opts.pkg,
		})
	}

	if err != nil {
		if errors.Is(err, domain.ErrNoQualifyingCommit) {
			return fmt.Errorf("%w; use --major, --minor, --patch, or --version to bump explicitly", err)
		}
		return err
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
