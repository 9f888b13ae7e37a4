// Package hooks resolves, parameterizes, and executes the lifecycle hooks
// that let external processes observe and react to a release.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/relmate/relmate/internal/domain"
)

// Logger defines the logging interface for the hook pipeline.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// CommandRunner executes an instantiated hook command. The production
// implementation spawns a shell inheriting the caller's standard streams;
// tests inject recording fakes.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// ShellRunner runs hook commands through `sh -c` with inherited standard
// streams. The pipeline blocks until the command exits; there is no
// enforced timeout.
type ShellRunner struct{}

// Run executes the command, connecting it to the caller's stdio.
func (ShellRunner) Run(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Pipeline resolves hook command templates from the configuration,
// substitutes version placeholders, and executes the result strictly
// sequentially, stopping at the first failure.
type Pipeline struct {
	settings *domain.Settings
	runner   CommandRunner
	logger   Logger
}

// NewPipeline creates a hook pipeline over the given settings. A nil
// runner defaults to ShellRunner.
func NewPipeline(settings *domain.Settings, runner CommandRunner, log Logger) *Pipeline {
	if runner == nil {
		runner = ShellRunner{}
	}
	return &Pipeline{
		settings: settings,
		runner:   runner,
		logger:   log,
	}
}

// Resolve returns the hook templates registered for the kind and scope.
// Precedence when both a package and a profile are given: package+profile
// hooks, else package default hooks, else global profile hooks, else
// global default hooks. The first non-empty source wins; sources are
// never merged.
func (p *Pipeline) Resolve(kind domain.HookKind, scope domain.HookScope) []string {
	if scope.Package != "" {
		pkg, ok := p.settings.Packages[scope.Package]
		if ok {
			if scope.Profile != "" {
				if hooks := pkg.Profiles[scope.Profile].ForKind(kind); len(hooks) > 0 {
					return hooks
				}
			}
			if hooks := pkg.Hooks.ForKind(kind); len(hooks) > 0 {
				return hooks
			}
		}
	}
	if scope.Profile != "" {
		if hooks := p.settings.Profiles[scope.Profile].ForKind(kind); len(hooks) > 0 {
			return hooks
		}
	}
	return p.settings.Hooks.ForKind(kind)
}

// placeholderPattern matches {{name}} tokens in hook command templates.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// Instantiate substitutes all version placeholders in the template.
// Supported placeholders: version, version_tag, latest, latest_tag,
// package, major, minor, patch. A placeholder whose field has no value
// for the given scope fails with an UnresolvedPlaceholderError.
func Instantiate(template string, previous *domain.HookVersion, next domain.HookVersion) (string, error) {
	var unresolved string
	command := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := placeholderValue(name, previous, next)
		if !ok && unresolved == "" {
			unresolved = name
		}
		return value
	})
	if unresolved != "" {
		return "", &domain.UnresolvedPlaceholderError{
			Placeholder: unresolved,
			Command:     template,
		}
	}
	return command, nil
}

func placeholderValue(name string, previous *domain.HookVersion, next domain.HookVersion) (string, bool) {
	switch name {
	case "version":
		return next.Marker.Version.String(), true
	case "version_tag":
		return next.DisplayTag, true
	case "latest":
		if previous == nil {
			return "", false
		}
		return previous.Marker.Version.String(), true
	case "latest_tag":
		if previous == nil {
			return "", false
		}
		return previous.DisplayTag, true
	case "package":
		if next.Marker.Package == "" {
			return "", false
		}
		return next.Marker.Package, true
	case "major":
		return strconv.FormatUint(next.Marker.Version.Major(), 10), true
	case "minor":
		return strconv.FormatUint(next.Marker.Version.Minor(), 10), true
	case "patch":
		return strconv.FormatUint(next.Marker.Version.Patch(), 10), true
	default:
		return "", false
	}
}

// Run resolves, instantiates, and executes the hooks for the kind and
// scope, strictly sequentially and in declared order. The pipeline stops
// at the first failure; no partial continuation, no parallel execution.
func (p *Pipeline) Run(
	ctx context.Context,
	kind domain.HookKind,
	scope domain.HookScope,
	previous *domain.HookVersion,
	next domain.HookVersion,
) error {
	templates := p.Resolve(kind, scope)
	for idx, template := range templates {
		command, err := Instantiate(template, previous, next)
		if err != nil {
			return fmt.Errorf("cannot instantiate %s hook at index %d: %w", kind, idx, err)
		}

		p.logger.Info(ctx, "running hook", map[string]interface{}{
			"kind":    kind.String(),
			"index":   idx,
			"command": command,
		})

		if err := p.runner.Run(ctx, command); err != nil {
			exitStatus := -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitStatus = exitErr.ExitCode()
			}
			return &domain.HookExecutionError{
				Command:    command,
				ExitStatus: exitStatus,
				Err:        err,
			}
		}
	}
	return nil
}
