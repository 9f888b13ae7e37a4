// Package config loads the relmate configuration from the repository's
// relmate.yaml file and the environment. The result is an explicit
// settings object constructed once at process start and passed into the
// orchestrator and hook pipeline.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/relmate/relmate/internal/domain"
)

// Configuration file name (relmate.yaml) looked up in the repository root.
const ConfigName = "relmate"

// Default values.
const (
	DefaultTagPrefix     = "v"
	DefaultChangelogPath = "CHANGELOG.md"
	DefaultLogLevel      = "info"
)

// Configuration errors.
var (
	// ErrConfigInvalid indicates the configuration file could not be
	// parsed or failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// Config is the loaded application configuration: the engine settings
// plus process-level options that stay outside the domain.
type Config struct {
	// Settings is the release engine configuration.
	Settings domain.Settings

	// SigningKeyPath is an optional armored PGP keyring used for signing.
	SigningKeyPath string

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string
}

// File-schema types, decoded by viper and converted into domain settings.
type fileHookSet struct {
	PreBumpHooks  []string `mapstructure:"pre_bump_hooks"`
	PostBumpHooks []string `mapstructure:"post_bump_hooks"`
}

type filePackage struct {
	Path          string                 `mapstructure:"path"`
	ChangelogPath string                 `mapstructure:"changelog_path"`
	PreBumpHooks  []string               `mapstructure:"pre_bump_hooks"`
	PostBumpHooks []string               `mapstructure:"post_bump_hooks"`
	BumpProfiles  map[string]fileHookSet `mapstructure:"bump_profiles"`
}

type fileSettings struct {
	TagPrefix       string                 `mapstructure:"tag_prefix"`
	SignCommits     bool                   `mapstructure:"sign_commits"`
	SignTags        bool                   `mapstructure:"sign_tags"`
	SigningKey      string                 `mapstructure:"signing_key"`
	BranchWhitelist []string               `mapstructure:"branch_whitelist"`
	ChangelogPath   string                 `mapstructure:"changelog_path"`
	PreBumpHooks    []string               `mapstructure:"pre_bump_hooks"`
	PostBumpHooks   []string               `mapstructure:"post_bump_hooks"`
	BumpProfiles    map[string]fileHookSet `mapstructure:"bump_profiles"`
	Packages        map[string]filePackage `mapstructure:"packages"`
	LogLevel        string                 `mapstructure:"log_level"`
}

// Load reads the configuration for the repository at repoPath. An
// explicit configFile overrides the default relmate.yaml lookup. A
// missing configuration file yields the defaults; a malformed one is an
// error. Environment variables prefixed with RELMATE_ override file
// values.
func Load(repoPath, configFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("tag_prefix", DefaultTagPrefix)
	v.SetDefault("changelog_path", DefaultChangelogPath)
	v.SetDefault("log_level", DefaultLogLevel)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Clean(repoPath))
	}

	v.SetEnvPrefix("RELMATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
		}
		// No configuration file: run with defaults.
	}

	var raw fileSettings
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	cfg := &Config{
		Settings:       toSettings(raw),
		SigningKeyPath: raw.SigningKey,
		LogLevel:       raw.LogLevel,
	}
	if err := validate(&cfg.Settings); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toSettings(raw fileSettings) domain.Settings {
	settings := domain.Settings{
		TagPrefix:       raw.TagPrefix,
		SignCommits:     raw.SignCommits,
		SignTags:        raw.SignTags,
		BranchWhitelist: raw.BranchWhitelist,
		ChangelogPath:   raw.ChangelogPath,
		Hooks: domain.HookSet{
			PreBump:  raw.PreBumpHooks,
			PostBump: raw.PostBumpHooks,
		},
		Profiles: toProfiles(raw.BumpProfiles),
	}

	if len(raw.Packages) > 0 {
		settings.Packages = make(map[string]domain.PackageSettings, len(raw.Packages))
		for name, pkg := range raw.Packages {
			settings.Packages[name] = domain.PackageSettings{
				Path:          pkg.Path,
				ChangelogPath: pkg.ChangelogPath,
				Hooks: domain.HookSet{
					PreBump:  pkg.PreBumpHooks,
					PostBump: pkg.PostBumpHooks,
				},
				Profiles: toProfiles(pkg.BumpProfiles),
			}
		}
	}
	return settings
}

func toProfiles(raw map[string]fileHookSet) map[string]domain.HookSet {
	if len(raw) == 0 {
		return nil
	}
	profiles := make(map[string]domain.HookSet, len(raw))
	for name, set := range raw {
		profiles[name] = domain.HookSet{
			PreBump:  set.PreBumpHooks,
			PostBump: set.PostBumpHooks,
		}
	}
	return profiles
}

func validate(settings *domain.Settings) error {
	for name, pkg := range settings.Packages {
		if name == "" {
			return fmt.Errorf("%w: package with empty name", ErrConfigInvalid)
		}
		if pkg.Path == "" {
			return fmt.Errorf("%w: package %q has no path", ErrConfigInvalid, name)
		}
	}
	return nil
}
