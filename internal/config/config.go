// Package config reads the optional, user-wide ~/.witconfig.yaml file:
// default repo_paths, default job count, default verbosity. It is
// layered under CLI flags and environment variables, never above them.
// Repurposed wholesale from the teacher's internal/manifest YAML codec
// (same marshal/unmarshal shape), pointed at a new field set since
// wit's own on-disk formats are JSON, not YAML.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the default config file name, looked for under the
// user's home directory unless WIT_CONFIG overrides the full path.
const FileName = ".witconfig.yaml"

// marshalFunc is indirected the way the teacher's manifest.go does, so
// tests can substitute a failing marshaler.
var marshalFunc = yaml.Marshal

// Config holds user-wide defaults. Every field is optional; a missing
// or absent file yields a zero Config, which callers treat as "defer to
// built-in defaults".
type Config struct {
	RepoPaths          []string `yaml:"repo_paths,omitempty"`
	Jobs               int      `yaml:"jobs,omitempty"`
	Verbosity          int      `yaml:"verbosity,omitempty"`
	ReferenceWorkspace string   `yaml:"reference_workspace,omitempty"`
}

// Path returns the config file path: $WIT_CONFIG if set, else
// ~/.witconfig.yaml.
func Path() string {
	if p := os.Getenv("WIT_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// Load reads the config file at Path(), returning a zero Config (not an
// error) when it doesn't exist.
func Load() (*Config, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes c to Path(), creating parent directories as needed.
func Save(c *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := marshalFunc(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EffectiveJobs returns the job count a command should use: flagValue
// when explicitly set (non-zero), else WIT_JOBS, else c.Jobs, else
// fallback.
func (c *Config) EffectiveJobs(flagValue, fallback int) int {
	if flagValue > 0 {
		return flagValue
	}
	if v := os.Getenv("WIT_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if c != nil && c.Jobs > 0 {
		return c.Jobs
	}
	return fallback
}

// EffectiveRepoPaths returns the repo_paths a command should search:
// explicit (CLI --repo-path) paths first, then $WIT_REPO_PATH, then the
// config file's defaults.
func (c *Config) EffectiveRepoPaths(explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	if envPaths := ParseRepoPathEnv(os.Getenv("WIT_REPO_PATH")); len(envPaths) > 0 {
		return envPaths
	}
	if c != nil {
		return c.RepoPaths
	}
	return nil
}

// ParseRepoPathEnv splits WIT_REPO_PATH on colons or whitespace, per
// spec.md §6: "colon/space-separated local search paths".
func ParseRepoPathEnv(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t'
	})
	return fields
}