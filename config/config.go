package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for multimr.
type Config struct {
	// Assignee for the merge requests. Overridable with --assignee.
	Assignee string `yaml:"assignee"`
	// WorkingDir is the root directory holding the repositories. Relative
	// paths are resolved against the current directory.
	WorkingDir string `yaml:"working_dir"`
	// Reviewers to request on every merge request.
	Reviewers []string `yaml:"reviewers"`
	// Labels maps the change categories to hosting-provider label names.
	Labels Labels `yaml:"labels"`
	// BaseBranch overrides the main/master guess when set.
	BaseBranch string `yaml:"base_branch"`
	// Backend selects and configures the request-creation backend.
	Backend BackendConfig `yaml:"backend"`
}

// Labels holds the configured label name per change category.
type Labels struct {
	Feat string `yaml:"feat"`
	Fix  string `yaml:"fix"`
}

// BackendConfig describes the request-creation backend.
type BackendConfig struct {
	Type  string `yaml:"type"`  // "glab", "github", "gitlab"
	Token string `yaml:"token"` // Inline, ${ENV_VAR}, or file path
}

// DefaultBackendType is used when the config file sets no backend.
const DefaultBackendType = "glab"

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document, applies defaults, and resolves the
// backend token.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg.Backend.Token = resolveToken(cfg.Backend.Token)
	if cfg.Backend.Type == "" {
		cfg.Backend.Type = DefaultBackendType
	}

	workingDir, err := resolveWorkingDir(cfg.WorkingDir)
	if err != nil {
		return nil, err
	}
	cfg.WorkingDir = workingDir

	return cfg, nil
}

// Default returns the configuration used when no file exists: current
// directory, glab backend, nothing else set.
func Default() *Config {
	return &Config{
		WorkingDir: ".",
		Backend:    BackendConfig{Type: DefaultBackendType},
	}
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{"."}
	if homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".multimr.yaml",
		".multimr.yml",
		"multimr.yaml",
		"multimr.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// LabelFor maps a change-category key from the command line to the configured
// label name. An empty key means no label.
func (c *Config) LabelFor(key string) (string, error) {
	switch key {
	case "":
		return "", nil
	case "feat":
		return c.Labels.Feat, nil
	case "fix":
		return c.Labels.Fix, nil
	default:
		return "", fmt.Errorf("unknown label key %q (expected feat or fix)", key)
	}
}

// resolveWorkingDir turns the configured working directory into an absolute
// path, defaulting to the current directory.
func resolveWorkingDir(raw string) (string, error) {
	if raw == "" {
		raw = "."
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working_dir %q: %w", raw, err)
	}
	return abs, nil
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}
