// internal/config/config.go
//
// This package handles configuration and the .flowsem directory structure.
// A project that runs flowsem gets a .flowsem/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectDirName is the name of the directory we create in each project
	ProjectDirName = ".flowsem"

	defaultSourcesDir = "flows"
	defaultInPort     = "in"
	defaultOutPort    = "out"
	defaultTypePolicy = "first"
)

const defaultProjectConfigYAML = `# flowsem project configuration
version: 1

# Resolution settings shared by every command.
resolver:
  default_in_port: in
  default_out_port: out
  # Which earlier type an untyped connection inherits: first | last
  type_policy: first
  # Flows resolved at once; 0 uses every CPU.
  max_parallel: 0
  # Warn when an output port feeds more than one connection.
  check_out_ports: false
  # Report created/found operations as info diagnostics.
  trace: false

input:
  validate_schema: true
  # Directory scanned when no document is given, relative to the project.
  sources_dir: flows

output:
  color: true
`

// ResolverConfig captures resolution preferences.
type ResolverConfig struct {
	DefaultInPort  string `yaml:"default_in_port"`
	DefaultOutPort string `yaml:"default_out_port"`
	TypePolicy     string `yaml:"type_policy"`
	MaxParallel    int    `yaml:"max_parallel"`
	CheckOutPorts  bool   `yaml:"check_out_ports"`
	Trace          bool   `yaml:"trace"`
}

// InputConfig controls how chain documents are read.
type InputConfig struct {
	ValidateSchema bool   `yaml:"validate_schema"`
	SourcesDir     string `yaml:"sources_dir"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Color bool `yaml:"color"`
}

// ProjectConfig models .flowsem/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Resolver ResolverConfig `yaml:"resolver"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
}

// Config holds the runtime configuration for flowsem.
type Config struct {
	// ProjectDir is the directory flowsem runs against
	ProjectDir string

	// StateRoot is ProjectDir/.flowsem
	StateRoot string

	Project ProjectConfig
}

// InitProjectDir creates the .flowsem directory structure in the given
// project directory.
//
// Structure created:
// .flowsem/
// ├── config.yaml
// ├── logs/     <- flowsem.log and runs.log
// └── state/    <- metrics textfiles from resolve runs
func InitProjectDir(projectDir string) error {
	root := filepath.Join(projectDir, ProjectDirName)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
// A missing config file yields the defaults.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateRoot:  filepath.Join(projectDir, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateRoot, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.StateRoot, "state")
}

// RunLogPath returns the logbook file recording resolve runs.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.LogsDir(), "runs.log")
}

// MetricsPath returns the default metrics textfile location.
func (c *Config) MetricsPath() string {
	return filepath.Join(c.StateDir(), "metrics.prom")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateRoot, "config.yaml")
}

// SourcesDir returns the directory scanned for chain documents, resolved
// against the project directory.
func (c *Config) SourcesDir() string {
	return c.Project.Input.SourcesDir
}

// SetTypePolicy updates the resolver type policy and persists the value
// back to .flowsem/config.yaml.
func (c *Config) SetTypePolicy(policy string) error {
	c.Project.Resolver.TypePolicy = policy
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	// Keys absent from the file keep their default values.
	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Resolver: ResolverConfig{
			DefaultInPort:  defaultInPort,
			DefaultOutPort: defaultOutPort,
			TypePolicy:     defaultTypePolicy,
		},
		Input: InputConfig{
			ValidateSchema: true,
			SourcesDir:     defaultSourcesDir,
		},
		Output: OutputConfig{Color: true},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Resolver.DefaultInPort) == "" {
		pc.Resolver.DefaultInPort = defaultInPort
	}
	if strings.TrimSpace(pc.Resolver.DefaultOutPort) == "" {
		pc.Resolver.DefaultOutPort = defaultOutPort
	}
	if strings.TrimSpace(pc.Input.SourcesDir) == "" {
		pc.Input.SourcesDir = defaultSourcesDir
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Resolver.DefaultInPort = strings.TrimSpace(pc.Resolver.DefaultInPort)
	pc.Resolver.DefaultOutPort = strings.TrimSpace(pc.Resolver.DefaultOutPort)
	pc.Resolver.TypePolicy = strings.ToLower(strings.TrimSpace(pc.Resolver.TypePolicy))
	if pc.Resolver.TypePolicy == "" {
		pc.Resolver.TypePolicy = defaultTypePolicy
	}
	pc.Input.SourcesDir = resolvePath(base, pc.Input.SourcesDir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Resolver.TypePolicy {
	case "first", "last":
	default:
		return fmt.Errorf("resolver.type_policy must be 'first' or 'last'")
	}
	if pc.Resolver.MaxParallel < 0 {
		return fmt.Errorf("resolver.max_parallel must be >= 0")
	}
	if pc.Resolver.DefaultInPort == "" || pc.Resolver.DefaultOutPort == "" {
		return fmt.Errorf("resolver default ports are required")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateRoot, 0o755); err != nil {
		return fmt.Errorf("config: ensure project dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project.relativeTo(c.ProjectDir))
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

// relativeTo returns a copy with paths under base written relative to it,
// so a saved config stays portable.
func (pc ProjectConfig) relativeTo(base string) ProjectConfig {
	if rel, err := filepath.Rel(base, pc.Input.SourcesDir); err == nil && !strings.HasPrefix(rel, "..") {
		pc.Input.SourcesDir = rel
	}
	return pc
}
