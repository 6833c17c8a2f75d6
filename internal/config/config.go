// Package config loads scaffolding targets from a YAML file, with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/dbscaffold/internal/db"
	"github.com/tordrt/dbscaffold/internal/writer"
)

const (
	EnvConnection = "DBSCAFFOLD_CONNECTION"
	EnvLogLevel   = "DBSCAFFOLD_LOG_LEVEL"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("dbscaffold: invalid configuration")

// ValidationError names the offending target and field
type ValidationError struct {
	Target string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("dbscaffold: invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("dbscaffold: invalid configuration: target %s: %s: %s", e.Target, e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// StringList is a YAML value that is either a string or a list of strings
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// Target is one database to scaffold
type Target struct {
	Name string `yaml:"name,omitempty"`
	// Provider may be empty when Connection is a provider URL
	Provider   string     `yaml:"provider,omitempty"`
	Connection string     `yaml:"connection,omitempty"`
	Tables     StringList `yaml:"tables,omitempty"`
	Schemas    StringList `yaml:"schemas,omitempty"`

	OutputDir        string `yaml:"output_dir,omitempty"`
	ContextName      string `yaml:"context,omitempty"`
	Namespace        string `yaml:"namespace,omitempty"`
	ContextNamespace string `yaml:"context_namespace,omitempty"`
	Language         string `yaml:"language,omitempty"`
	Report           string `yaml:"report,omitempty"`

	DataAnnotations  bool `yaml:"data_annotations,omitempty"`
	UseDatabaseNames bool `yaml:"use_database_names,omitempty"`
	NoPluralize      bool `yaml:"no_pluralize,omitempty"`
	NoOnConfiguring  bool `yaml:"no_onconfiguring,omitempty"`
	Force            bool `yaml:"force,omitempty"`
}

// Label identifies the target in messages
func (t Target) Label() string {
	if t.Name != "" {
		return t.Name
	}
	if t.OutputDir != "" {
		return t.OutputDir
	}
	return string(t.ResolvedProvider())
}

// Resolve returns the provider and the driver connection string
func (t Target) Resolve() (db.Provider, string, error) {
	return db.Resolve(t.Provider, t.Connection)
}

// ResolvedProvider is the provider Resolve would return, or ""
func (t Target) ResolvedProvider() db.Provider {
	p, _, _ := t.Resolve()
	return p
}

// Config is the whole file
type Config struct {
	LogLevel  string   `yaml:"log_level,omitempty"`
	LogFormat string   `yaml:"log_format,omitempty"`
	Targets   []Target `yaml:"targets"`
}

// Load reads and parses path, then applies the environment. The result is
// not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// relative output directories are relative to the config file
	base := filepath.Dir(path)
	for i := range cfg.Targets {
		if d := cfg.Targets[i].OutputDir; d != "" && !filepath.IsAbs(d) {
			cfg.Targets[i].OutputDir = filepath.Join(base, d)
		}
	}
	cfg.ApplyEnv()
	return &cfg, nil
}

// ApplyEnv fills the connection of targets that have none from
// DBSCAFFOLD_CONNECTION and overrides the log level with
// DBSCAFFOLD_LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvConnection); v != "" {
		for i := range c.Targets {
			if c.Targets[i].Connection == "" {
				c.Targets[i].Connection = v
			}
		}
	}
}

// Validate checks every target. The first problem is returned as a
// *ValidationError.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return &ValidationError{Field: "targets", Reason: "at least one target is required"}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return &ValidationError{Field: "log_format", Reason: fmt.Sprintf("unknown format %q (must be text or json)", c.LogFormat)}
	}

	outputs := map[string]string{}
	for i, t := range c.Targets {
		label := t.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if err := t.validate(label); err != nil {
			return err
		}
		dir := filepath.Clean(t.OutputDir)
		if other, ok := outputs[dir]; ok {
			return &ValidationError{Target: label, Field: "output_dir", Reason: "same directory as target " + other}
		}
		outputs[dir] = label
	}
	return nil
}

func (t Target) validate(label string) error {
	if t.Connection == "" {
		return &ValidationError{Target: label, Field: "connection", Reason: "required (or set " + EnvConnection + ")"}
	}
	if _, _, err := t.Resolve(); err != nil {
		return &ValidationError{Target: label, Field: "provider", Reason: err.Error()}
	}
	if _, err := writer.ParseLanguage(t.Language); err != nil {
		return &ValidationError{Target: label, Field: "language", Reason: err.Error()}
	}
	if _, err := db.BuildFilter(t.Tables, t.Schemas); err != nil {
		return &ValidationError{Target: label, Field: "tables", Reason: err.Error()}
	}
	switch t.Report {
	case "", "text", "markdown", "md":
	default:
		return &ValidationError{Target: label, Field: "report", Reason: fmt.Sprintf("unknown format %q (must be text or markdown)", t.Report)}
	}
	return nil
}
