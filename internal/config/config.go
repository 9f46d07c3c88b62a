// Package config holds the explicit configuration value handed to the
// orchestrator's constructor. There is no global state; callers load a file
// (or build the struct directly) and pass the result down.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/opencoder/chatcore/internal/chat"
	"github.com/opencoder/chatcore/internal/permission"
)

type PermissionRule struct {
	Pattern  string `yaml:"pattern"`
	Decision string `yaml:"decision"`
}

type Permission struct {
	// Default applies when no rule matches; empty means approve.
	Default string           `yaml:"default,omitempty"`
	Rules   []PermissionRule `yaml:"rules,omitempty"`
}

type LoopDetection struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	Window  int   `yaml:"window,omitempty"`
}

type Config struct {
	Model                      string         `yaml:"model"`
	MaxIterations              int            `yaml:"max_iterations,omitempty"`
	SurfaceContentWithThinking bool           `yaml:"surface_content_with_thinking,omitempty"`
	LoopDetection              LoopDetection  `yaml:"loop_detection,omitempty"`
	Permission                 Permission     `yaml:"permission,omitempty"`
	LogLevel                   string         `yaml:"log_level,omitempty"`
	RequestOptions             map[string]any `yaml:"request_options,omitempty"`
}

func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if c.Permission.Default != "" && !permission.ValidDecision(permission.Decision(c.Permission.Default)) {
		return fmt.Errorf("permission.default: invalid decision %q", c.Permission.Default)
	}
	for _, r := range c.Permission.Rules {
		if !permission.ValidDecision(permission.Decision(r.Decision)) {
			return fmt.Errorf("permission rule %q: invalid decision %q", r.Pattern, r.Decision)
		}
	}
	return nil
}

// Gate builds the configured permission gate. No permission section at all
// means the always-approve Dummy gate.
func (c Config) Gate() (permission.Gate, error) {
	if c.Permission.Default == "" && len(c.Permission.Rules) == 0 {
		return permission.Dummy{}, nil
	}
	rules := make([]permission.Rule, 0, len(c.Permission.Rules))
	for _, r := range c.Permission.Rules {
		rules = append(rules, permission.Rule{
			Pattern:  r.Pattern,
			Decision: permission.Decision(r.Decision),
		})
	}
	return permission.NewPolicyGate(rules, permission.Decision(c.Permission.Default))
}

// Logger builds a leveled zerolog logger writing to w.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if c.LogLevel != "" {
		if parsed, err := zerolog.ParseLevel(c.LogLevel); err == nil {
			lvl = parsed
		}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Options maps the config onto orchestrator options.
func (c Config) Options(log *zerolog.Logger) chat.Options {
	return chat.Options{
		Model:                      c.Model,
		MaxIterations:              c.MaxIterations,
		SurfaceContentWithThinking: c.SurfaceContentWithThinking,
		EnableLoopDetection:        c.LoopDetection.Enabled,
		LoopDetectionWindow:        c.LoopDetection.Window,
		RequestOptions:             c.RequestOptions,
		Logger:                     log,
	}
}
