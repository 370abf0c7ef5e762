package crucible

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CompilationMode specifies which cargo profile a phase uses. Only the
// debug and release profiles exist; None and Both collapse to debug when
// a single invocation has to be parameterised.
type CompilationMode string

const (
	ModeNone    CompilationMode = "none"
	ModeDebug   CompilationMode = "debug"
	ModeRelease CompilationMode = "release"
	ModeBoth    CompilationMode = "both"
)

// ParseCompilationMode converts a user-supplied string (flag or config
// value) into a CompilationMode.
func ParseCompilationMode(s string) (CompilationMode, error) {
	switch CompilationMode(strings.ToLower(s)) {
	case ModeNone:
		return ModeNone, nil
	case ModeDebug:
		return ModeDebug, nil
	case ModeRelease:
		return ModeRelease, nil
	case ModeBoth:
		return ModeBoth, nil
	default:
		return "", fmt.Errorf("unknown compilation mode %q (want none, debug, release or both)", s)
	}
}

// IsRelease reports whether invocations under this mode carry --release.
func (m CompilationMode) IsRelease() bool { return m == ModeRelease }

// Config holds project-scoped configuration stored in
// .crucible/config.yaml. Every field has a zero value that reproduces the
// engine's default behaviour, so a missing config file is equivalent to
// Config{}.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Notify    NotifyConfig    `yaml:"notify"`
	LogFile   string          `yaml:"log_file,omitempty"`
}

// WorkspaceConfig controls the shadow-copy destination and toolchain.
// BuildMode governs workspace/test-build invocations; TestMode governs
// listing and running.
type WorkspaceConfig struct {
	Toolchain string          `yaml:"toolchain,omitempty"`
	BuildMode CompilationMode `yaml:"build_mode,omitempty"`
	TestMode  CompilationMode `yaml:"test_mode,omitempty"`
	Ignore    []string        `yaml:"ignore,omitempty"`
}

// NotifyConfig selects and configures at most one observer notifier. Only
// the fields matching Kind are read.
type NotifyConfig struct {
	Kind      string `yaml:"kind,omitempty"` // "", "local", "cmd", "discord", "slack", "telegram"
	Command   string `yaml:"command,omitempty"`
	Token     string `yaml:"token,omitempty"`
	ChannelID string `yaml:"channel_id,omitempty"`
	ChatID    string `yaml:"chat_id,omitempty"`
}

// ConfigPath returns the path to the project config file under root.
func ConfigPath(root string) string {
	return filepath.Join(root, ".crucible", "config.yaml")
}

// LoadConfig reads the project config from .crucible/config.yaml. Returns a
// zero-value Config (no error) if the file does not exist.
func LoadConfig(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg to .crucible/config.yaml, creating the containing
// directory if necessary.
func SaveConfig(root string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(ConfigPath(root)), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(root), data, 0o644)
}

// BuildNotifier constructs the Notifier described by cfg.Notify, defaulting
// to NopNotifier when Kind is empty or unrecognised.
func BuildNotifier(cfg NotifyConfig) Notifier {
	switch cfg.Kind {
	case "local":
		return &LocalNotifier{}
	case "cmd":
		return NewCmdNotifier(cfg.Command)
	case "discord":
		return &DiscordNotifier{Token: cfg.Token, ChannelID: cfg.ChannelID}
	case "slack":
		return &SlackNotifier{Token: cfg.Token, ChannelID: cfg.ChannelID}
	case "telegram":
		return &TelegramNotifier{Token: cfg.Token, ChatID: cfg.ChatID}
	default:
		return NopNotifier{}
	}
}

// IgnorePatterns returns cfg's configured ignore globs, falling back to
// DefaultIgnoreGlobs when none are set.
func (c *Config) IgnorePatterns() []string {
	if len(c.Workspace.Ignore) == 0 {
		return DefaultIgnoreGlobs
	}
	return c.Workspace.Ignore
}

// Toolchain returns the configured toolchain driver, defaulting to
// DefaultToolchain.
func (c *Config) Toolchain() string {
	if c.Workspace.Toolchain == "" {
		return DefaultToolchain
	}
	return c.Workspace.Toolchain
}

// BuildMode returns the configured build mode, defaulting to none.
func (c *Config) BuildMode() CompilationMode {
	if c.Workspace.BuildMode == "" {
		return ModeNone
	}
	return c.Workspace.BuildMode
}

// TestMode returns the configured test mode, defaulting to debug.
func (c *Config) TestMode() CompilationMode {
	if c.Workspace.TestMode == "" {
		return ModeDebug
	}
	return c.Workspace.TestMode
}
