package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable policy parameters.
type Config struct {
	// ConfirmActions alter navigation and require spoken confirmation
	// while moving at speed.
	ConfirmActions []string `yaml:"confirm_actions"`
	// BlockActions need visual interaction and are blocked while moving
	// at speed.
	BlockActions []string `yaml:"block_actions"`
	// SimpleActions are safe hands-free commands.
	SimpleActions []string `yaml:"simple_actions"`
	// LowConfidence is the score below which an allowed command carries
	// a warning.
	LowConfidence float64 `yaml:"low_confidence"`
}

// DefaultConfig returns the built-in policy config.
func DefaultConfig() *Config {
	return &Config{
		ConfirmActions: []string{"navigate", "reroute", "add_stop"},
		BlockActions:   []string{"book", "browse", "search", "settings"},
		SimpleActions:  []string{"play", "resume", "next", "previous", "volume", "repeat", "mute", "unmute"},
		LowConfidence:  0.6,
	}
}

// DefaultConfigYAML returns the commented policy template written by
// `copilotd init`.
func DefaultConfigYAML() string {
	return `# copilotd command policy configuration
# Generated by: copilotd init
#
# Every command is classified by its action, then gated by the current
# safety level. Emergency commands bypass this file entirely.

# Actions that alter navigation. Allowed hands-free, but require spoken
# confirmation while moving at moderate speed or above.
confirm_actions:
  - navigate
  - reroute
  - add_stop

# Actions that need visual interaction. Blocked at any speed above
# parked or low-speed.
block_actions:
  - book
  - browse
  - search
  - settings

# Safe hands-free actions, allowed at every level below critical.
simple_actions:
  - play
  - resume
  - next
  - previous
  - volume
  - repeat
  - mute
  - unmute

# Recognition confidence below which an allowed command carries a
# spoken warning.
low_confidence: 0.6
`
}

// LoadConfig loads policy configuration from a YAML file.
// Empty path falls back to ~/.roadtrip/policy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads policy configuration and returns its SHA-256
// hash, computed over the raw YAML bytes on disk. When no file exists
// (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), emptyHash(), nil
		}
		path = filepath.Join(home, ".roadtrip", "policy.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("failed to read policy config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse policy config: %w", err)
	}

	h := sha256.Sum256(data)
	return cfg, "sha256:" + hex.EncodeToString(h[:]), nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ActionClass labels how the policy treats an action at speed.
type ActionClass string

const (
	ClassAlways  ActionClass = "always_available"
	ClassSimple  ActionClass = "simple"
	ClassConfirm ActionClass = "confirm"
	ClassVisual  ActionClass = "visual"
	ClassUnknown ActionClass = "unknown"
)

// Classify returns the action class under this config.
func (c *Config) Classify(action string) ActionClass {
	switch {
	case contains(c.ConfirmActions, action):
		return ClassConfirm
	case contains(c.BlockActions, action):
		return ClassVisual
	case contains(c.SimpleActions, action):
		return ClassSimple
	default:
		return ClassUnknown
	}
}
