package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds full gateway daemon configuration.
type Config struct {
	Listen       string `yaml:"listen"`
	AuditLogPath string `yaml:"audit_log"`
	ProfileDB    string `yaml:"profile_db"`
	PolicyPath   string `yaml:"policy_config"`

	StaleAfter       time.Duration `yaml:"stale_after"`
	Hysteresis       time.Duration `yaml:"hysteresis"`
	ConfirmTimeout   time.Duration `yaml:"confirm_timeout"`
	Cooldown         time.Duration `yaml:"cooldown"`
	LowSpeedMax      float64       `yaml:"low_speed_max"`
	ModerateMax      float64       `yaml:"moderate_max"`
	ImminentManeuver float64       `yaml:"imminent_maneuver"`
}

// DefaultDir returns the gateway's state directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "roadtrip")
	}
	return filepath.Join(home, ".roadtrip")
}

// Default returns the built-in daemon configuration.
func Default() *Config {
	dir := DefaultDir()
	return &Config{
		Listen:           "127.0.0.1:8177",
		AuditLogPath:     filepath.Join(dir, "safety-events.jsonl"),
		ProfileDB:        filepath.Join(dir, "wake-profiles.db"),
		PolicyPath:       filepath.Join(dir, "policy.yaml"),
		StaleAfter:       5 * time.Second,
		Hysteresis:       4 * time.Second,
		ConfirmTimeout:   5 * time.Second,
		Cooldown:         10 * time.Second,
		LowSpeedMax:      25,
		ModerateMax:      55,
		ImminentManeuver: 150,
	}
}

// DefaultYAML returns the commented gateway config template written by
// `copilotd init`.
func DefaultYAML() string {
	dir := DefaultDir()
	return `# copilotd gateway configuration
# Generated by: copilotd init

listen: 127.0.0.1:8177
audit_log: ` + filepath.Join(dir, "safety-events.jsonl") + `
profile_db: ` + filepath.Join(dir, "wake-profiles.db") + `
policy_config: ` + filepath.Join(dir, "policy.yaml") + `

# Telemetry older than this is treated as stale (fail closed).
stale_after: 5s
# A safety level must hold this long before paused output resumes.
hysteresis: 4s
# Window for answering a confirmation prompt.
confirm_timeout: 5s
# Quiet period after an emergency stop.
cooldown: 10s

# Speed bands in mph.
low_speed_max: 25
moderate_max: 55
# Maneuvers closer than this many meters count as imminent.
imminent_maneuver: 150
`
}

// Load reads daemon configuration from a YAML file. Empty path falls
// back to <state dir>/gateway.yaml. Missing file returns defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(DefaultDir(), "gateway.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read gateway config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse gateway config: %w", err)
	}
	return cfg, nil
}
