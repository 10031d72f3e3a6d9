package policy

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, hash, err := LoadConfigWithHash(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(cfg.ConfirmActions) == 0 || len(cfg.SimpleActions) == 0 {
		t.Error("expected default action lists")
	}
	if hash != emptyHash() {
		t.Errorf("expected empty-input hash for defaults, got %s", hash)
	}
}

func TestLoadConfigOverridesOnlySpecifiedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	yaml := "confirm_actions:\n  - navigate\nlow_confidence: 0.8\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, hash, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.ConfirmActions) != 1 || cfg.ConfirmActions[0] != "navigate" {
		t.Errorf("confirm_actions not overridden: %v", cfg.ConfirmActions)
	}
	if cfg.LowConfidence != 0.8 {
		t.Errorf("low_confidence not overridden: %v", cfg.LowConfidence)
	}
	// Unspecified fields keep defaults.
	if len(cfg.BlockActions) == 0 {
		t.Error("block_actions should keep defaults")
	}
	if hash == emptyHash() {
		t.Error("hash should reflect the file content, not empty input")
	}
}

func TestLoadConfigInvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("{{{not yaml"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestClassify(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		action string
		class  ActionClass
	}{
		{"navigate", ClassConfirm},
		{"book", ClassVisual},
		{"play", ClassSimple},
		{"warp", ClassUnknown},
	}
	for _, tc := range cases {
		if got := cfg.Classify(tc.action); got != tc.class {
			t.Errorf("Classify(%s) = %s, want %s", tc.action, got, tc.class)
		}
	}
}

func TestDefaultConfigYAMLMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(DefaultConfigYAML()), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if !reflect.DeepEqual(cfg, def) {
		t.Errorf("template parses to %+v, defaults are %+v", cfg, def)
	}
}
