package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/audit"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/config"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/policy"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/systemd"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/wakeword"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check gateway readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Binary location and version.
	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "copilotd binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "copilotd binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	// 2. State directory.
	stateDir := config.DefaultDir()
	if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
		checks = append(checks, checkResult{
			label:  "state directory",
			ok:     true,
			detail: stateDir,
		})
	} else {
		checks = append(checks, checkResult{
			label:  "state directory",
			ok:     false,
			detail: "missing",
			fix:    "copilotd init",
		})
	}

	// 3. Gateway config.
	gatewayPath := filepath.Join(stateDir, "gateway.yaml")
	if _, err := config.Load(gatewayPath); err != nil {
		checks = append(checks, checkResult{
			label:  "gateway.yaml",
			ok:     false,
			detail: err.Error(),
			fix:    "copilotd init --force",
		})
	} else if _, statErr := os.Stat(gatewayPath); statErr == nil {
		checks = append(checks, checkResult{
			label:  "gateway.yaml",
			ok:     true,
			detail: "valid",
		})
	} else {
		checks = append(checks, checkResult{
			label:  "gateway.yaml",
			ok:     true,
			detail: "missing, using defaults",
		})
	}

	// 4. Command policy.
	cfg, _ := config.Load(gatewayPath)
	if _, err := policy.LoadConfig(cfg.PolicyPath); err != nil {
		checks = append(checks, checkResult{
			label:  "policy.yaml",
			ok:     false,
			detail: err.Error(),
			fix:    "copilotd init --force",
		})
	} else if _, statErr := os.Stat(cfg.PolicyPath); statErr == nil {
		checks = append(checks, checkResult{
			label:  "policy.yaml",
			ok:     true,
			detail: "valid",
		})
	} else {
		checks = append(checks, checkResult{
			label:  "policy.yaml",
			ok:     true,
			detail: "missing, using defaults",
		})
	}

	// 5. Wake word profiles.
	if store, err := wakeword.OpenStore(cfg.ProfileDB); err != nil {
		checks = append(checks, checkResult{
			label:  "profile store",
			ok:     false,
			detail: err.Error(),
		})
	} else {
		profiles, listErr := store.List()
		store.Close()
		switch {
		case listErr != nil:
			checks = append(checks, checkResult{
				label:  "profile store",
				ok:     false,
				detail: listErr.Error(),
			})
		case len(profiles) == 0:
			checks = append(checks, checkResult{
				label:  "wake word profiles",
				ok:     false,
				detail: "none enrolled",
				fix:    "copilotd wakeword train <phrase> <sample.wav>...",
			})
		default:
			enabled := 0
			for _, p := range profiles {
				if p.Enabled {
					enabled++
				}
			}
			checks = append(checks, checkResult{
				label:  "wake word profiles",
				ok:     true,
				detail: fmt.Sprintf("%d enrolled, %d enabled", len(profiles), enabled),
			})
		}
	}

	// 6. Event log chain.
	if _, statErr := os.Stat(cfg.AuditLogPath); statErr == nil {
		if res := audit.Verify(cfg.AuditLogPath); !res.Valid {
			checks = append(checks, checkResult{
				label:  "event log",
				ok:     false,
				detail: fmt.Sprintf("chain broken at line %d", res.ErrorLine),
			})
		} else {
			checks = append(checks, checkResult{
				label:  "event log",
				ok:     true,
				detail: fmt.Sprintf("%d entries, chain intact", res.Lines),
			})
		}
	} else {
		checks = append(checks, checkResult{
			label:  "event log",
			ok:     true,
			detail: "not created yet",
		})
	}

	// 7. systemd (Linux only).
	if runtime.GOOS == "linux" {
		installed := false
		for _, p := range systemd.UnitFilePaths {
			if _, err := os.Stat(p); err == nil {
				installed = true
				break
			}
		}
		if installed {
			detail := "installed"
			ok := true
			if msg := systemd.CheckUnitFileIntegrity(); msg != "" {
				detail = msg
				ok = false
			}
			checks = append(checks, checkResult{
				label:  "systemd unit",
				ok:     ok,
				detail: detail,
			})
		} else {
			checks = append(checks, checkResult{
				label:  "systemd unit",
				ok:     false,
				detail: "not installed",
				fix:    "sudo copilotd init --install-systemd",
			})
		}
	}

	// Print results.
	hasFailures := false
	for _, c := range checks {
		mark := "✓" // ✓
		if !c.ok {
			mark = "✗" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}

	if hasFailures {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}
