package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/config"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/policy"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/systemd"
)

var (
	initInstallSystemd bool
	initForce          bool
)

func init() {
	initCmd.Flags().BoolVar(&initInstallSystemd, "install-systemd", false, "Install copilotd.service unit (requires root)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap gateway configuration and optional systemd integration",
	Long: `Creates the state directory with a default gateway config and
command policy.

With --install-systemd: installs a copilotd.service unit and records
its integrity hash, so the daemon can warn when the unit's hardening
directives change after installation.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.DefaultDir()
	var created []string

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	gatewayPath := filepath.Join(dir, "gateway.yaml")
	if wrote, err := writeIfMissing(gatewayPath, config.DefaultYAML()); err != nil {
		return err
	} else if wrote {
		created = append(created, gatewayPath)
	}

	policyPath := filepath.Join(dir, "policy.yaml")
	if wrote, err := writeIfMissing(policyPath, policy.DefaultConfigYAML()); err != nil {
		return err
	} else if wrote {
		created = append(created, policyPath)
	}

	if initInstallSystemd {
		if runtime.GOOS != "linux" {
			return fmt.Errorf("--install-systemd is only supported on Linux")
		}
		if os.Geteuid() != 0 {
			return fmt.Errorf("--install-systemd requires root; run with sudo")
		}

		unitPath := systemd.UnitFilePaths[0]
		if err := os.WriteFile(unitPath, []byte(systemd.UnitTemplate()), 0o644); err != nil {
			return fmt.Errorf("write systemd unit: %w", err)
		}
		created = append(created, unitPath)

		if err := os.MkdirAll(filepath.Dir(systemd.UnitHashPath), 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
		if err := systemd.RecordUnitFileHash(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not record unit file hash: %v\n", err)
		}

		if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: systemctl daemon-reload failed: %v\n", err)
		}
	}

	fmt.Println("copilotd init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
		fmt.Println()
	}

	fmt.Println("Enroll a wake word:")
	fmt.Println("  copilotd wakeword train \"hey roadtrip\" one.wav two.wav three.wav")
	fmt.Println()
	fmt.Println("Run the gateway:")
	fmt.Printf("  copilotd serve --config %s\n", gatewayPath)

	if initInstallSystemd {
		fmt.Println()
		fmt.Println("Or run under systemd:")
		fmt.Println("  sudo systemctl enable --now copilotd")
	}

	return nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
