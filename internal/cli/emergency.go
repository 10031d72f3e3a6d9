package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/config"
)

var (
	emergencyAddr   string
	emergencyReason string
)

func init() {
	rootCmd.AddCommand(emergencyCmd)
	emergencyCmd.Flags().StringVar(&emergencyAddr, "addr", "", "Gateway address (default: the configured listen address)")
	emergencyCmd.Flags().StringVarP(&emergencyReason, "reason", "r", "manual trigger", "Reason recorded with the emergency stop")
}

var emergencyCmd = &cobra.Command{
	Use:   "emergency",
	Short: "Trigger an emergency stop on a running gateway",
	Long:  "Silences all output and halts any in-flight interaction immediately.\nThe gateway stays in the stopped state for its cooldown window.",
	RunE:  runEmergency,
}

func runEmergency(cmd *cobra.Command, args []string) error {
	addr := emergencyAddr
	if addr == "" {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		addr = cfg.Listen
	}

	body, _ := json.Marshal(map[string]string{"reason": emergencyReason})
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Post("http://"+addr+"/v1/emergency", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach gateway at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("gateway rejected emergency trigger: %s", resp.Status)
	}
	fmt.Println("Emergency stop triggered.")
	return nil
}
