package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/audit"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/config"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

var (
	eventsPath  string
	eventsKind  string
	eventsSince string
	eventsLimit int
	eventsJSON  bool
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsVerifyCmd)
	eventsCmd.PersistentFlags().StringVarP(&eventsPath, "log", "f", "", "Path to the safety event log (default: the configured log)")
	eventsListCmd.Flags().StringVarP(&eventsKind, "kind", "k", "", "Filter by event kind (e.g. command_blocked, emergency_stop)")
	eventsListCmd.Flags().StringVar(&eventsSince, "since", "", "Only events at or after this RFC3339 timestamp")
	eventsListCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 0, "Stop after this many events (0 = all)")
	eventsListCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Safety event log operations",
	Long:  "Commands for inspecting and verifying the hash-chained safety event log.",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show safety events from the log",
	RunE:  runEventsList,
}

var eventsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify hash chain integrity of the event log",
	Long:  "Walks the JSONL event log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	RunE:  runEventsVerify,
}

func eventLogPath() (string, error) {
	if eventsPath != "" {
		return eventsPath, nil
	}
	cfg, err := config.Load("")
	if err != nil {
		return "", err
	}
	return cfg.AuditLogPath, nil
}

func runEventsList(cmd *cobra.Command, args []string) error {
	path, err := eventLogPath()
	if err != nil {
		return err
	}

	var f audit.Filter
	if eventsKind != "" {
		f.Kinds = []model.EventKind{model.EventKind(eventsKind)}
	}
	if eventsSince != "" {
		t, err := time.Parse(time.RFC3339, eventsSince)
		if err != nil {
			return fmt.Errorf("invalid --since timestamp: %w", err)
		}
		f.Since = t
	}
	f.Limit = eventsLimit

	events, err := audit.Query(path, f)
	if err != nil {
		return err
	}

	if eventsJSON {
		out, _ := json.MarshalIndent(events, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if len(events) == 0 {
		fmt.Println("No matching events.")
		return nil
	}
	for _, ev := range events {
		line := fmt.Sprintf("%s  %-22s  level=%s", ev.Timestamp.Format(time.RFC3339), ev.Kind, ev.Level)
		if ev.Command != "" {
			line += "  command=" + ev.Command
		}
		if ev.Reason != "" {
			line += "  reason=" + ev.Reason
		}
		fmt.Println(line)
	}
	return nil
}

func runEventsVerify(cmd *cobra.Command, args []string) error {
	path, err := eventLogPath()
	if err != nil {
		return err
	}

	result := audit.Verify(path)
	if result.Valid {
		fmt.Printf("OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}
