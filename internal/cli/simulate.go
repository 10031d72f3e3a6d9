package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/policy"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/recognizer"
)

var (
	simulateLevel  string
	simulatePolicy string
	simulateJSON   bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&simulateLevel, "level", "l", "PARKED", "Safety level to evaluate at (PARKED|LOW_SPEED|MODERATE|HIGHWAY|CRITICAL)")
	simulateCmd.Flags().StringVarP(&simulatePolicy, "policy", "p", "", "Path to policy YAML (default: built-in policy)")
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false, "Output verdict as JSON")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <transcript>",
	Short: "Evaluate a spoken command against the policy without a running gateway",
	Long:  "Runs the intent matcher and policy engine over a transcript at a given\nsafety level and prints the verdict. Useful for tuning policy files.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	transcript := strings.Join(args, " ")

	level := model.ParseLevel(simulateLevel)

	cfg := policy.DefaultConfig()
	if simulatePolicy != "" {
		var err error
		cfg, err = policy.LoadConfig(simulatePolicy)
		if err != nil {
			return fmt.Errorf("failed to load policy: %w", err)
		}
	}

	command, ok := recognizer.Match(transcript)
	if !ok {
		if simulateJSON {
			out, _ := json.MarshalIndent(map[string]any{
				"transcript": transcript,
				"matched":    false,
			}, "", "  ")
			fmt.Println(string(out))
			return nil
		}
		fmt.Printf("Transcript: %q\n", transcript)
		fmt.Println("Intent:     (no match)")
		return nil
	}

	verdict := policy.Evaluate(command, level, cfg)

	if simulateJSON {
		out, _ := json.MarshalIndent(map[string]any{
			"transcript": transcript,
			"matched":    true,
			"action":     command.Action,
			"params":     command.Params,
			"confidence": command.Confidence,
			"level":      level.String(),
			"decision":   string(verdict.Decision),
			"reason":     verdict.Reason,
			"policy_id":  verdict.PolicyID,
		}, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Transcript: %q\n", transcript)
	fmt.Printf("Intent:     %s", command.Action)
	if len(command.Params) > 0 {
		fmt.Printf(" (%s)", command.Params[0])
	}
	fmt.Printf("  confidence=%.2f\n", command.Confidence)
	fmt.Printf("Level:      %s\n", level)
	fmt.Printf("Decision:   %s\n", strings.ToUpper(string(verdict.Decision)))
	fmt.Printf("Reason:     %s\n", verdict.Reason)
	fmt.Printf("Policy:     %s\n", verdict.PolicyID)

	if verdict.Decision == model.Blocked {
		os.Exit(1)
	}
	return nil
}
