package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/config"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/wakeword"
)

var wakewordDB string

func init() {
	rootCmd.AddCommand(wakewordCmd)
	wakewordCmd.AddCommand(wakewordListCmd)
	wakewordCmd.AddCommand(wakewordEnableCmd)
	wakewordCmd.AddCommand(wakewordDisableCmd)
	wakewordCmd.AddCommand(wakewordDeleteCmd)
	wakewordCmd.AddCommand(wakewordTrainCmd)
	wakewordCmd.PersistentFlags().StringVar(&wakewordDB, "db", "", "Path to the wake word profile store (default: the configured store)")
}

var wakewordCmd = &cobra.Command{
	Use:   "wakeword",
	Short: "Wake word profile operations",
	Long:  "Commands for listing, switching, and training wake word profiles.\nAt most one profile is active at a time.",
}

var wakewordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wake word profiles",
	RunE:  runWakewordList,
}

var wakewordEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Activate a profile (deactivates any other)",
	Args:  cobra.ExactArgs(1),
	RunE:  runWakewordEnable,
}

var wakewordDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Deactivate a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runWakewordDisable,
}

var wakewordDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runWakewordDelete,
}

var wakewordTrainCmd = &cobra.Command{
	Use:   "train <phrase> <sample.wav> <sample.wav> <sample.wav>",
	Short: "Enroll a custom wake phrase from recorded samples",
	Long: fmt.Sprintf("Builds a new wake word profile from exactly %d WAV recordings\n"+
		"(16 kHz mono) of the phrase. The new profile starts disabled; use\n"+
		"'wakeword enable' to activate it.", wakeword.EnrollSamples),
	Args: cobra.ExactArgs(1 + wakeword.EnrollSamples),
	RunE: runWakewordTrain,
}

func openWakewordStore() (*wakeword.Store, error) {
	path := wakewordDB
	if path == "" {
		cfg, err := config.Load("")
		if err != nil {
			return nil, err
		}
		path = cfg.ProfileDB
	}
	return wakeword.OpenStore(path)
}

func runWakewordList(cmd *cobra.Command, args []string) error {
	store, err := openWakewordStore()
	if err != nil {
		return err
	}
	defer store.Close()

	profiles, err := store.List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No wake word profiles. Use 'wakeword train' to create one.")
		return nil
	}
	for _, p := range profiles {
		state := " "
		if p.Enabled {
			state = "*"
		}
		kind := "built-in"
		if p.CustomTrained {
			kind = "custom"
		}
		fmt.Printf("%s %s  %-20q  %s  sensitivity=%.2f\n", state, p.ID, p.Phrase, kind, p.Sensitivity)
	}
	return nil
}

func runWakewordEnable(cmd *cobra.Command, args []string) error {
	store, err := openWakewordStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Enable(args[0]); err != nil {
		return err
	}
	fmt.Printf("Enabled profile %s\n", args[0])
	return nil
}

func runWakewordDisable(cmd *cobra.Command, args []string) error {
	store, err := openWakewordStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Disable(args[0]); err != nil {
		return err
	}
	fmt.Printf("Disabled profile %s\n", args[0])
	return nil
}

func runWakewordDelete(cmd *cobra.Command, args []string) error {
	store, err := openWakewordStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted profile %s\n", args[0])
	return nil
}

func runWakewordTrain(cmd *cobra.Command, args []string) error {
	store, err := openWakewordStore()
	if err != nil {
		return err
	}
	defer store.Close()

	enroller := wakeword.NewEnroller(afero.NewOsFs(), store)
	profile, err := enroller.TrainFromFiles(args[0], args[1:])
	if err != nil {
		return err
	}
	fmt.Printf("Created profile %s for phrase %q (disabled)\n", profile.ID, profile.Phrase)
	fmt.Printf("Run 'copilotd wakeword enable %s' to activate it.\n", profile.ID)
	return nil
}
