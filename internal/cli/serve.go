package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/audit"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/config"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/machine"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/policy"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/safety"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/server"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/systemd"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/wakeword"
)

var serveConfigPath string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to gateway config YAML")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the voice command gateway daemon",
	Long:  "Runs the gateway: telemetry, recognition, lifecycle, and geofence\nstreams in; conversation state, safety events, and command outcomes out.\nSupports hot-reload of the policy file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	if msg := systemd.CheckUnitFileIntegrity(); msg != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}

	pol, polHash, err := policy.LoadConfigWithHash(cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	log, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer log.Close()

	store, err := wakeword.OpenStore(cfg.ProfileDB)
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}
	defer store.Close()

	m := machine.New(machine.Config{
		ConfirmTimeout:   cfg.ConfirmTimeout,
		Cooldown:         cfg.Cooldown,
		Hysteresis:       cfg.Hysteresis,
		ImminentManeuver: cfg.ImminentManeuver,
		Policy:           pol,
		PolicyHash:       polHash,
		Log:              log,
	})

	listener := wakeword.NewListener(store, func(ev model.ActivationEvent) {
		m.Push(ev)
	})
	if err := listener.Reload(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: wake word profile load failed: %v\n", err)
	}

	agg := safety.New(safety.Thresholds{
		LowSpeedMax:      cfg.LowSpeedMax,
		ModerateMax:      cfg.ModerateMax,
		ImminentManeuver: cfg.ImminentManeuver,
		StaleAfter:       cfg.StaleAfter,
	})

	srv, err := server.New(server.Config{
		Addr:       cfg.Listen,
		Machine:    m,
		Aggregator: agg,
		Listener:   listener,
		StaleAfter: cfg.StaleAfter,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	reloader, err := server.NewReloader(m, cfg.PolicyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	}

	storeWatcher, err := wakeword.NewStoreWatcher(cfg.ProfileDB, listener.Reload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: profile hot-reload disabled: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gateway...")
		cancel()
	}()

	go func() { _ = m.Run(ctx) }()
	go func() { _ = listener.Run(ctx) }()
	if reloader != nil {
		go func() { _ = reloader.Run(ctx) }()
	}
	if storeWatcher != nil {
		go func() { _ = storeWatcher.Run(ctx) }()
	}

	fmt.Fprintf(os.Stderr, "gateway listening on %s\n", cfg.Listen)
	fmt.Fprintf(os.Stderr, "policy: %s (hot-reload enabled)\n", cfg.PolicyPath)
	fmt.Fprintf(os.Stderr, "event log: %s\n\n", cfg.AuditLogPath)

	return srv.Run(ctx)
}
