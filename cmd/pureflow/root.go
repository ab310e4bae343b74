package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/config"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/device"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/pos"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/queue"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/remote"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pureflow",
	Short: "Offline-first point of sale for the PureFlow water refilling station",
	Long: `pureflow is the counter terminal for a water refilling station.

Every sale, order, and customer record is written to the local database
first, so the counter keeps working with no internet. A pending queue
holds records the remote store has not confirmed; reconciliation drains
it and pulls the latest remote snapshot whenever connectivity returns.

Run 'pureflow serve' for the long-running terminal (connectivity
monitoring, live updates, dashboard), or use the subcommands directly
for one-shot operations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./pureflow.yaml or ~/.pureflow/)")
	rootCmd.PersistentFlags().String("store", "", "Local database path (overrides config)")
	rootCmd.PersistentFlags().String("user", "counter", "Operator username")
	rootCmd.PersistentFlags().String("role", pos.RoleStaff, "Operator role (admin or staff)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "pos", Title: "Point of sale:"},
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
	)
}

// env is the wired-up terminal: local store, queue, gateway, and service.
// Commands open it at the start of Run and close it on exit.
type env struct {
	cfg      *config.Config
	store    *store.Store
	queue    *queue.Queue
	gw       remote.Gateway
	bus      *events.Bus
	svc      *pos.Service
	deviceID string
	logger   *log.Logger
}

func openEnv(cmd *cobra.Command) (*env, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if storePath, _ := cmd.Flags().GetString("store"); storePath != "" {
		cfg.StorePath = storePath
	}

	logger := cfg.NewLogger("[pureflow] ")

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	deviceID, err := device.ID(cmd.Context(), st)
	if err != nil {
		st.Close()
		return nil, err
	}

	var gw remote.Gateway = remote.Offline{}
	if cfg.RemoteURL != "" {
		client, err := remote.NewClient(remote.Config{
			BaseURL: cfg.RemoteURL,
			APIKey:  cfg.RemoteKey,
			Logger:  logger,
		})
		if err != nil {
			st.Close()
			return nil, err
		}
		gw = client
	}

	bus := events.NewBus()
	q := queue.New(st, deviceID)

	if cfg.SeedFile != "" {
		if seed, err := config.LoadSeed(cfg.SeedFile); err != nil {
			logger.Printf("Seed file skipped: %v", err)
		} else if err := seed.Apply(cmd.Context(), st); err != nil {
			logger.Printf("Seed apply failed: %v", err)
		}
	}

	return &env{
		cfg:      cfg,
		store:    st,
		queue:    q,
		gw:       gw,
		bus:      bus,
		svc:      pos.New(st, q, gw, bus, deviceID, logger),
		deviceID: deviceID,
		logger:   logger,
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Printf("Store close error: %v", err)
	}
}

func operator(cmd *cobra.Command) pos.Operator {
	username, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	return pos.Operator{Username: username, Role: role}
}

// fatal prints the error and exits, matching the style of one-shot commands.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// cmdContext returns the command context, falling back to Background for
// tests that construct commands directly.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
