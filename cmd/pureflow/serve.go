package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/config"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/connectivity"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/dashboard"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/realtime"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/reconciler"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Run the long-lived terminal",
	Long: `Run the terminal as a long-lived process.

While running, the terminal:
  - probes connectivity and flips between online and offline
  - reconciles with the remote store on reconnect and on a timer
  - folds live remote changes into the local store as they happen
  - serves the websocket dashboard for the store's display screens
  - re-applies the seed file when it changes on disk

Ctrl+C shuts everything down cleanly.`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		rec := reconciler.New(env.store, env.queue, env.gw, env.bus, env.logger)
		rt := realtime.New(env.store, env.gw, env.bus, env.deviceID, env.logger)

		monitor := connectivity.New(env.gw, env.bus, &connectivity.Config{
			ProbeInterval: env.cfg.ProbeInterval,
			Logger:        env.logger,
		})
		monitor.OnOnline(func(ctx context.Context) {
			if _, err := rec.Sync(ctx); err != nil && !errors.Is(err, reconciler.ErrSyncInProgress) {
				env.logger.Printf("Reconnect sync failed: %v", err)
			}
			rt.SubscribeAll(ctx)
		})
		monitor.OnOffline(func() {
			rt.Teardown()
		})

		var dash *dashboard.Server
		if env.cfg.DashboardPort > 0 {
			dash = dashboard.NewServer(env.bus, &dashboard.Config{
				Port:   env.cfg.DashboardPort,
				Logger: env.logger,
			})
			if err := dash.Start(); err != nil {
				fatal(err)
			}
			fmt.Printf("%s Dashboard on http://localhost:%d (ws at /ws)\n",
				ui.RenderPass("✓"), env.cfg.DashboardPort)
		}

		var seedWatcher *config.SeedWatcher
		if env.cfg.SeedFile != "" {
			seedWatcher, err = config.NewSeedWatcher(env.cfg.SeedFile, func(seed *config.Seed) {
				if err := seed.Apply(ctx, env.store); err != nil {
					env.logger.Printf("Seed apply failed: %v", err)
				}
			}, env.logger)
			if err != nil {
				env.logger.Printf("Seed watcher disabled: %v", err)
			} else if err := seedWatcher.Start(); err != nil {
				env.logger.Printf("Seed watcher disabled: %v", err)
				seedWatcher = nil
			}
		}

		monitor.Start(ctx)
		fmt.Printf("%s Terminal running (device %s)\n", ui.RenderPass("✓"), env.deviceID)
		fmt.Println("Press Ctrl+C to stop...")

		ticker := time.NewTicker(env.cfg.SyncInterval)
		defer ticker.Stop()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				if !monitor.Online() {
					continue
				}
				// A run already in flight means the tick overlapped the
				// online hook; the next tick will catch up.
				if _, err := rec.Sync(ctx); err != nil && !errors.Is(err, reconciler.ErrSyncInProgress) {
					env.logger.Printf("Periodic sync failed: %v", err)
				}
			}
		}

		fmt.Println("\nShutting down...")
		monitor.Stop()
		rt.Teardown()
		if seedWatcher != nil {
			if err := seedWatcher.Stop(); err != nil {
				env.logger.Printf("Seed watcher stop error: %v", err)
			}
		}
		if dash != nil {
			if err := dash.Stop(); err != nil {
				env.logger.Printf("Dashboard stop error: %v", err)
			}
		}
		fmt.Println("Terminal stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
