package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/reconciler"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Reconcile with the remote store now",
	Long: `Run one reconciliation pass.

Drains the pending queue in order (failed operations stay queued), then
pulls the latest remote snapshot and merges it into the local store.
Use --full to pull without the row cap.`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		rec := reconciler.New(env.store, env.queue, env.gw, env.bus, env.logger)

		ctx := cmdContext(cmd)
		full, _ := cmd.Flags().GetBool("full")

		fmt.Printf("%s Reconciling...\n", ui.RenderAccent("🔄"))
		var result reconciler.Result
		if full {
			result, err = rec.FullSync(ctx)
		} else {
			result, err = rec.Sync(ctx)
		}
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), result.Duration.Round(time.Millisecond))
		fmt.Printf("   Pushed:  %d\n", result.Synced)
		fmt.Printf("   Pulled:  %d\n", result.Pulled)
		if result.Remaining > 0 {
			fmt.Printf("   %s\n", ui.RenderWarn(fmt.Sprintf("%d operations still queued", result.Remaining)))
		}
	},
}

func init() {
	syncCmd.Flags().Bool("full", false, "Pull the full remote snapshot instead of the capped recent window")
	rootCmd.AddCommand(syncCmd)
}
