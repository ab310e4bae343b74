package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show local store and sync status",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		ctx := cmdContext(cmd)

		fmt.Printf("%s\n", ui.RenderHeader("PureFlow terminal status"))
		fmt.Printf("  Device:  %s\n", env.deviceID)
		fmt.Printf("  Store:   %s", env.store.Path())
		if info, err := os.Stat(env.store.Path()); err == nil {
			fmt.Printf(" (%.1f KB)", float64(info.Size())/1024)
		}
		fmt.Println()

		for _, kind := range schema.Kinds {
			if kind == schema.KindSettings {
				continue
			}
			count, err := countKind(ctx, env.store, kind)
			if err != nil {
				fatal(err)
			}
			fmt.Printf("  %-9s %d\n", kind.String()+":", count)
		}

		pending, err := env.queue.Len(ctx)
		if err != nil {
			fatal(err)
		}
		if pending == 0 {
			fmt.Printf("  Queue:   %s\n", ui.RenderPass("empty"))
		} else {
			fmt.Printf("  Queue:   %s\n", ui.RenderWarn(fmt.Sprintf("%d pending operations", pending)))
		}

		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := env.gw.Ping(probeCtx); err != nil {
			fmt.Printf("  Remote:  %s\n", ui.RenderWarn("offline"))
		} else {
			fmt.Printf("  Remote:  %s\n", ui.RenderPass("reachable"))
		}
	},
}

func countKind(ctx context.Context, st *store.Store, kind schema.Kind) (int, error) {
	switch kind {
	case schema.KindSales:
		return store.Count[schema.Sale](ctx, st, kind.StoreKey())
	case schema.KindCustomers:
		return store.Count[schema.Customer](ctx, st, kind.StoreKey())
	case schema.KindOrders:
		return store.Count[schema.Order](ctx, st, kind.StoreKey())
	}
	return 0, nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
