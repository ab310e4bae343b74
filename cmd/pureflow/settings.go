package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	GroupID: "pos",
	Short:   "Show or change store pricing",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective store settings",
	Long: `Show the store settings in effect.

The remote copy is authoritative when reachable; otherwise the locally
cached copy serves, falling back to defaults on a never-synced device.`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		settings, err := env.svc.LoadSettings(cmdContext(cmd))
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s\n", ui.RenderHeader(settings.StoreName))
		fmt.Printf("  Base price:     ₱%.2f per gallon\n", settings.BasePrice)
		fmt.Printf("  Suki discount:  %.0f%%  (₱%.2f per gallon)\n",
			settings.SukiDiscount, settings.PricePerGallon(schema.TierSuki))
		fmt.Printf("  Bulk discount:  %.0f%%  (₱%.2f per gallon)\n",
			settings.BulkDiscount, settings.PricePerGallon(schema.TierBulk))
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change store settings (admin only)",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		ctx := cmdContext(cmd)
		settings, err := env.svc.LoadSettings(ctx)
		if err != nil {
			fatal(err)
		}

		if cmd.Flags().Changed("name") {
			settings.StoreName, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("base-price") {
			settings.BasePrice, _ = cmd.Flags().GetFloat64("base-price")
		}
		if cmd.Flags().Changed("suki-discount") {
			settings.SukiDiscount, _ = cmd.Flags().GetFloat64("suki-discount")
		}
		if cmd.Flags().Changed("bulk-discount") {
			settings.BulkDiscount, _ = cmd.Flags().GetFloat64("bulk-discount")
		}

		synced, err := env.svc.SaveSettings(ctx, operator(cmd), settings)
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Settings saved\n", ui.RenderPass("✓"))
		if !synced {
			fmt.Printf("   %s\n", ui.RenderWarn("offline — queued for sync"))
		}
	},
}

func init() {
	settingsSetCmd.Flags().String("name", "", "Store name")
	settingsSetCmd.Flags().Float64("base-price", 0, "Base price per gallon")
	settingsSetCmd.Flags().Float64("suki-discount", 0, "Suki discount percentage")
	settingsSetCmd.Flags().Float64("bulk-discount", 0, "Bulk discount percentage")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
