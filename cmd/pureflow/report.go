package main

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/pos"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	GroupID: "pos",
	Short:   "Summarize sales over a period",
	Long: `Summarize sales for today or a natural-language period.

The --since flag accepts plain phrases:
  pureflow report                       # today
  pureflow report --since "last monday"
  pureflow report --since "3 days ago"`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		ctx := cmdContext(cmd)

		var summary pos.Summary
		since, _ := cmd.Flags().GetString("since")
		if since == "" {
			summary, err = env.svc.TodaySummary(ctx)
		} else {
			from, perr := parseSince(since)
			if perr != nil {
				fatal(perr)
			}
			summary, err = env.svc.Summarize(ctx, from, time.Now())
		}
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s\n", ui.RenderHeader(fmt.Sprintf("Sales %s — %s",
			summary.From.Format("Jan 2 15:04"), summary.To.Format("Jan 2 15:04"))))
		fmt.Printf("  Sales:    %d\n", summary.SaleCount)
		fmt.Printf("  Revenue:  %s\n", ui.RenderAccent(fmt.Sprintf("₱%.2f", summary.Revenue)))
		fmt.Printf("  Gallons:  %d\n", summary.Gallons)
		for tier, n := range summary.ByTier {
			fmt.Printf("    %-8s %d\n", tier+":", n)
		}
		if summary.SukiRevenue > 0 {
			fmt.Printf("  Suki revenue: ₱%.2f\n", summary.SukiRevenue)
		}
		if summary.PendingOrders > 0 {
			fmt.Printf("  %s\n", ui.RenderWarn(fmt.Sprintf("%d open delivery orders", summary.PendingOrders)))
		}
	},
}

// parseSince resolves a natural-language phrase to a point in time.
func parseSince(phrase string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(phrase, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", phrase, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("could not understand %q (try \"last monday\" or \"3 days ago\")", phrase)
	}
	return result.Time, nil
}

func init() {
	reportCmd.Flags().String("since", "", "Start of the period, in plain English")
	rootCmd.AddCommand(reportCmd)
}
