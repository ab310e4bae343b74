package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/pos"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var saleCmd = &cobra.Command{
	Use:     "sale",
	GroupID: "pos",
	Short:   "Record and list water refill sales",
}

var saleRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a sale at the counter",
	Long: `Record a water refill sale.

The sale is saved locally first, then pushed to the remote store. When
the remote store is unreachable the sale is queued and delivered by the
next sync; the command still succeeds.

With no flags, an interactive form prompts for the sale details:
  pureflow sale record

Or pass everything on the command line:
  pureflow sale record --tier suki --customer "Aling Nena" --quantity 2 --size 5`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		req := pos.SaleRequest{}
		req.Tier, _ = cmd.Flags().GetString("tier")
		req.Customer, _ = cmd.Flags().GetString("customer")
		req.Quantity, _ = cmd.Flags().GetInt("quantity")
		req.ContainerSize, _ = cmd.Flags().GetInt("size")

		if !cmd.Flags().Changed("tier") && !cmd.Flags().Changed("quantity") {
			if err := saleForm(&req); err != nil {
				fatal(err)
			}
		}

		sale, synced, err := env.svc.RecordSale(cmdContext(cmd), operator(cmd), req)
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Sale recorded: %s\n", ui.RenderPass("✓"),
			ui.RenderAccent(fmt.Sprintf("₱%.2f", sale.Amount)))
		fmt.Printf("   %d × %d gal (%s)\n", sale.Quantity, sale.ContainerSize, sale.Type)
		if sale.Customer != "" {
			fmt.Printf("   Customer: %s\n", sale.Customer)
		}
		if synced {
			fmt.Printf("   %s\n", ui.RenderMuted("synced to remote store"))
		} else {
			fmt.Printf("   %s\n", ui.RenderWarn("offline — queued for sync"))
		}
	},
}

var saleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sales, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		sales, err := env.svc.Sales(cmdContext(cmd))
		if err != nil {
			fatal(err)
		}
		if len(sales) == 0 {
			fmt.Println("No sales recorded yet")
			return
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 && len(sales) > limit {
			sales = sales[:limit]
		}

		fmt.Printf("%s\n", ui.RenderHeader(fmt.Sprintf("%-17s %-16s %-8s %10s  %s", "DATE", "CUSTOMER", "TIER", "AMOUNT", "")))
		for _, s := range sales {
			origin := ""
			if s.Remote {
				origin = ui.RenderMuted("remote")
			}
			name := s.Customer
			if name == "" {
				name = "-"
			}
			fmt.Printf("%-17s %-16s %-8s %10s  %s\n",
				s.Date.Format("2006-01-02 15:04"), name, s.Type,
				fmt.Sprintf("₱%.2f", s.Amount), origin)
		}
	},
}

// saleForm collects the sale interactively. Used when the counter staff
// runs the bare command without flags.
func saleForm(req *pos.SaleRequest) error {
	quantity := "1"
	size := "5"
	if req.Tier == "" {
		req.Tier = schema.TierRegular
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Customer tier").
				Options(
					huh.NewOption("Regular", schema.TierRegular),
					huh.NewOption("Suki", schema.TierSuki),
					huh.NewOption("Bulk", schema.TierBulk),
				).
				Value(&req.Tier),
			huh.NewInput().
				Title("Customer name (blank for walk-in)").
				Value(&req.Customer),
			huh.NewInput().
				Title("Containers").
				Value(&quantity).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Container size").
				Options(
					huh.NewOption("5 gallon", "5"),
					huh.NewOption("3 gallon", "3"),
					huh.NewOption("1 gallon", "1"),
				).
				Value(&size),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Cancelled")
		os.Exit(1)
	}

	req.Quantity, _ = strconv.Atoi(quantity)
	req.ContainerSize, _ = strconv.Atoi(size)
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number of 1 or more")
	}
	return nil
}

func init() {
	saleRecordCmd.Flags().String("tier", schema.TierRegular, "Customer tier (regular, suki, bulk)")
	saleRecordCmd.Flags().String("customer", "", "Customer name (required for suki)")
	saleRecordCmd.Flags().Int("quantity", 1, "Number of containers")
	saleRecordCmd.Flags().Int("size", 5, "Container size in gallons")

	saleListCmd.Flags().Int("limit", 20, "Maximum sales to show (0 for all)")

	saleCmd.AddCommand(saleRecordCmd)
	saleCmd.AddCommand(saleListCmd)
	rootCmd.AddCommand(saleCmd)
}
