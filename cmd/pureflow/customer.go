package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var customerCmd = &cobra.Command{
	Use:     "customer",
	GroupID: "pos",
	Short:   "Manage customer profiles",
}

var customerListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List customers, optionally filtered by name, phone, or address",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		customers, err := env.svc.FindCustomers(cmdContext(cmd), query)
		if err != nil {
			fatal(err)
		}
		if len(customers) == 0 {
			fmt.Println("No customers found")
			return
		}

		fmt.Printf("%s\n", ui.RenderHeader(fmt.Sprintf("%-20s %-8s %6s %12s  %s", "NAME", "TIER", "VISITS", "SPENT", "PHONE")))
		for _, c := range customers {
			tier := c.Type
			if tier == schema.TierSuki {
				tier = ui.RenderAccent(tier)
			}
			phone := c.Phone
			if phone == "" {
				phone = "-"
			}
			fmt.Printf("%-20s %-8s %6d %12s  %s\n",
				c.Name, tier, c.PurchaseCount,
				fmt.Sprintf("₱%.2f", c.TotalSpent), phone)
		}
	},
}

var customerAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new customer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		customer := schema.Customer{Name: args[0]}
		customer.Phone, _ = cmd.Flags().GetString("phone")
		customer.Address, _ = cmd.Flags().GetString("address")
		customer.Type, _ = cmd.Flags().GetString("tier")

		added, synced, err := env.svc.AddCustomer(cmdContext(cmd), operator(cmd), customer)
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Customer %s registered (%s)\n", ui.RenderPass("✓"),
			ui.RenderAccent(added.Name), added.Type)
		if !synced {
			fmt.Printf("   %s\n", ui.RenderWarn("offline — queued for sync"))
		}
	},
}

func init() {
	customerAddCmd.Flags().String("phone", "", "Phone number")
	customerAddCmd.Flags().String("address", "", "Address")
	customerAddCmd.Flags().String("tier", schema.TierRegular, "Customer tier (regular, suki, bulk)")

	customerCmd.AddCommand(customerListCmd)
	customerCmd.AddCommand(customerAddCmd)
	rootCmd.AddCommand(customerCmd)
}
