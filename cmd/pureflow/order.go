package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/pos"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/ui"
)

var orderCmd = &cobra.Command{
	Use:     "order",
	GroupID: "pos",
	Short:   "Manage client delivery orders",
}

var orderSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new delivery order",
	Long: `Submit a client delivery order.

Pricing is derived from container size and quantity; orders of ten or
more containers get a 10% volume discount. The order starts as pending
and moves through preparing, out_for_delivery, and delivered.`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		req := pos.OrderRequest{}
		req.ClientName, _ = cmd.Flags().GetString("client")
		req.ClientPhone, _ = cmd.Flags().GetString("phone")
		req.ClientAddress, _ = cmd.Flags().GetString("address")
		req.Quantity, _ = cmd.Flags().GetInt("quantity")
		req.ContainerSize, _ = cmd.Flags().GetInt("size")

		order, synced, err := env.svc.SubmitOrder(cmdContext(cmd), operator(cmd), req)
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Order %s submitted\n", ui.RenderPass("✓"), ui.RenderAccent(order.Code))
		fmt.Printf("   %d × %d gal @ ₱%.2f = %s\n",
			order.Quantity, order.ContainerSize, order.PricePerUnit,
			ui.RenderAccent(fmt.Sprintf("₱%.2f", order.TotalAmount)))
		fmt.Printf("   Client: %s\n", order.ClientName)
		if synced {
			fmt.Printf("   %s\n", ui.RenderMuted("synced to remote store"))
		} else {
			fmt.Printf("   %s\n", ui.RenderWarn("offline — queued for sync"))
		}
	},
}

var orderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List delivery orders, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		orders, err := env.svc.Orders(cmdContext(cmd))
		if err != nil {
			fatal(err)
		}

		all, _ := cmd.Flags().GetBool("all")
		shown := 0
		fmt.Printf("%s\n", ui.RenderHeader(fmt.Sprintf("%-13s %-16s %-17s %10s  %s", "ORDER", "CLIENT", "STATUS", "TOTAL", "ASSIGNED")))
		for _, o := range orders {
			if !all && (o.Status == "delivered" || o.Status == "cancelled") {
				continue
			}
			assigned := o.AssignedTo
			if assigned == "" {
				assigned = "-"
			}
			fmt.Printf("%-13s %-16s %-17s %10s  %s\n",
				o.Code, o.ClientName, renderStatus(o.Status),
				fmt.Sprintf("₱%.2f", o.TotalAmount), assigned)
			shown++
		}
		if shown == 0 {
			fmt.Println("No open orders (use --all to include finished ones)")
		}
	},
}

var orderStatusCmd = &cobra.Command{
	Use:   "status <order> <new-status>",
	Short: "Move an order through the delivery flow",
	Long: `Update an order's status by id or display code.

Valid statuses: pending, preparing, out_for_delivery, delivered, cancelled.
Delivered stamps the fulfillment time. Cancelling requires the admin role.

Example:
  pureflow order status ORD-3F2A8B1C out_for_delivery --assign "Kuya Ben"`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		env, err := openEnv(cmd)
		if err != nil {
			fatal(err)
		}
		defer env.Close()

		assign, _ := cmd.Flags().GetString("assign")
		order, err := env.svc.UpdateOrderStatus(cmdContext(cmd), operator(cmd), args[0], args[1], assign)
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Order %s is now %s\n", ui.RenderPass("✓"),
			ui.RenderAccent(order.Code), renderStatus(order.Status))
		if !order.FulfilledAt.IsZero() {
			fmt.Printf("   Fulfilled at %s\n", order.FulfilledAt.Format("2006-01-02 15:04"))
		}
	},
}

func renderStatus(status string) string {
	switch status {
	case "delivered":
		return ui.RenderPass(status)
	case "cancelled":
		return ui.RenderError(status)
	case "out_for_delivery":
		return ui.RenderAccent(status)
	default:
		return status
	}
}

func init() {
	orderSubmitCmd.Flags().String("client", "", "Client name")
	orderSubmitCmd.Flags().String("phone", "", "Client phone")
	orderSubmitCmd.Flags().String("address", "", "Delivery address")
	orderSubmitCmd.Flags().Int("quantity", 1, "Number of containers")
	orderSubmitCmd.Flags().Int("size", 5, "Container size in gallons")

	orderListCmd.Flags().Bool("all", false, "Include delivered and cancelled orders")

	orderStatusCmd.Flags().String("assign", "", "Assign a delivery rider")

	orderCmd.AddCommand(orderSubmitCmd)
	orderCmd.AddCommand(orderListCmd)
	orderCmd.AddCommand(orderStatusCmd)
	rootCmd.AddCommand(orderCmd)
}
