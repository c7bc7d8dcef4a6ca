package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ghorbari/ghorbari/client"
)

func newDealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deal",
		Short: "Finalize or cancel the deal on a property",
	}
	cmd.AddCommand(dealCompleteCmd())
	cmd.AddCommand(dealCancelCmd())
	return cmd
}

func dealCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <property-id>",
		Short: "Mark the active deal as completed (owner)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Properties.UpdateDealStatus(context.Background(), args[0],
				&client.DealStatusRequest{DealStatus: "completed"})
			if err != nil {
				fatal("complete deal", err)
			}
			output(a, a.ID)
		},
	}
}

func dealCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <property-id>",
		Short: "Cancel the active deal; the listing returns to its prior status",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Properties.UpdateDealStatus(context.Background(), args[0],
				&client.DealStatusRequest{DealStatus: "cancelled"})
			if err != nil {
				fatal("cancel deal", err)
			}
			output(a, a.ID)
		},
	}
}
