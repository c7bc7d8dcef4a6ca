package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghorbari/ghorbari/client"
)

func newApplicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "application",
		Aliases: []string{"app"},
		Short:   "Manage applications and negotiations",
	}
	cmd.AddCommand(applicationCreateCmd())
	cmd.AddCommand(applicationGetCmd())
	cmd.AddCommand(applicationListCmd())
	cmd.AddCommand(applicationForPropertyCmd())
	cmd.AddCommand(applicationAcceptCmd())
	cmd.AddCommand(applicationRejectCmd())
	cmd.AddCommand(applicationCounterCmd())
	cmd.AddCommand(applicationWithdrawCmd())
	cmd.AddCommand(applicationReviseCmd())
	cmd.AddCommand(applicationAcceptCounterCmd())
	return cmd
}

func applicationCreateCmd() *cobra.Command {
	var price float64
	var message string
	cmd := &cobra.Command{
		Use:   "create <property-id>",
		Short: "Submit an offer on a property",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.Create(context.Background(), &client.CreateApplicationRequest{
				PropertyID:    args[0],
				ProposedPrice: price,
				Message:       message,
			})
			if err != nil {
				fatal("create application", err)
			}
			output(a, a.ID)
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "Proposed price")
	cmd.Flags().StringVar(&message, "message", "", "Message to the owner")
	return cmd
}

func applicationGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get an application by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.Get(context.Background(), args[0])
			if err != nil {
				fatal("get application", err)
			}
			output(a, a.ID)
		},
	}
}

func applicationListCmd() *cobra.Command {
	var received bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your applications",
		Run: func(cmd *cobra.Command, args []string) {
			var apps []client.Application
			var err error
			if received {
				apps, err = apiClient.Applications.ListReceived(context.Background())
			} else {
				apps, err = apiClient.Applications.ListSubmitted(context.Background())
			}
			if err != nil {
				fatal("list applications", err)
			}
			printApplications(apps)
		},
	}
	cmd.Flags().BoolVar(&received, "received", false, "List applications against your listings instead")
	return cmd
}

func applicationForPropertyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "for-property <property-id>",
		Short: "List every application on a property (owner or admin)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			apps, err := apiClient.Applications.ListForProperty(context.Background(), args[0])
			if err != nil {
				fatal("list applications", err)
			}
			printApplications(apps)
		},
	}
}

func printApplications(apps []client.Application) {
	if flagFmt == "table" {
		headers := []string{"ID", "PROPERTY", "STATUS", "PRICE", "SEEKER"}
		var rows [][]string
		for _, a := range apps {
			rows = append(rows, []string{
				a.ID, a.PropertyID, a.Status, fmt.Sprintf("%.0f", a.ProposedPrice), a.Seeker.Email,
			})
		}
		formatTable(headers, rows)
		return
	}
	if flagFmt == "quiet" {
		for _, a := range apps {
			fmt.Println(a.ID)
		}
		return
	}
	output(apps, "")
}

func applicationAcceptCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept an offer (owner); rejects all sibling applications",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.OwnerAction(context.Background(), args[0],
				&client.OwnerActionRequest{Status: "deal-in-progress", Message: message})
			if err != nil {
				fatal("accept application", err)
			}
			output(a, a.ID)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "Message to the seeker")
	return cmd
}

func applicationRejectCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an offer (owner)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.OwnerAction(context.Background(), args[0],
				&client.OwnerActionRequest{Status: "rejected", Message: message})
			if err != nil {
				fatal("reject application", err)
			}
			output(a, a.ID)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "Message to the seeker")
	return cmd
}

func applicationCounterCmd() *cobra.Command {
	var price float64
	var message string
	cmd := &cobra.Command{
		Use:   "counter <id>",
		Short: "Counter an offer with a new price (owner)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.OwnerAction(context.Background(), args[0],
				&client.OwnerActionRequest{Status: "counter", ProposedPrice: price, Message: message})
			if err != nil {
				fatal("counter application", err)
			}
			output(a, a.ID)
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "Counter price")
	cmd.Flags().StringVar(&message, "message", "", "Message to the seeker")
	return cmd
}

func applicationWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <id>",
		Short: "Withdraw your own application",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.Withdraw(context.Background(), args[0])
			if err != nil {
				fatal("withdraw application", err)
			}
			output(a, a.ID)
		},
	}
}

func applicationReviseCmd() *cobra.Command {
	var price float64
	var message string
	cmd := &cobra.Command{
		Use:   "revise <id>",
		Short: "Revise your offer after an owner counter",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.Revise(context.Background(), args[0],
				&client.ReviseRequest{ProposedPrice: price, Message: message})
			if err != nil {
				fatal("revise application", err)
			}
			output(a, a.ID)
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "Revised price")
	cmd.Flags().StringVar(&message, "message", "", "Message to the owner")
	return cmd
}

func applicationAcceptCounterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept-counter <id>",
		Short: "Accept the owner's counter offer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := apiClient.Applications.AcceptCounter(context.Background(), args[0])
			if err != nil {
				fatal("accept counter", err)
			}
			output(a, a.ID)
		},
	}
}
