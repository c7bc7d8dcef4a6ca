package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghorbari/ghorbari/client"
)

func newPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Manage property listings",
	}
	cmd.AddCommand(propertyListCmd())
	cmd.AddCommand(propertyGetCmd())
	cmd.AddCommand(propertyCreateCmd())
	cmd.AddCommand(propertyModerateCmd())
	cmd.AddCommand(propertyHideCmd())
	cmd.AddCommand(propertyShowCmd())
	cmd.AddCommand(propertyRemoveCmd())
	cmd.AddCommand(propertyReopenCmd())
	return cmd
}

func propertyListCmd() *cobra.Command {
	var status, listingType, owner string
	var minPrice, maxPrice float64
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List property listings",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.PropertyListOptions{
				Status:      status,
				ListingType: listingType,
				Owner:       owner,
				MinPrice:    minPrice,
				MaxPrice:    maxPrice,
				Limit:       limit,
				Offset:      offset,
			}
			props, _, err := apiClient.Properties.List(context.Background(), opts)
			if err != nil {
				fatal("list properties", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "STATUS", "TYPE", "PRICE", "TITLE"}
				var rows [][]string
				for _, p := range props {
					rows = append(rows, []string{
						p.ID, p.Status, p.ListingType, fmt.Sprintf("%.0f", p.Price), p.Title,
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, p := range props {
					fmt.Println(p.ID)
				}
				return
			}
			output(props, "")
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&listingType, "listing", "", "Filter by listing type: rent|sale")
	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner email")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "Minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "Maximum price")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func propertyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a property by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := apiClient.Properties.Get(context.Background(), args[0])
			if err != nil {
				fatal("get property", err)
			}
			output(p, p.ID)
		},
	}
}

func propertyCreateCmd() *cobra.Command {
	var (
		listingType, propertyType, address, description string
		price                                           float64
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Submit a new listing (starts in pending until moderated)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreatePropertyRequest{
				Title:        args[0],
				Description:  description,
				Price:        price,
				ListingType:  listingType,
				PropertyType: propertyType,
				Location:     client.Location{Address: address},
			}
			p, err := apiClient.Properties.Create(context.Background(), req)
			if err != nil {
				fatal("create property", err)
			}
			output(p, p.ID)
		},
	}
	cmd.Flags().Float64Var(&price, "price", 0, "Asking price")
	cmd.Flags().StringVar(&listingType, "listing", "rent", "Listing type: rent|sale")
	cmd.Flags().StringVar(&propertyType, "type", "apartment", "Property type")
	cmd.Flags().StringVar(&address, "address", "", "Street address")
	cmd.Flags().StringVar(&description, "description", "", "Listing description")
	return cmd
}

func propertyModerateCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "moderate <id> <active|rejected>",
		Short: "Apply a moderation decision to a pending listing (admin)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := apiClient.Properties.Moderate(context.Background(), args[0],
				&client.ModeratePropertyRequest{Decision: args[1], Note: note})
			if err != nil {
				fatal("moderate property", err)
			}
			output(p, p.ID)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Moderation note")
	return cmd
}

func propertyHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide <id>",
		Short: "Hide an active listing from the marketplace",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := apiClient.Properties.SetHidden(context.Background(), args[0], true)
			if err != nil {
				fatal("hide property", err)
			}
			output(p, p.ID)
		},
	}
}

func propertyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Unhide a hidden listing",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := apiClient.Properties.SetHidden(context.Background(), args[0], false)
			if err != nil {
				fatal("show property", err)
			}
			output(p, p.ID)
		},
	}
}

func propertyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Take a listing off the marketplace",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := apiClient.Properties.Remove(context.Background(), args[0])
			if err != nil {
				fatal("remove property", err)
			}
			output(p, p.ID)
		},
	}
}

func propertyReopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <id>",
		Short: "Return a rented rent listing to active",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := apiClient.Properties.Reopen(context.Background(), args[0])
			if err != nil {
				fatal("reopen property", err)
			}
			output(p, p.ID)
		},
	}
}
