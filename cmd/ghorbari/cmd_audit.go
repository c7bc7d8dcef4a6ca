package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ghorbari/ghorbari/client"
)

func newAuditCmd() *cobra.Command {
	var entityType, entityID, action string
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query audit logs (admin)",
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.AuditQueryOptions{
				EntityType: entityType,
				EntityID:   entityID,
				Action:     action,
				Limit:      limit,
			}
			entries, _, err := apiClient.Audit.Query(context.Background(), opts)
			if err != nil {
				fatal("audit query", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "ACTION", "ENTITY_TYPE", "ENTITY_ID", "ACTOR", "CREATED_AT"}
				var rows [][]string
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.FormatInt(e.ID, 10), e.Action, e.EntityType, e.EntityID,
						e.Actor, e.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "Filter by entity type")
	cmd.Flags().StringVar(&entityID, "entity", "", "Filter by entity ID")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")

	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Purge old audit entries",
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Audit.Purge(context.Background(), retentionDays)
			if err != nil {
				fatal("audit purge", err)
			}
			output(map[string]int{"deleted": deleted}, fmt.Sprintf("%d", deleted))
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 90, "Delete entries older than N days")
	return cmd
}
