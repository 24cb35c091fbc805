package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
)

func newDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Remove duplicate relationship rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFamily(cmd.Context(), func(d *Deps) error {
				removed, err := d.Family.Relationships.HandleDedupe(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate relationships\n", removed)
				return nil
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var (
		action string
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the audit log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(resultFormats, format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", format, resultFormats)
			}
			return withFamily(cmd.Context(), func(d *Deps) error {
				entries, err := d.Family.Relationships.HandleHistory(cmd.Context(), action, limit)
				if err != nil {
					return err
				}
				return printHistory(cmd.OutOrStdout(), entries, format)
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Filter by action, e.g. relationship.assert")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistoryLimit, "Maximum number of entries")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func printHistory(w io.Writer, entries []entities.AuditEntry, format string) error {
	if format == "json" {
		if entries == nil {
			entries = []entities.AuditEntry{}
		}
		return writeJSON(w, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return nil
	}

	for _, e := range entries {
		details := ""
		if len(e.Details) > 0 {
			data, err := json.Marshal(e.Details)
			if err != nil {
				return fmt.Errorf("marshaling details: %w", err)
			}
			details = string(data)
		}
		member := "-"
		if e.MemberID != 0 {
			member = fmt.Sprintf("%d", e.MemberID)
		}
		fmt.Fprintf(w, "%s  %-20s %-6s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, member, details)
	}
	return nil
}
