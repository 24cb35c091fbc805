package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/entities"
)

func newDiffCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two exported directories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(diffFormats, format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", format, diffFormats)
			}

			// Diffing needs no family store.
			archive := handlers.NewArchiveHandler(nil)
			diff, err := archive.HandleDiff(args[0], args[1])
			if err != nil {
				return err
			}
			return formatDiff(cmd.OutOrStdout(), diff, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, markdown)")

	return cmd
}

func formatDiff(w io.Writer, diff *entities.SnapshotDiff, format string) error {
	switch format {
	case "json":
		return writeJSON(w, diff)
	case "markdown":
		return formatDiffMarkdown(w, diff)
	default:
		return formatDiffText(w, diff)
	}
}

func formatDiffText(w io.Writer, diff *entities.SnapshotDiff) error {
	if diff.Empty() {
		_, err := fmt.Fprintln(w, "No differences.")
		return err
	}

	for _, m := range diff.MembersAdded {
		fmt.Fprintf(w, "+ member %d %s (generation %d, %s)\n", m.ID, m.Name, m.Generation, m.Gender)
	}
	for _, m := range diff.MembersRemoved {
		fmt.Fprintf(w, "- member %d %s (generation %d, %s)\n", m.ID, m.Name, m.Generation, m.Gender)
	}
	for _, c := range diff.MembersChanged {
		fmt.Fprintf(w, "~ member %d %s\n", c.ID, c.Name)
		for _, f := range c.Changes {
			fmt.Fprintf(w, "    %s: %q -> %q\n", f.Field, f.Old, f.New)
		}
	}
	for _, r := range diff.RelationshipsAdded {
		fmt.Fprintf(w, "+ relationship %d -> %d %s\n", r.FromID, r.ToID, r.Type)
	}
	for _, r := range diff.RelationshipsRemoved {
		fmt.Fprintf(w, "- relationship %d -> %d %s\n", r.FromID, r.ToID, r.Type)
	}
	return nil
}

func formatDiffMarkdown(w io.Writer, diff *entities.SnapshotDiff) error {
	if _, err := fmt.Fprint(w, "# Family Diff\n\n"); err != nil {
		return err
	}
	if diff.Empty() {
		_, err := fmt.Fprintln(w, "No differences.")
		return err
	}

	fmt.Fprintf(w, "Members: +%d -%d ~%d. Relationships: +%d -%d.\n\n",
		len(diff.MembersAdded), len(diff.MembersRemoved), len(diff.MembersChanged),
		len(diff.RelationshipsAdded), len(diff.RelationshipsRemoved))

	if len(diff.MembersAdded)+len(diff.MembersRemoved)+len(diff.MembersChanged) > 0 {
		fmt.Fprint(w, "## Members\n\n| Change | ID | Name | Details |\n|--------|----|------|---------|\n")
		for _, m := range diff.MembersAdded {
			fmt.Fprintf(w, "| added | %d | %s | generation %d, %s |\n", m.ID, escapeMarkdown(m.Name), m.Generation, m.Gender)
		}
		for _, m := range diff.MembersRemoved {
			fmt.Fprintf(w, "| removed | %d | %s | generation %d, %s |\n", m.ID, escapeMarkdown(m.Name), m.Generation, m.Gender)
		}
		for _, c := range diff.MembersChanged {
			parts := make([]string, 0, len(c.Changes))
			for _, f := range c.Changes {
				parts = append(parts, fmt.Sprintf("%s: %s → %s", f.Field, f.Old, f.New))
			}
			fmt.Fprintf(w, "| changed | %d | %s | %s |\n", c.ID, escapeMarkdown(c.Name), escapeMarkdown(strings.Join(parts, "; ")))
		}
		fmt.Fprintln(w)
	}

	if len(diff.RelationshipsAdded)+len(diff.RelationshipsRemoved) > 0 {
		fmt.Fprint(w, "## Relationships\n\n| Change | From | To | Relation |\n|--------|------|----|----------|\n")
		for _, r := range diff.RelationshipsAdded {
			fmt.Fprintf(w, "| added | %d | %d | %s |\n", r.FromID, r.ToID, r.Type.Description())
		}
		for _, r := range diff.RelationshipsRemoved {
			fmt.Fprintf(w, "| removed | %d | %d | %s |\n", r.FromID, r.ToID, r.Type.Description())
		}
	}
	return nil
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
