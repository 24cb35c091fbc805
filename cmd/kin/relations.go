package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
)

type relationsFlags struct {
	direction string
	format    string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations MEMBER",
		Short: "List relationships of a member",
		Long: `Shows the stored relationships of a member, both asserted and derived.

Examples:
  kin relations 1
  kin relations "Luo Cheng" --direction involving
  kin relations 3 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.direction, "direction", "from", "Edges to list: from (outgoing) or involving (both ends)")
	cmd.Flags().StringVar(&flags.format, "format", "tree", "Output format: tree, list, json")

	return cmd
}

func runRelations(cmd *cobra.Command, ref string, flags relationsFlags) error {
	ctx := cmd.Context()

	if flags.direction != "from" && flags.direction != "involving" {
		return fmt.Errorf("invalid direction: %s (valid: from, involving)", flags.direction)
	}
	if !contains(relationsFormats, flags.format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", flags.format, strings.Join(relationsFormats, ", "))
	}

	return withFamily(ctx, func(d *Deps) error {
		member, err := d.Family.Members.HandleResolve(ctx, ref)
		if err != nil {
			return err
		}

		views, err := d.Family.Relationships.HandleList(ctx, services.RelationshipFilter{
			MemberID: member.ID,
			Outgoing: flags.direction == "from",
		})
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}

		out := cmd.OutOrStdout()
		if flags.format == "json" {
			if views == nil {
				views = []services.RelationshipView{}
			}
			return writeJSON(out, views)
		}
		if len(views) == 0 {
			fmt.Fprintf(out, "No relationships found for member: %s\n", member.Name)
			return nil
		}
		if flags.format == "list" {
			printRelationsList(out, views)
			return nil
		}
		printRelationsTree(out, member, views)
		return nil
	})
}

func printRelationsList(w io.Writer, views []services.RelationshipView) {
	fmt.Fprintf(w, "%-6s %-20s %-12s %s\n", "ID", "FROM", "RELATION", "TO")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, v := range views {
		fmt.Fprintf(w, "%-6d %-20s %-12s %s\n", v.ID, v.FromName, v.Description, v.ToName)
	}
}

// printRelationsTree prints one branch per edge, phrased from the member's
// side: "-> 妻子 李梅" for outgoing edges, "<- 丈夫 of 李梅" for incoming.
func printRelationsTree(w io.Writer, member *entities.Member, views []services.RelationshipView) {
	fmt.Fprintf(w, "%s (%d)\n", member.Name, member.ID)

	for i, v := range views {
		prefix := "+-"
		if i == len(views)-1 {
			prefix = "\\-"
		}
		if v.FromID == member.ID {
			fmt.Fprintf(w, "%s -> %s %s (%d)\n", prefix, v.Description, v.ToName, v.ToID)
		} else {
			fmt.Fprintf(w, "%s <- %s of %s (%d)\n", prefix, v.Description, v.FromName, v.FromID)
		}
	}
}
