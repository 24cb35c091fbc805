package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
)

func newKinshipCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "kinship A B",
		Short: "Describe how B is related to A",
		Long: `Resolves the kinship term for B from A's point of view and shows the
path that connects them.

Examples:
  kin kinship 1 7
  kin kinship "Luo Ming" 李梅 --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(resultFormats, format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", format, resultFormats)
			}
			ctx := cmd.Context()
			return withFamily(ctx, func(d *Deps) error {
				a, err := d.Family.Members.HandleResolve(ctx, args[0])
				if err != nil {
					return err
				}
				b, err := d.Family.Members.HandleResolve(ctx, args[1])
				if err != nil {
					return err
				}
				result, err := d.Family.Kinship.HandleKinship(ctx, a.ID, b.ID)
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				printKinship(cmd.OutOrStdout(), a, b, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func printKinship(w io.Writer, a, b *entities.Member, r *entities.KinshipResult) {
	fmt.Fprintf(w, "%s -> %s: %s\n", a.Name, b.Name, r.Description)
	if !r.Related || len(r.PathEdges) == 0 {
		return
	}
	if r.Coarse != "" && r.Coarse != r.Description {
		fmt.Fprintf(w, "  broadly: %s\n", r.Coarse)
	}

	names := make(map[int64]string, len(r.PathNodes))
	for _, n := range r.PathNodes {
		names[n.ID] = n.Name
	}
	steps := make([]string, 0, len(r.PathEdges))
	for _, e := range r.PathEdges {
		steps = append(steps, fmt.Sprintf("%s -[%s]-> %s", names[e.FromID], e.Description, names[e.ToID]))
	}
	fmt.Fprintf(w, "  path: %s\n", strings.Join(steps, ", "))

	if r.CommonAncestorID != nil {
		fmt.Fprintf(w, "  common ancestor: %s (%d shared)\n", names[*r.CommonAncestorID], r.CommonAncestorCount)
	}
	if r.Coefficient > 0 {
		fmt.Fprintf(w, "  kinship coefficient: %.4f\n", r.Coefficient)
	}
}

func newNetworkCmd() *cobra.Command {
	var (
		generations int
		format      string
	)

	cmd := &cobra.Command{
		Use:   "network MEMBER",
		Short: "Show the kinship network around a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(resultFormats, format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", format, resultFormats)
			}
			ctx := cmd.Context()
			return withFamily(ctx, func(d *Deps) error {
				center, err := d.Family.Members.HandleResolve(ctx, args[0])
				if err != nil {
					return err
				}
				network, err := d.Family.Kinship.HandleNetwork(ctx, center.ID, generations)
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(cmd.OutOrStdout(), network)
				}
				printNetwork(cmd.OutOrStdout(), network)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&generations, "generations", "g", entities.DefaultNetworkGenerations,
		fmt.Sprintf("Blood hops to expand (%d-%d)", entities.MinNetworkGenerations, entities.MaxNetworkGenerations))
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func printNetwork(w io.Writer, n *entities.Network) {
	names := make(map[int64]string, len(n.Nodes))
	for _, node := range n.Nodes {
		names[node.ID] = node.Name
	}

	fmt.Fprintf(w, "Network around %s (%d generations): %d members, %d ties",
		names[n.CenterID], n.Generations, len(n.Nodes), len(n.Edges))
	if n.HiddenCount > 0 {
		fmt.Fprintf(w, ", %d merged", n.HiddenCount)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\n%-6s %-20s %-10s %s\n", "LEVEL", "NAME", "GENERATION", "GENDER")
	for _, node := range n.Nodes {
		fmt.Fprintf(w, "%-6d %-20s %-10d %s\n", node.Level, node.Name, node.Generation, node.Gender)
	}

	fmt.Fprintln(w)
	for _, e := range n.Edges {
		fmt.Fprintf(w, "%s - %s: %s [%s]\n", names[e.FromID], names[e.ToID], e.Description, e.EdgeType)
	}
}
