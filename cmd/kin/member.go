package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/entities"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "member",
		Aliases: []string{"members"},
		Short:   "Manage family members",
	}

	cmd.AddCommand(
		newMemberAddCmd(),
		newMemberListCmd(),
		newMemberShowCmd(),
		newMemberUpdateCmd(),
		newMemberDeleteCmd(),
		newMemberSearchCmd(),
	)

	return cmd
}

type memberAddFlags struct {
	generation int
	gender     string
	remark     string
}

func newMemberAddCmd() *cobra.Command {
	var flags memberAddFlags

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a member",
		Long: `Adds a member to the family graph. Generation is the member's depth in
the family tree and must be consistent with the relationships recorded later.

Examples:
  kin member add "Luo Cheng" --generation 1 --gender male
  kin member add 李梅 -g 1 --gender 女 --remark "married in"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gender, err := entities.ParseGender(flags.gender)
			if err != nil {
				return err
			}
			return withFamily(cmd.Context(), func(d *Deps) error {
				m, err := d.Family.Members.HandleCreate(cmd.Context(), handlers.MemberInput{
					Name:       args[0],
					Generation: flags.generation,
					Gender:     gender,
					Remark:     flags.remark,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added member %d: %s\n", m.ID, m.Name)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&flags.generation, "generation", "g", 0, "Generation number (required)")
	cmd.Flags().StringVar(&flags.gender, "gender", "", "Gender: male or female (required)")
	cmd.Flags().StringVar(&flags.remark, "remark", "", "Free-form remark")
	_ = cmd.MarkFlagRequired("generation")
	_ = cmd.MarkFlagRequired("gender")

	return cmd
}

func newMemberListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(resultFormats, format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", format, resultFormats)
			}
			return withFamily(cmd.Context(), func(d *Deps) error {
				members, err := d.Family.Members.HandleList(cmd.Context())
				if err != nil {
					return err
				}
				return printMembers(cmd.OutOrStdout(), members, format)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func newMemberShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show MEMBER",
		Short: "Show one member by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFamily(cmd.Context(), func(d *Deps) error {
				m, err := d.Family.Members.HandleResolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printMember(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}
}

type memberUpdateFlags struct {
	name   string
	gender string
	remark string
}

func newMemberUpdateCmd() *cobra.Command {
	var flags memberUpdateFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a member's name, gender or remark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var update entities.MemberUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &flags.name
			}
			if cmd.Flags().Changed("gender") {
				g, err := entities.ParseGender(flags.gender)
				if err != nil {
					return err
				}
				update.Gender = &g
			}
			if cmd.Flags().Changed("remark") {
				update.Remark = &flags.remark
			}
			if update.Name == nil && update.Gender == nil && update.Remark == nil {
				return fmt.Errorf("nothing to update: set --name, --gender or --remark")
			}

			return withFamily(cmd.Context(), func(d *Deps) error {
				m, err := d.Family.Members.HandleUpdate(cmd.Context(), id, update)
				if err != nil {
					return err
				}
				printMember(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "New name")
	cmd.Flags().StringVar(&flags.gender, "gender", "", "New gender")
	cmd.Flags().StringVar(&flags.remark, "remark", "", "New remark")

	return cmd
}

func newMemberDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a member and every relationship involving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withFamily(cmd.Context(), func(d *Deps) error {
				removed, err := d.Family.Members.HandleDelete(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted member %d (%d relationships removed)\n", id, removed)
				return nil
			})
		},
	}
}

func newMemberSearchCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find members whose name contains QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(resultFormats, format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", format, resultFormats)
			}
			return withFamily(cmd.Context(), func(d *Deps) error {
				members, err := d.Family.Members.HandleSearch(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				return printMembers(cmd.OutOrStdout(), members, format)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid member id %q", s)
	}
	return id, nil
}

func printMembers(w io.Writer, members []entities.Member, format string) error {
	if format == "json" {
		if members == nil {
			members = []entities.Member{}
		}
		return writeJSON(w, members)
	}

	if len(members) == 0 {
		fmt.Fprintln(w, "No members found.")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-20s %-10s %-8s %s\n", "ID", "NAME", "GENERATION", "GENDER", "REMARK")
	for _, m := range members {
		fmt.Fprintf(w, "%-6d %-20s %-10d %-8s %s\n", m.ID, m.Name, m.Generation, m.Gender, m.Remark)
	}
	return nil
}

func printMember(w io.Writer, m *entities.Member) {
	fmt.Fprintf(w, "ID:         %d\n", m.ID)
	fmt.Fprintf(w, "Name:       %s\n", m.Name)
	fmt.Fprintf(w, "Generation: %d\n", m.Generation)
	fmt.Fprintf(w, "Gender:     %s\n", m.Gender)
	if m.Remark != "" {
		fmt.Fprintf(w, "Remark:     %s\n", m.Remark)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
