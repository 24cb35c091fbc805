package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

func newFamiliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "families",
		Short: "Manage family graphs",
		RunE:  runFamiliesList,
	}

	cmd.AddCommand(
		newFamiliesListCmd(),
		newFamiliesCreateCmd(),
		newFamiliesDeleteCmd(),
	)

	return cmd
}

func newFamiliesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all family graphs",
		Args:  cobra.NoArgs,
		RunE:  runFamiliesList,
	}
}

func runFamiliesList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	families, err := config.LoadFamilies(cwd)
	if err != nil {
		return fmt.Errorf("loading families: %w", err)
	}
	return printFamilies(cmd.OutOrStdout(), families)
}

func printFamilies(w io.Writer, families *config.FamiliesConfig) error {
	names := families.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, "No families configured.")
		fmt.Fprintln(w, "Use 'kin families create NAME' to create one.")
		return nil
	}

	fmt.Fprintf(w, "%-20s %s\n", "NAME", "DESCRIPTION")
	fmt.Fprintf(w, "%-20s %s\n", "----", "-----------")
	for _, name := range names {
		fmt.Fprintf(w, "%-20s %s\n", name, families.Families[name].Description)
	}
	return nil
}

func newFamiliesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new family graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFamiliesCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Family description")

	return cmd
}

func runFamiliesCreate(cmd *cobra.Command, name, description string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	path, err := handlers.NewInitHandler(openStore).HandleCreateFamily(cmd.Context(), cwd, name, description)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created family %q at %s\n", name, path)
	return nil
}

func newFamiliesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a family graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFamiliesDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete even if the family has members")

	return cmd
}

func runFamiliesDelete(cmd *cobra.Command, name string, force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if !force {
		err := withFamilyAt(cmd.Context(), cwd, name, func(d *Deps) error {
			stats, err := d.Family.Members.HandleStats(cmd.Context())
			if err != nil {
				return err
			}
			if stats.Members > 0 {
				return fmt.Errorf("family %q has %d members, use --force to delete", name, stats.Members)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := handlers.NewInitHandler(openStore).HandleDeleteFamily(cwd, name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted family %q\n", name)
	return nil
}
