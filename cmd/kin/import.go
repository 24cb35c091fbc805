package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/application/handlers"
)

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Rebuild the family graph from an exported directory",
		Long: `Reads members and relationships from DIR (JSON or CSV, as written by
'kin export'), clears the family graph and replays every relationship so
derived edges are recomputed. The audit log is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFamily(cmd.Context(), func(d *Deps) error {
				result, err := d.Family.Archive.HandleImport(cmd.Context(), args[0], handlers.ImportOptions{DryRun: dryRun})
				if err != nil {
					return err
				}
				printImportResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the files without touching the family graph")

	return cmd
}

func printImportResult(w io.Writer, result *handlers.ImportResult) {
	if result.DryRun {
		fmt.Fprintf(w, "Dry run: %d members and %d relationships are valid\n", result.Members, result.Relationships)
		return
	}

	r := result.Rebuild
	fmt.Fprintf(w, "Imported %d members\n", r.Members)
	fmt.Fprintf(w, "Replayed %d relationships: %d succeeded, %d failed\n", result.Relationships, r.Succeeded, r.Failed)
	if r.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, "Removed %d duplicate rows\n", r.DuplicatesRemoved)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}
