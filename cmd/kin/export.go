package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/infrastructure/parsers"
)

func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export DIR",
		Short: "Export members and base relationships to a directory",
		Long: `Writes members.<format> and relationships.<format> into DIR. Only marriage
and parent-to-child edges are exported; 'kin import' derives the rest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, csv)")

	return cmd
}

func runExport(cmd *cobra.Command, dir, format string) error {
	if !contains(exportFormats, format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", format, exportFormats)
	}

	return withFamily(cmd.Context(), func(d *Deps) error {
		snap, err := d.Family.Archive.HandleExport(cmd.Context())
		if err != nil {
			return fmt.Errorf("exporting family: %w", err)
		}
		if err := writeSnapshot(dir, format, snap); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d members and %d relationships to %s\n",
			len(snap.Members), len(snap.Relationships), dir)
		return nil
	})
}

// writeSnapshot writes the members and relationships files of snap into dir.
func writeSnapshot(dir, format string, snap *entities.Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	membersFn, relsFn := formatMembersJSON, formatRelationshipsJSON
	if format == "csv" {
		membersFn, relsFn = formatMembersCSV, formatRelationshipsCSV
	}

	if err := writeFile(filepath.Join(dir, parsers.MembersFile+"."+format), func(w io.Writer) error {
		return membersFn(w, snap.Members)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, parsers.RelationshipsFile+"."+format), func(w io.Writer) error {
		return relsFn(w, snap.Relationships)
	})
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	if err := fn(f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

type exportMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Generation int    `json:"generation"`
	Gender     string `json:"gender"`
	Remark     string `json:"remark,omitempty"`
}

type exportRelationship struct {
	FromID       int64 `json:"fromId"`
	ToID         int64 `json:"toId"`
	RelationType int   `json:"relationType"`
}

func formatMembersJSON(w io.Writer, members []entities.Member) error {
	out := make([]exportMember, 0, len(members))
	for _, m := range members {
		out = append(out, exportMember{
			ID:         m.ID,
			Name:       m.Name,
			Generation: m.Generation,
			Gender:     m.Gender.String(),
			Remark:     m.Remark,
		})
	}
	return writeJSON(w, out)
}

func formatRelationshipsJSON(w io.Writer, rels []entities.Relationship) error {
	out := make([]exportRelationship, 0, len(rels))
	for _, r := range rels {
		out = append(out, exportRelationship{
			FromID:       r.FromID,
			ToID:         r.ToID,
			RelationType: int(r.Type),
		})
	}
	return writeJSON(w, out)
}

func formatMembersCSV(w io.Writer, members []entities.Member) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(parsers.MemberColumns); err != nil {
		return err
	}
	for _, m := range members {
		row := []string{
			strconv.FormatInt(m.ID, 10),
			m.Name,
			strconv.Itoa(m.Generation),
			m.Gender.String(),
			m.Remark,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatRelationshipsCSV(w io.Writer, rels []entities.Relationship) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(parsers.RelationshipColumns); err != nil {
		return err
	}
	for _, r := range rels {
		row := []string{
			strconv.FormatInt(r.FromID, 10),
			strconv.FormatInt(r.ToID, 10),
			strconv.Itoa(int(r.Type)),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
