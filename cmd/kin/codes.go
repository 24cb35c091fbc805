package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
)

func newCodesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List the relation codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(resultFormats, format) {
				return fmt.Errorf("invalid format %q, valid formats: %v", format, resultFormats)
			}
			return printCodes(cmd.OutOrStdout(), entities.RelationCodeCatalog(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")

	return cmd
}

func printCodes(w io.Writer, codes []entities.RelationCodeInfo, format string) error {
	if format == "json" {
		return writeJSON(w, codes)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tTERM\tENGLISH\tFAMILY\tINPUT")
	for _, c := range codes {
		input := ""
		if c.AcceptsInput {
			input = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.Code, c.Description, c.English, c.Family, input)
	}
	return tw.Flush()
}
