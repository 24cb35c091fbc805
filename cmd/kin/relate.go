package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
)

func newRelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relate FROM CODE TO",
		Short: "Record that TO is the CODE of FROM",
		Long: `Records a relationship and derives every edge it implies.

FROM and TO are member ids or names. CODE is a numeric relation code, its
English name or its Chinese term; run 'kin codes' for the list. Only
marriage (1-2), child (5-10) and cousin (15-18) codes are accepted; the
rest are derived.

Examples:
  kin relate 1 wife 2
  kin relate "Luo Cheng" 5 "Luo Ming"
  kin relate 罗成 长子 罗小明`,
		Args: cobra.ExactArgs(3),
		RunE: runRelate,
	}
}

func runRelate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	code, err := entities.ParseRelationCode(args[1])
	if err != nil {
		return err
	}

	return withFamily(ctx, func(d *Deps) error {
		from, err := d.Family.Members.HandleResolve(ctx, args[0])
		if err != nil {
			return err
		}
		to, err := d.Family.Members.HandleResolve(ctx, args[2])
		if err != nil {
			return err
		}

		result, err := d.Family.Relationships.HandleAssert(ctx, from.ID, to.ID, code)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if result.Created {
			fmt.Fprintf(out, "Recorded: %s is the %s (%s) of %s\n", to.Name, code.Description(), code.English(), from.Name)
		} else {
			fmt.Fprintf(out, "Already recorded: %s is the %s (%s) of %s\n", to.Name, code.Description(), code.English(), from.Name)
		}
		fmt.Fprintf(out, "  %d derived edges written, %d duplicates removed\n", result.Derived, result.DuplicatesRemoved)
		return nil
	})
}
