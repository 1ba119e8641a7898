package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/cath/internal/presentation"
)

func newGrammarsCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "grammars",
		Short: "List available grammars",
		Long: `List the grammars cath can highlight with, including user grammars.

Examples:
  cath grammars
  cath grammars --json | jq '.[].name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			set, err := e.loadGrammars(cmd.Context())
			if err != nil {
				return err
			}
			dtos := presentation.FromGrammarSet(set)
			formatter := presentation.NewFormatter(cmd.OutOrStdout())
			if asJSON {
				return formatter.FormatJSON(dtos)
			}
			return formatter.FormatGrammars(dtos)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
