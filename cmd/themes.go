package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/cath/internal/presentation"
)

func newThemesCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List available themes",
		Long: `List the themes cath can color with. The configured theme is marked
with "*". Chroma styles appear as "chroma:<name>" unless chroma_themes is off.

Examples:
  cath themes
  cath themes --json | jq -r '.[] | select(.dark) | .name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := o.setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			set, err := e.loadThemes(cmd.Context())
			if err != nil {
				return err
			}
			dtos := presentation.FromThemeSet(set, e.cfg.Theme)
			formatter := presentation.NewFormatter(cmd.OutOrStdout())
			if asJSON {
				return formatter.FormatJSON(dtos)
			}
			return formatter.FormatThemes(dtos)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
