package cmd

import (
	"github.com/spf13/cobra"
)

func newResolveCommand(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the freshest servable puzzle as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			today, err := app.ParseDate(date)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), app.Resolver.Resolve(cmd.Context(), today))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to resolve for as YYYY-MM-DD (default today)")
	return cmd
}
