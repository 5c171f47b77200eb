package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/acquirer"
)

// acquireOutput is the printed form of an acquisition result.
type acquireOutput struct {
	acquirer.Result
	Error string `json:"error,omitempty"`
}

func newAcquireCommand(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Fetch, parse and store the puzzle for a date",
		Long: `Fetch the answer article for the date (default today in the configured
timezone), parse it and write the record to the cache. A fetch or parse
failure writes a backup record unless the day already holds one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			day, err := app.ParseDate(date)
			if err != nil {
				return err
			}

			res := app.Acquirer.Acquire(cmd.Context(), day)
			out := acquireOutput{Result: res}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}

			if res.Reason == acquirer.ReasonStoreFailure || res.Reason == acquirer.ReasonInvalidDate {
				return fmt.Errorf("acquire %s: %s", day, res.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "puzzle date as YYYY-MM-DD (default today)")
	return cmd
}
