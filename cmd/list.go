package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

const defaultListLimit = 14

func newListCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent cached puzzle records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			app, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			records, err := app.Store.ListRecent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			renderRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultListLimit, "number of days to show")
	return cmd
}

// renderRecords prints records as a table, one row per day.
func renderRecords(w io.Writer, records []*puzzle.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Date", "Provenance", "Valid", "Themes", "Scraped At", "Note"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Date,
			rec.Provenance,
			rec.Validate() == nil,
			themes(rec),
			formatScrapedAt(rec.ScrapedAt),
			rec.Note,
		})
	}
	t.AppendFooter(table.Row{"Total", len(records)})

	t.Render()
}

func themes(rec *puzzle.Record) string {
	names := make([]string, 0, len(rec.Groups))
	for _, g := range rec.Groups {
		names = append(names, g.Theme)
	}
	return strings.Join(names, " / ")
}

func formatScrapedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
