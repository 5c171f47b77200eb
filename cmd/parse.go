package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/parser"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

func newParseCommand() *cobra.Command {
	var (
		file   string
		date   string
		anchor string
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a saved answer article without touching the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			day, err := puzzle.ParseDate(date)
			if err != nil {
				return err
			}

			html, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			p := parser.New(parser.WithAnchorPhrase(anchor))
			rec, err := p.Parse(string(html), day)
			if err != nil {
				return fmt.Errorf("%s: %w", parser.Kind(err), err)
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the saved article HTML")
	cmd.Flags().StringVar(&date, "date", puzzle.DateOf(time.Now()).String(), "date to stamp on the record")
	cmd.Flags().StringVar(&anchor, "anchor", parser.DefaultAnchorPhrase, "phrase that introduces the answers")
	return cmd
}
