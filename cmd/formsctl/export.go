package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"properforms/internal/domain/export"
)

func (c *cli) exportCmd() *cobra.Command {
	var (
		formID   int64
		out      string
		dryRun   bool
		maxPages int
	)
	cmd := &cobra.Command{
		Use:   "export-csv",
		Short: "Write a form's submissions as CSV",
		Long: `Export every submission of a form, oldest first, as a UTF-8 CSV with a
byte order mark. Columns are the union of field labels over all rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if formID <= 0 {
				return fmt.Errorf("--form is required")
			}
			rows, err := c.app.Export.Collect(cmd.Context(), formID, c.app.Config.ExportPageSize, maxPages)
			if err != nil {
				return fmt.Errorf("collect submissions: %w", err)
			}
			cols, table := export.NormalizeColumns(rows)

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "form %d: %d rows\ncolumns: %s\n", formID, len(table), strings.Join(cols, ", "))
				return nil
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := export.WriteCSV(w, cols, table); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			if w != cmd.OutOrStdout() {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(table), out)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&formID, "form", 0, "form id to export")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report row and column counts without writing CSV")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 reads all)")
	return cmd
}
