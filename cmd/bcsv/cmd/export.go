/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/bcsv/pkg/bcsv"
	"github.com/ssargent/bcsv/pkg/textconv"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <in.bcsv>",
	Short: "Export a BCSV table as CSV or JSON",
	Long: `Export a BCSV table as CSV or JSON.

The first CSV line labels every column as name:tag, or as
name:mask:shift:TYPE with --extended. Columns without a known name are
labelled with their hash in hex.

Examples:
  bcsv export scenario.bcsv
  bcsv export scenario.bcsv -o scenario.csv --hashes names.txt
  bcsv export scenario.bcsv --format json --signed`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		extended, _ := cmd.Flags().GetBool("extended")

		opts, err := textOptions(cmd)
		if err != nil {
			return err
		}
		opts.Extended = extended

		if out == "" {
			table, err := getContainer().Codec().ReadFile(args[0])
			if err != nil {
				return err
			}
			return writeText(cmd.OutOrStdout(), table, format, opts)
		}
		return exportFile(args[0], out, format, opts)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output file (default is stdout)")
	exportCmd.Flags().String("format", formatCSV, "Output format: csv or json")
	exportCmd.Flags().String("delim", "", "CSV delimiter (default from config)")
	exportCmd.Flags().Bool("signed", false, "Render SHORT and CHAR columns as signed")
	exportCmd.Flags().Bool("extended", false, "Write name:mask:shift:TYPE column labels")
}

// exportFile converts the table at in and writes it to out.
func exportFile(in, out, format string, opts textconv.Options) (err error) {
	c := getContainer()
	start := time.Now()
	defer func() {
		c.Metrics().RecordConversion("export", err, time.Since(start))
	}()

	table, err := c.Codec().ReadFile(in)
	if err != nil {
		return err
	}

	// Write beside out and rename so a failed export leaves nothing behind.
	tmp, err := os.CreateTemp(filepath.Dir(out), "."+filepath.Base(out)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", bcsv.ErrInvalidPath, err)
	}
	defer os.Remove(tmp.Name())

	if err := writeText(tmp, table, format, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", out, err)
	}

	c.Logger().Sugar().Infow("exported table",
		"input", in,
		"output", out,
		"rows", table.EntryCount(),
		"fields", len(table.Fields()),
	)
	return nil
}

func writeText(w io.Writer, table *bcsv.Table, format string, opts textconv.Options) error {
	switch strings.ToLower(format) {
	case formatCSV:
		return textconv.ExportCSV(w, table, opts)
	case formatJSON:
		return textconv.ExportJSON(w, table, opts)
	}
	return fmt.Errorf("unknown format %q: expected csv or json", format)
}

// formatFromPath picks json for .json files and csv for everything else.
func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return formatJSON
	}
	return formatCSV
}
