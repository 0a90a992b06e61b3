/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/bcsv/pkg/bcsv"
	"github.com/ssargent/bcsv/pkg/textconv"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <in.csv|in.json>",
	Short: "Build a BCSV table from CSV or JSON",
	Long: `Build a BCSV table from CSV or JSON.

Column labels may use either the short name:tag form or the extended
name:mask:shift:TYPE form. Names starting with 0x are read as hashes.
Values that do not parse as their column type are stored as zero.

Examples:
  bcsv import scenario.csv -o scenario.bcsv
  bcsv import scenario.json -o scenario.bcsv --endian little
  bcsv import flags.csv -o flags.bcsv --mask 0xFF`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		maskText, _ := cmd.Flags().GetString("mask")

		opts, err := textOptions(cmd)
		if err != nil {
			return err
		}
		if maskText != "" {
			mask, err := strconv.ParseUint(maskText, 0, 32)
			if err != nil {
				return fmt.Errorf("invalid mask %q: %w", maskText, err)
			}
			opts.Mask = uint32(mask)
		}
		if format == "" {
			format = formatFromPath(args[0])
		}

		if err := importFile(args[0], out, format, opts); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("output", "o", "", "Output BCSV file")
	importCmd.Flags().String("format", "", "Input format: csv or json (default from extension)")
	importCmd.Flags().String("delim", "", "CSV delimiter (default from config)")
	importCmd.Flags().String("mask", "", "Mask applied to every field, decimal or 0x hex")
	_ = importCmd.MarkFlagRequired("output")
}

// importFile parses the text table at in and writes it as BCSV to out.
func importFile(in, out, format string, opts textconv.Options) (err error) {
	c := getContainer()
	start := time.Now()
	defer func() {
		c.Metrics().RecordConversion("import", err, time.Since(start))
	}()

	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("%w: %w", bcsv.ErrInvalidPath, err)
	}
	defer f.Close()

	var table *bcsv.Table
	switch strings.ToLower(format) {
	case formatCSV:
		table, err = textconv.ImportCSV(f, opts)
	case formatJSON:
		table, err = textconv.ImportJSON(f, opts)
	default:
		err = fmt.Errorf("unknown format %q: expected csv or json", format)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", in, err)
	}

	if err := c.Codec().WriteFile(out, table); err != nil {
		return err
	}

	c.Logger().Sugar().Infow("imported table",
		"input", in,
		"output", out,
		"rows", table.EntryCount(),
		"fields", len(table.Fields()),
	)
	return nil
}
