/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bcsv/pkg/bcsv"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <in.bcsv...>",
	Short: "Check that tables are rewritten byte for byte",
	Long: `Read each table, write it back in memory and compare the bytes.

A mismatch usually means the file was built with the other rank table or
byte order; try --rank alternate or --endian little.

Examples:
  bcsv verify data/*.bcsv
  bcsv verify scenario.bcsv --rank alternate`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codec := getContainer().Codec()

		failed := 0
		for _, path := range args {
			offset, err := verifyFile(codec, path)
			switch {
			case err != nil:
				failed++
				cmd.Printf("FAIL %s: %v\n", path, err)
			case offset >= 0:
				failed++
				cmd.Printf("DIFF %s: first difference at offset %d\n", path, offset)
			default:
				cmd.Printf("OK   %s\n", path)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files did not round trip", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// verifyFile returns the offset of the first byte that differs after a
// read and write, or -1 when the file round trips exactly.
func verifyFile(codec *bcsv.Codec, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", bcsv.ErrInvalidPath, err)
	}
	table, err := codec.Decode(data)
	if err != nil {
		return 0, err
	}
	rewritten, err := codec.Encode(table)
	if err != nil {
		return 0, err
	}
	return firstDifference(data, rewritten), nil
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
