/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/bcsv/pkg/bcsv"
	"github.com/ssargent/bcsv/pkg/hash"
)

// tableInfo is the JSON form of the info command's output.
type tableInfo struct {
	Path              string      `json:"path"`
	EntryCount        uint32      `json:"entry_count"`
	FieldCount        uint32      `json:"field_count"`
	EntryDataOffset   uint32      `json:"entry_data_offset"`
	EntrySize         uint32      `json:"entry_size"`
	StringTableOffset int64       `json:"string_table_offset"`
	Fields            []fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Name       string `json:"name"`
	Hash       string `json:"hash"`
	Type       string `json:"type"`
	Tag        uint8  `json:"tag"`
	Mask       string `json:"mask"`
	Shift      uint8  `json:"shift"`
	DataOffset uint16 `json:"data_offset"`
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <in.bcsv>",
	Short: "Show the header and fields of a BCSV table",
	Long: `Show the header and field descriptors of a BCSV table.

Fields are listed in the order they are declared in the file.

Examples:
  bcsv info scenario.bcsv
  bcsv info scenario.bcsv --format json --hashes names.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		c := getContainer()
		table, err := c.Codec().ReadFile(args[0])
		if err != nil {
			return err
		}

		info := describe(args[0], table, c.Names())
		switch format {
		case "table":
			return outputInfoTable(cmd.OutOrStdout(), info)
		case formatJSON:
			return outputInfoJSON(cmd.OutOrStdout(), info)
		}
		return fmt.Errorf("unknown format %q: expected table or json", format)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().String("format", "table", "Output format: table or json")
}

func describe(path string, table *bcsv.Table, names *hash.Table) tableInfo {
	h := table.Header()
	info := tableInfo{
		Path:              path,
		EntryCount:        h.EntryCount,
		FieldCount:        h.FieldCount,
		EntryDataOffset:   h.EntryDataOffset,
		EntrySize:         h.EntrySize,
		StringTableOffset: h.StringTableOffset(),
	}
	for _, f := range table.Fields() {
		info.Fields = append(info.Fields, fieldInfo{
			Name:       f.Name(names),
			Hash:       hash.Hex(f.Hash),
			Type:       f.Type().String(),
			Tag:        f.Tag,
			Mask:       fmt.Sprintf("0x%08X", f.Mask),
			Shift:      f.Shift,
			DataOffset: f.DataOffset,
		})
	}
	return info
}

// outputInfoTable displays the table info in table format
func outputInfoTable(out io.Writer, info tableInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "File:\t%s\n", info.Path)
	fmt.Fprintf(w, "Entries:\t%d\n", info.EntryCount)
	fmt.Fprintf(w, "Fields:\t%d\n", info.FieldCount)
	fmt.Fprintf(w, "Entry data offset:\t%d\n", info.EntryDataOffset)
	fmt.Fprintf(w, "Entry size:\t%d\n", info.EntrySize)
	fmt.Fprintf(w, "String table offset:\t%d\n", info.StringTableOffset)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(info.Fields) == 0 {
		return nil
	}
	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHASH\tTYPE\tMASK\tSHIFT\tOFFSET")
	for _, f := range info.Fields {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", f.Name, f.Hash, f.Type, f.Mask, f.Shift, f.DataOffset)
	}
	return w.Flush()
}

// outputInfoJSON displays the table info in JSON format
func outputInfoJSON(out io.Writer, info tableInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal info: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
