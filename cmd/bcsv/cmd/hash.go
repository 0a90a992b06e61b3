/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/bcsv/pkg/hash"
)

// hashCmd represents the hash command
var hashCmd = &cobra.Command{
	Use:   "hash <names...>",
	Short: "Print the field hash of names",
	Long: `Print the field hash of each name in hex and decimal.

Example:
  bcsv hash ScenarioNo ZoneName
  bcsv hash ScenarioNo --legacy`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		legacy, _ := cmd.Flags().GetBool("legacy")
		fn := hash.Calc
		if legacy || getContainer().Config().LegacyHash {
			fn = hash.CalcOld
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range args {
			h := fn(name)
			fmt.Fprintf(w, "%s\t%s\t%d\n", name, hash.Hex(h), h)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)

	hashCmd.Flags().Bool("legacy", false, "Use the older hash function")
}
