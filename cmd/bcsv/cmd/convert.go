/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/bcsv/pkg/textconv"
)

// binaryExtensions are the file extensions BCSV tables are shipped with.
var binaryExtensions = map[string]bool{
	".bcsv":  true,
	".tbl":   true,
	".banmt": true,
	".pa":    true,
}

// conversion is one planned file conversion.
type conversion struct {
	in, out string
	export  bool
}

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <files...>",
	Short: "Convert many files between BCSV and CSV",
	Long: `Convert many files between BCSV and CSV in parallel.

The direction is chosen per file: .bcsv, .tbl, .banmt and .pa files are
exported to CSV, .csv and .json files are imported to BCSV. Output files
keep the input's base name and are written next to the input unless
--out-dir is given.

Examples:
  bcsv convert data/*.bcsv --out-dir csv/
  bcsv convert csv/*.csv --out-dir data/ --jobs 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, _ := cmd.Flags().GetInt("jobs")
		outDir, _ := cmd.Flags().GetString("out-dir")
		if !cmd.Flags().Changed("jobs") {
			jobs = getContainer().Config().Jobs
		}

		plan, err := planConversions(args, outDir)
		if err != nil {
			return err
		}
		opts, err := textOptions(cmd)
		if err != nil {
			return err
		}

		if err := runConversions(cmd.Context(), plan, jobs, opts); err != nil {
			return err
		}
		cmd.Printf("Converted %d files\n", len(plan))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().IntP("jobs", "j", 0, "Number of parallel conversions (default from config)")
	convertCmd.Flags().String("out-dir", "", "Directory for output files (default is next to each input)")
	convertCmd.Flags().String("delim", "", "CSV delimiter (default from config)")
	convertCmd.Flags().Bool("signed", false, "Render SHORT and CHAR columns as signed")
}

// planConversions decides the direction and output path of every input.
func planConversions(inputs []string, outDir string) ([]conversion, error) {
	plan := make([]conversion, 0, len(inputs))
	for _, in := range inputs {
		ext := strings.ToLower(filepath.Ext(in))
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		dir := filepath.Dir(in)
		if outDir != "" {
			dir = outDir
		}

		switch {
		case binaryExtensions[ext]:
			plan = append(plan, conversion{in: in, out: filepath.Join(dir, base+".csv"), export: true})
		case ext == ".csv" || ext == ".json":
			plan = append(plan, conversion{in: in, out: filepath.Join(dir, base+".bcsv")})
		default:
			return nil, fmt.Errorf("cannot convert %s: unknown extension %q", in, ext)
		}
	}
	return plan, nil
}

// runConversions runs plan with at most jobs conversions at once. The
// first failure cancels conversions that have not started yet.
func runConversions(ctx context.Context, plan []conversion, jobs int, opts textconv.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs < 1 {
		jobs = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, conv := range plan {
		conv := conv
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if conv.export {
				return exportFile(conv.in, conv.out, formatCSV, opts)
			}
			return importFile(conv.in, conv.out, formatFromPath(conv.in), opts)
		})
	}
	return g.Wait()
}
