/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bcsv/pkg/config"
	"github.com/ssargent/bcsv/pkg/di"
	"github.com/ssargent/bcsv/pkg/textconv"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

func getContainer() *di.Container {
	if container == nil {
		container = di.NewContainer()
	}
	return container
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bcsv",
	Short: "bcsv - BCSV table toolkit",
	Long: `bcsv reads and writes BCSV binary tables, the hashed-column
table format used by game data archives, and converts them to and from
CSV and JSON.

Field names are stored as hashes; pass a name list with --hashes to see
readable column names.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return getContainer().Configure(cfg)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return getContainer().Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ~/.config/bcsv/config.yaml)")
	rootCmd.PersistentFlags().String("endian", "", "Byte order: big, little or native")
	rootCmd.PersistentFlags().String("rank", "", "Column rank table: classic or alternate")
	rootCmd.PersistentFlags().String("encoding", "", "String table encoding: shift-jis or utf-8")
	rootCmd.PersistentFlags().String("hashes", "", "File with one field name per line")
	rootCmd.PersistentFlags().Bool("legacy-hash", false, "Hash field names with the older hash function")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file on exit")
}

// loadConfig reads the config file and applies any persistent flags that
// were set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cfg := config.DefaultConfig()
	path, _ := flags.GetString("config")
	switch {
	case path != "":
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case config.ConfigExists(config.GetDefaultConfigPath()):
		loaded, err := config.LoadConfig(config.GetDefaultConfigPath())
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := map[string]*string{
		"endian":       &cfg.Endian,
		"rank":         &cfg.Rank,
		"encoding":     &cfg.Encoding,
		"hashes":       &cfg.HashFile,
		"log-level":    &cfg.Logging.Level,
		"metrics-file": &cfg.MetricsFile,
	}
	for name, dst := range overrides {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("legacy-hash") {
		cfg.LegacyHash, _ = flags.GetBool("legacy-hash")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// textOptions builds conversion options from the active configuration and
// the command's --delim and --signed flags.
func textOptions(cmd *cobra.Command) (textconv.Options, error) {
	c := getContainer()
	cfg := c.Config()
	opts := textconv.Options{
		Delimiter: cfg.DelimiterRune(),
		Signed:    cfg.Signed,
		Names:     c.Names(),
		Logger:    c.Logger(),
	}

	flags := cmd.Flags()
	if flags.Lookup("delim") != nil && flags.Changed("delim") {
		delim, _ := flags.GetString("delim")
		check := *cfg
		check.Delimiter = delim
		if err := check.Validate(); err != nil {
			return opts, err
		}
		opts.Delimiter = check.DelimiterRune()
	}
	if flags.Lookup("signed") != nil && flags.Changed("signed") {
		opts.Signed, _ = flags.GetBool("signed")
	}
	return opts, nil
}
