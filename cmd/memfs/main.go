package main

import (
	"fmt"
	"os"

	"github.com/diskfs/go-memfs"
	"github.com/diskfs/go-memfs/config"
	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootConfigFile string
	rootLogLevel   string
	rootLogFormat  string

	cfg *config.Config
	log *logrus.Entry
)

var rootCmd = &cobra.Command{
	Use:   "memfs",
	Short: "memfs: a small filesystem kept in memory and saved as two images",
	Long: `memfs keeps a whole filesystem in memory and writes it out after every change
as two images in a directory: file_structure.bin holding the directory tree and
super.bin holding the bitmaps and the data blocks.

Settings come from --config (or $MEMFS_CONFIG_FILE), then MEMFS_* environment
variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(rootConfigFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = rootLogLevel
		}
		if cmd.Flags().Changed("log-format") {
			c.Log.Format = rootLogFormat
		}
		logger, err := c.Logger(os.Stderr)
		if err != nil {
			return err
		}
		cfg = c
		log = logrus.NewEntry(logger)
		return nil
	},
}

// params returns the engine parameters from the configuration, logging through the CLI logger
func params() (*treefs.Params, error) {
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	p.Logger = log
	return p, nil
}

// readVolume opens an existing filesystem, never creating one
func readVolume(dir string) (*memfs.Volume, error) {
	p, err := params()
	if err != nil {
		return nil, err
	}
	vol, err := memfs.Read(dir, p)
	if err != nil {
		return nil, fmt.Errorf("could not open filesystem in %s: %w", dir, err)
	}
	return vol, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "text", "log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
