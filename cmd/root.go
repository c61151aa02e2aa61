// =============================================================================
// Trader Config Editor - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tradercfg)
//   ├── showCmd      (tradercfg show)
//   ├── applyCmd     (tradercfg apply)
//   ├── adjustCmd    (tradercfg adjust)
//   ├── editCmd      (tradercfg edit)
//   ├── validateCmd  (tradercfg validate)
//   ├── gridCmd      (tradercfg grid export|import)
//   ├── processCmd   (tradercfg process)
//   ├── serveCmd     (tradercfg serve)
//   └── versionCmd   (tradercfg version)
//
// CONFIGURATION:
//   Before any command runs, the main configuration is loaded (see
//   internal/config) and the logger is built from it.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/config"
	"github.com/ginjaninja78/trader-config-editor/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig is the loaded main configuration.
var appConfig *config.MainConfig

// logger is shared by all commands.
var logger = zap.NewNop()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "tradercfg",
	Short: "Trader Config Editor - Inspect and bulk-edit TraderPlus price configurations",
	Long: `Trader Config Editor reads a TraderPlus price configuration, lets you
inspect and edit its product records and writes the result back without
disturbing anything it does not understand.

Key Features:
  - Global and per-category price changes in percent
  - Global stock override
  - Direct edits of single records
  - Spreadsheet round trip through an XLSX grid
  - Batch processing with reusable price profiles
  - HTTP API for interactive editing

Example Usage:
  tradercfg show TraderPlusPriceConfig.json
  tradercfg apply TraderPlusPriceConfig.json --price 10 --stock -1
  tradercfg adjust TraderPlusPriceConfig.json --category Weapons --price -20 --sell=false
  tradercfg serve --addr :8080`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}

		l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}

		appConfig = cfg
		logger = l
		logger.Debug("configuration loaded", zap.String("config", cfgFile))
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
