// =============================================================================
// Jira to XLSX Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'process', 'fetch') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (jiraconvert)
//   ├── processCmd (jiraconvert process)
//   ├── fetchCmd   (jiraconvert fetch)
//   └── versionCmd (jiraconvert version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration file before any subcommand runs
//   3. Setting up logging
//
//   The config file is optional: when the default config.yaml is absent the
//   tool runs on built-in defaults. A path given explicitly with --config
//   must exist.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/logger"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// cfg is the loaded application configuration, available to every
// subcommand after PersistentPreRunE.
var cfg *config.Config

// log is the shared structured logger.
var log *logger.Logger

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "jiraconvert",

	Short: "Jira to XLSX Converter - Transform Jira worklog exports into reporting workbooks",

	Long: `Jira to XLSX Converter is a CLI tool that transforms Jira issue exports
into the Excel workbooks the reporting pipelines expect.

Key Features:
  - Two built-in schemas: applens (strict) and msm (best-effort)
  - Header reconciliation that tolerates renamed and reordered CSV columns
  - Direct fetch from Jira Cloud with cursor pagination
  - Styled XLSX output with a plain-format fallback
  - Concurrent processing of multiple input files

Example Usage:
  jiraconvert process export.csv --mode applens
  jiraconvert process a.csv b.csv --mode msm --output-dir ./out
  jiraconvert fetch --start 2025-07-01 --end 2025-07-31 --format csv`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// initConfig loads the configuration and builds the logger. A default-named
// config file that does not exist falls back to pure defaults; an explicit
// --config path that does not exist is an error.
func initConfig() error {
	switch {
	case utils.FileExists(cfgFile):
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	case rootCmd.PersistentFlags().Changed("config"):
		return fmt.Errorf("config file %s does not exist", cfgFile)
	default:
		cfg = config.Default()
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log = logger.New(level)

	return nil
}

// init sets up the global flags.
func init() {
	// Loading the config here makes it available to every subcommand.
	// Assigned in init (not the rootCmd literal) because initConfig refers
	// back to rootCmd, which would otherwise be an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig()
	}

	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

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
		"Enable verbose output for debugging",
	)
}
