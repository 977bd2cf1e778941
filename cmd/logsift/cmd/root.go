// Package cmd contains the CLI commands for logsift.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"logsift/pkg/config"
)

var (
	// Used for flags
	verbose    bool
	output     string
	noColor    bool
	configPath string

	// cfg holds defaults loaded from the optional config file.
	cfg *Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "logsift",
	Version: config.ShortVersionString(),
	Short:   "logsift - Structured Web Server Log Analyzer",
	Long: `logsift analyzes structured web server logs and generates
aggregated insights: level breakdowns, top-N rankings, status code
distributions, and error-threshold flagging.

Expected log line format:
  TIMESTAMP [LEVEL] IP METHOD ENDPOINT STATUS

Example line:
  2024-01-15T10:30:00Z [INFO] 192.168.1.1 GET /api/users 200

Examples:
  # Analyze a log file
  logsift analyze /var/log/app/access.log

  # Top 20 IPs/endpoints, flag IPs with more than 3 errors
  logsift analyze access.log --top 20 --error-threshold 3

  # Follow a live log file
  logsift watch /var/log/app/access.log

  # Export results as JSON
  logsift analyze access.log --export json --export-to report.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			cfg = DefaultConfig()
			return nil
		}
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		PrintError(err.Error(), false)
		return err
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json, plain)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file with default settings")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// GetOutput returns the output format, honoring the config file default
// when the flag was not set.
func GetOutput() string {
	if !rootCmd.PersistentFlags().Changed("output") && cfg != nil && cfg.Output != "" {
		return cfg.Output
	}
	return output
}

// ColorEnabled returns whether report coloring is on.
func ColorEnabled() bool {
	return !noColor
}

// PrintError prints an error message and exits if fatal is true.
func PrintError(msg string, fatal bool) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	if fatal {
		os.Exit(1)
	}
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
