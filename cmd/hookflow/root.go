package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	ruleFile string
	keyPath  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hookflow",
	Short: "Compile and inspect proxy rule configurations",
	Long: `Hookflow compiles declarative YAML rule documents into typed
directive trees for a proxying host.

Quick start:
  hookflow validate            # Compile a rule file and report errors
  hookflow watch               # Keep a rule file compiled, reloading on change

Inspection:
  hookflow hooks               # List pipeline stages and their aliases`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ruleFile, "file", "f", "rules.yaml", "rule file path")
	rootCmd.PersistentFlags().StringVar(&keyPath, "key", ".", "dot separated key path to the rule root")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}
