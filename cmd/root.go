// Package cmd provides the command-line interface for mdserve with
// configuration layered from multiple sources.
//
// Configuration precedence, highest first:
//  1. Command-line flags (--port, --content, etc.)
//  2. MDSERVE_CONFIG_FILE environment variable (custom config file path)
//  3. Individual environment variables (MDSERVE_SERVER_PORT, etc.)
//  4. Configuration file (.mdserve.yml in the working directory)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mdserve",
	Short: "Serve a Markdown content tree as a website",
	Long: `mdserve serves a directory of Markdown files as a website without a
database. Each request path maps to a Markdown document, rendered
through the most specific HTML template the templates directory
provides.

Template selection walks a waterfall for every path: an exact match
first, then singular and plural parent names level by level up the
tree, ending at the page.html fallback. Content changes are picked up
live in development mode and served from a validated cache in
production.

Quick Start:
  mdserve serve                   Serve content/ using templates/
  mdserve check                   Validate config, templates, and content
  mdserve version                 Show version information`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .mdserve.yml, can also use MDSERVE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MDSERVE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mdserve")
	}

	// MDSERVE_SERVER_PORT, MDSERVE_DIRS_CONTENT, and friends.
	viper.SetEnvPrefix("MDSERVE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or unreadable config file is not fatal; defaults and
	// environment variables still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
