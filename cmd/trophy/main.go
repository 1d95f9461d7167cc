package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/trophyhq/trophy/pkg/logger"
	"github.com/trophyhq/trophy/pkg/presenter"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("TROPHY")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.trophy")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "trophy",
	Short: "Trophy CLI for assistant configuration bundles",
	Long: `Trophy loads, validates, renders, and serves assistant configuration
bundles: agents, skills, commands, rules, and OpenSpec requirement documents.
It also speaks to an external dependency-analysis service to generate
dependency reports, test skeletons, and code maps.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile, err := cmd.Flags().GetString("config"); err == nil && configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				presenter.Error(err, "Failed to read config file")
				os.Exit(1)
			}
		}

		if level := viper.GetString("log_level"); level != "" {
			if err := logger.SetLogLevel(level); err != nil {
				presenter.Warning(fmt.Sprintf("Invalid log level '%s', keeping default", level))
			}
		}
		if format := viper.GetString("log_format"); format != "" {
			logger.SetLogFormat(format)
		}

		if quiet, err := cmd.Flags().GetBool("quiet"); err == nil && quiet {
			presenter.SetQuiet(true)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

// normalizeFlags lets underscore spellings of flags resolve to their
// dashed names, matching the config file key style.
func normalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func main() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlags)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./config.yaml or ~/.trophy/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json or text)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress informational output")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
