package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trophyhq/trophy/pkg/depgraph"
	"github.com/trophyhq/trophy/pkg/plugin"
	"github.com/trophyhq/trophy/pkg/presenter"
)

const defaultDepsServer = "deps"

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Request dependency reports from the analysis service",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var depsAnalyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Analyze a source tree and print the dependency report",
	Long: `Ask the configured analysis service for a dependency report of the
given path. The report is validated against the contract before printing.

Examples:
  trophy deps analyze ./src
  trophy deps analyze ./src --language python --depth function
  trophy deps analyze ./src --fallback`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDepsAnalyze(cmd, args[0])
	},
}

var depsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the dependency report contract",
	Run: func(_ *cobra.Command, _ []string) {
		schema, err := json.MarshalIndent(depgraph.Schema(), "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to marshal schema")
			os.Exit(1)
		}
		fmt.Println(string(schema))
	},
}

func init() {
	depsAnalyzeCmd.Flags().String("language", "", "Language hint (detected from extensions when empty)")
	depsAnalyzeCmd.Flags().String("depth", string(depgraph.DepthFile), "Analysis depth (file, function, full)")
	depsAnalyzeCmd.Flags().String("server", defaultDepsServer, "Plugin server name from settings.yaml")
	depsAnalyzeCmd.Flags().Bool("fallback", false, "Generate a grammar and retry when the language is unsupported")
	depsAnalyzeCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	depsCmd.AddCommand(depsAnalyzeCmd)
	depsCmd.AddCommand(depsSchemaCmd)
	rootCmd.AddCommand(depsCmd)
}

// newDepsClient builds the dependency analysis client for the named plugin
// server. The returned cleanup closes the plugin connections.
func newDepsClient(cmd *cobra.Command) (*depgraph.Client, func()) {
	ctx := cmd.Context()

	settings, err := plugin.LoadSettings()
	if err != nil {
		presenter.Error(err, "Failed to load plugin settings")
		os.Exit(1)
	}
	if len(settings.Servers) == 0 {
		if settings, err = plugin.SettingsFromViper(viper.GetViper()); err != nil {
			presenter.Error(err, "Failed to load plugin settings from config")
			os.Exit(1)
		}
	}

	manager, err := plugin.NewManager(settings)
	if err != nil {
		presenter.Error(err, "Failed to create plugin manager")
		os.Exit(1)
	}
	if err := manager.Initialize(ctx); err != nil {
		presenter.Error(err, "Failed to initialize plugin servers")
		os.Exit(1)
	}
	cleanup := func() { manager.Close(ctx) }

	serverName, _ := cmd.Flags().GetString("server")
	c, err := manager.Get(serverName)
	if err != nil {
		cleanup()
		presenter.Error(err, "Analysis service unavailable")
		os.Exit(1)
	}
	return depgraph.NewClient(c), cleanup
}

func runDepsAnalyze(cmd *cobra.Command, path string) {
	language, _ := cmd.Flags().GetString("language")
	depth, _ := cmd.Flags().GetString("depth")
	fallback, _ := cmd.Flags().GetBool("fallback")
	output, _ := cmd.Flags().GetString("output")

	req := depgraph.Request{
		Path:     path,
		Language: language,
		Depth:    depgraph.Depth(depth),
	}
	if !req.Depth.Valid() {
		presenter.Error(fmt.Errorf("invalid depth '%s'", depth), "Depth must be file, function, or full")
		os.Exit(1)
	}

	client, cleanup := newDepsClient(cmd)
	defer cleanup()

	var report *depgraph.Report
	var err error
	if fallback {
		report, err = client.AnalyzeWithGrammarFallback(cmd.Context(), req)
	} else {
		report, err = client.Analyze(cmd.Context(), req)
	}
	if err != nil {
		presenter.Error(err, "Dependency analysis failed")
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to marshal report")
		os.Exit(1)
	}

	if output == "" {
		fmt.Println(string(encoded))
		return
	}
	if err := os.WriteFile(output, encoded, 0o644); err != nil {
		presenter.Error(err, "Failed to write report")
		os.Exit(1)
	}
	presenter.Success(fmt.Sprintf("Wrote report for %d files to %s", report.Analysis.FilesAnalyzed, output))
}
