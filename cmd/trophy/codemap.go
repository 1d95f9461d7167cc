package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/codemap"
	"github.com/trophyhq/trophy/pkg/depgraph"
	"github.com/trophyhq/trophy/pkg/presenter"
)

var codemapCmd = &cobra.Command{
	Use:   "codemap",
	Short: "Generate and check code map documents",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var codemapGenerateCmd = &cobra.Command{
	Use:   "generate <path>",
	Short: "Generate a code map from a fresh dependency report",
	Long: `Analyze the given path and write a code map document. The data flow
section stays empty for a human to fill in.

Examples:
  trophy codemap generate ./src
  trophy codemap generate ./src --output docs/CODEMAP.md`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCodemapGenerate(cmd, args[0])
	},
}

var codemapCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Check a code map document against a fresh dependency report",
	Long: `Re-analyze the given path and compare the result against the code map
document. Discrepancies are listed and shown as a unified diff; the exit
code is nonzero when the document is out of sync.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCodemapCheck(cmd, args[0])
	},
}

func init() {
	codemapGenerateCmd.Flags().String("language", "", "Language hint")
	codemapGenerateCmd.Flags().String("server", defaultDepsServer, "Plugin server name from settings.yaml")
	codemapGenerateCmd.Flags().StringP("output", "o", codemap.DefaultPath, "Output file")

	codemapCheckCmd.Flags().String("language", "", "Language hint")
	codemapCheckCmd.Flags().String("server", defaultDepsServer, "Plugin server name from settings.yaml")
	codemapCheckCmd.Flags().StringP("file", "f", codemap.DefaultPath, "Code map document to check")

	codemapCmd.AddCommand(codemapGenerateCmd)
	codemapCmd.AddCommand(codemapCheckCmd)
	rootCmd.AddCommand(codemapCmd)
}

// analyzeForCodemap requests a file-depth report for the given path
func analyzeForCodemap(cmd *cobra.Command, path string) *depgraph.Report {
	language, _ := cmd.Flags().GetString("language")

	client, cleanup := newDepsClient(cmd)
	defer cleanup()

	report, err := client.Analyze(cmd.Context(), depgraph.Request{
		Path:     path,
		Language: language,
		Depth:    depgraph.DepthFile,
	})
	if err != nil {
		presenter.Error(err, "Dependency analysis failed")
		os.Exit(1)
	}
	return report
}

func runCodemapGenerate(cmd *cobra.Command, path string) {
	output, _ := cmd.Flags().GetString("output")

	report := analyzeForCodemap(cmd, path)
	doc := codemap.Generate(report)

	if err := os.WriteFile(output, codemap.Render(doc), 0o644); err != nil {
		presenter.Error(err, "Failed to write code map")
		os.Exit(1)
	}
	presenter.Success(fmt.Sprintf("Wrote code map of %d files to %s", report.Analysis.FilesAnalyzed, output))
}

func runCodemapCheck(cmd *cobra.Command, path string) {
	file, _ := cmd.Flags().GetString("file")

	content, err := os.ReadFile(file)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to read code map '%s'", file))
		os.Exit(1)
	}
	doc, err := codemap.Parse(content)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to parse code map '%s'", file))
		os.Exit(1)
	}
	doc.Path = file

	report := analyzeForCodemap(cmd, path)
	result := codemap.Check(doc, report)

	if result.InSync() {
		presenter.Success(fmt.Sprintf("Code map '%s' is in sync", file))
		return
	}

	presenter.Section(fmt.Sprintf("Code map '%s' is out of sync", file))
	for _, finding := range result.Findings {
		presenter.Warning(finding.String())
	}
	presenter.Separator()
	fmt.Println(result.Diff)
	os.Exit(1)
}
