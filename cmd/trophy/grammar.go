package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/presenter"
)

var grammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Manage grammars of the analysis service",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var grammarGenCmd = &cobra.Command{
	Use:   "gen <language>",
	Short: "Ask the analysis service to generate a grammar for a language",
	Long: `Ask the analysis service to generate a parsing grammar for an
unsupported language from sample source files.

Examples:
  trophy grammar gen zig --sample main.zig --sample lib.zig`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGrammarGen(cmd, args[0])
	},
}

func init() {
	grammarGenCmd.Flags().StringArray("sample", nil, "Sample source file for grammar inference (repeatable)")
	grammarGenCmd.Flags().String("server", defaultDepsServer, "Plugin server name from settings.yaml")

	grammarCmd.AddCommand(grammarGenCmd)
	rootCmd.AddCommand(grammarCmd)
}

func runGrammarGen(cmd *cobra.Command, language string) {
	samples, _ := cmd.Flags().GetStringArray("sample")

	client, cleanup := newDepsClient(cmd)
	defer cleanup()

	grammar, err := client.GenerateGrammar(cmd.Context(), language, samples)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to generate grammar for '%s'", language))
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Grammar generated for '%s'", language))
	fmt.Println(grammar)
}
