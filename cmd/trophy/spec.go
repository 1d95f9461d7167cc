package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/openspec"
	"github.com/trophyhq/trophy/pkg/presenter"
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Manage OpenSpec requirement documents",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var specListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spec documents with their requirement and scenario counts",
	Run: func(cmd *cobra.Command, _ []string) {
		listSpecs(cmd)
	},
}

var specValidateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate spec documents against the WHEN/THEN convention",
	Long: `Validate the given spec files, or every document under the specs
directory when no paths are given. All violations are reported at once.`,
	Run: func(cmd *cobra.Command, args []string) {
		validateSpecs(cmd, args)
	},
}

func init() {
	specListCmd.Flags().String("dir", openspec.DefaultSpecsDir, "Specs directory")
	specValidateCmd.Flags().String("dir", openspec.DefaultSpecsDir, "Specs directory")

	specCmd.AddCommand(specListCmd)
	specCmd.AddCommand(specValidateCmd)
	rootCmd.AddCommand(specCmd)
}

func listSpecs(cmd *cobra.Command) {
	dir, _ := cmd.Flags().GetString("dir")

	docs, err := openspec.LoadAll(cmd.Context(), dir)
	if err != nil {
		presenter.Error(err, "Failed to load specs")
		os.Exit(1)
	}
	if len(docs) == 0 {
		presenter.Info("No spec documents found")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tREQUIREMENTS\tSCENARIOS")
	fmt.Fprintln(tw, "----\t------------\t---------")
	for _, doc := range docs {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", doc.Path, len(doc.Requirements), doc.ScenarioCount())
	}
	tw.Flush()
}

func validateSpecs(cmd *cobra.Command, paths []string) {
	var docs []*openspec.Document

	if len(paths) == 0 {
		dir, _ := cmd.Flags().GetString("dir")
		found, err := openspec.FindSpecs(dir)
		if err != nil {
			presenter.Error(err, "Failed to find specs")
			os.Exit(1)
		}
		paths = found
	}

	failed := 0
	for _, path := range paths {
		doc, err := openspec.LoadDocument(path)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to load spec '%s'", path))
			failed++
			continue
		}
		docs = append(docs, doc)
	}

	for _, doc := range docs {
		if err := openspec.Validate(doc); err != nil {
			presenter.Error(err, fmt.Sprintf("Spec '%s' violates the convention", doc.Path))
			failed++
			continue
		}
		presenter.Success(fmt.Sprintf("Spec '%s' is valid (%d scenarios)", doc.Path, doc.ScenarioCount()))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
