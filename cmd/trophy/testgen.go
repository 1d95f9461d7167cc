package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/openspec"
	"github.com/trophyhq/trophy/pkg/presenter"
	"github.com/trophyhq/trophy/pkg/testgen"
)

var testgenCmd = &cobra.Command{
	Use:   "testgen <spec-file>",
	Short: "Generate a test skeleton from a spec document",
	Long: `Generate a Go test skeleton from an OpenSpec document. Every scenario
becomes exactly one pending subtest, so coverage of the spec is visible
from the test list alone.

Examples:
  trophy testgen openspec/specs/orders.md --package orders
  trophy testgen openspec/specs/orders.md --package orders --output orders_spec_test.go`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTestgen(cmd, args[0])
	},
}

func init() {
	testgenCmd.Flags().String("package", "", "Go package name for the generated file (required)")
	testgenCmd.Flags().String("entrypoint", "", "Entry point hint recorded in the skeleton header")
	testgenCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	rootCmd.AddCommand(testgenCmd)
}

func runTestgen(cmd *cobra.Command, specPath string) {
	packageName, _ := cmd.Flags().GetString("package")
	if packageName == "" {
		presenter.Error(fmt.Errorf("--package is required"), "Missing package name")
		os.Exit(1)
	}
	entryPoint, _ := cmd.Flags().GetString("entrypoint")
	output, _ := cmd.Flags().GetString("output")

	doc, err := openspec.LoadDocument(specPath)
	if err != nil {
		presenter.Error(err, "Failed to load spec")
		os.Exit(1)
	}

	generator, err := testgen.NewGenerator()
	if err != nil {
		presenter.Error(err, "Failed to initialize test generator")
		os.Exit(1)
	}

	skeleton, err := generator.Generate(doc, testgen.Options{
		PackageName: packageName,
		EntryPoint:  entryPoint,
	})
	if err != nil {
		presenter.Error(err, "Failed to generate test skeleton")
		os.Exit(1)
	}

	if output == "" {
		fmt.Print(skeleton)
		return
	}
	if err := os.WriteFile(output, []byte(skeleton), 0o644); err != nil {
		presenter.Error(err, "Failed to write test skeleton")
		os.Exit(1)
	}
	presenter.Success(fmt.Sprintf("Wrote %d scenario tests to %s", doc.ScenarioCount(), output))
}
