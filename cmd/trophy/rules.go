package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/presenter"
	"github.com/trophyhq/trophy/pkg/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage always-on guideline rules",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules, optionally scoped to a file path",
	Long: `List all rules from ./.trophy/rules and ~/.trophy/rules. With --path,
only the rules whose scope globs match the given path are listed.`,
	Run: func(cmd *cobra.Command, _ []string) {
		listRules(cmd)
	},
}

func init() {
	rulesListCmd.Flags().String("path", "", "Only list rules applying to this path")

	rulesCmd.AddCommand(rulesListCmd)
	rootCmd.AddCommand(rulesCmd)
}

func listRules(cmd *cobra.Command) {
	loader, err := rules.NewLoader(rules.WithDefaultDirs())
	if err != nil {
		presenter.Error(err, "Failed to initialize rule loader")
		os.Exit(1)
	}

	var loaded []*rules.Rule
	if path, _ := cmd.Flags().GetString("path"); path != "" {
		loaded, err = loader.RulesFor(cmd.Context(), path)
	} else {
		loaded, err = loader.LoadRules(cmd.Context())
	}
	if err != nil {
		presenter.Error(err, "Failed to load rules")
		os.Exit(1)
	}

	if len(loaded) == 0 {
		presenter.Info("No rules found")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPRIORITY\tSCOPE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t--------\t-----\t-----------")
	for _, rule := range loaded {
		scope := "*"
		if len(rule.Scope) > 0 {
			scope = strings.Join(rule.Scope, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rule.Name, rule.Priority, scope, rule.Description)
	}
	tw.Flush()
}
