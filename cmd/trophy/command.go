package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/commands"
	"github.com/trophyhq/trophy/pkg/presenter"
)

var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Manage slash-command templates",
	Long: `List and render slash-command templates from ./.trophy/commands and
~/.trophy/commands. Builtin commands ship with the toolkit and can be
shadowed by an on-disk command of the same name.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var commandListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available commands",
	Run: func(cmd *cobra.Command, _ []string) {
		listCommands(cmd)
	},
}

var commandRenderCmd = &cobra.Command{
	Use:   "render <name>",
	Short: "Render a command template with arguments",
	Long: `Render a command template. Arguments are passed as repeated --arg flags:

  trophy command render deps-analyze --arg path=./src --arg depth=function`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		renderCommand(cmd, args[0])
	},
}

func init() {
	commandRenderCmd.Flags().StringArray("arg", nil, "Template argument as key=value (repeatable)")

	commandCmd.AddCommand(commandListCmd)
	commandCmd.AddCommand(commandRenderCmd)
	rootCmd.AddCommand(commandCmd)
}

func newCommandProcessor() *commands.Processor {
	processor, err := commands.NewProcessor(commands.WithDefaultDirs())
	if err != nil {
		presenter.Error(err, "Failed to initialize command processor")
		os.Exit(1)
	}
	return processor
}

func listCommands(cmd *cobra.Command) {
	processor := newCommandProcessor()

	names, err := processor.List()
	if err != nil {
		presenter.Error(err, "Failed to list commands")
		os.Exit(1)
	}
	if len(names) == 0 {
		presenter.Info("No commands found")
		return
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tARGS\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t----\t-----------")
	for _, name := range names {
		loaded, err := processor.Load(cmd.Context(), name)
		if err != nil {
			presenter.Warning(fmt.Sprintf("Skipping command '%s': %v", name, err))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", loaded.Name, formatArgSpecs(loaded.Args), loaded.Description)
	}
	tw.Flush()
}

func formatArgSpecs(specs []commands.ArgSpec) string {
	if len(specs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		if spec.Required {
			parts = append(parts, spec.Name+"*")
		} else {
			parts = append(parts, spec.Name)
		}
	}
	return strings.Join(parts, ", ")
}

func renderCommand(cmd *cobra.Command, name string) {
	processor := newCommandProcessor()

	rawArgs, _ := cmd.Flags().GetStringArray("arg")
	templateArgs := make(map[string]string, len(rawArgs))
	for _, raw := range rawArgs {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			presenter.Error(fmt.Errorf("invalid argument '%s'", raw), "Arguments must be key=value")
			os.Exit(1)
		}
		templateArgs[parts[0]] = parts[1]
	}

	rendered, err := processor.Render(cmd.Context(), name, templateArgs)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to render command '%s'", name))
		os.Exit(1)
	}
	fmt.Println(rendered)
}
