package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/agents"
	"github.com/trophyhq/trophy/pkg/presenter"
	"github.com/trophyhq/trophy/pkg/skills"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agent definitions",
	Long:  `List, show, and validate agent role definitions from ./.trophy/agents and ~/.trophy/agents.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available agents",
	Run: func(cmd *cobra.Command, _ []string) {
		listAgents(cmd)
	},
}

var agentShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an agent's metadata and role prompt",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showAgent(cmd, args[0])
	},
}

var agentValidateCmd = &cobra.Command{
	Use:   "validate [name]",
	Short: "Validate one agent, or all agents when no name is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		validateAgents(cmd, name)
	},
}

func init() {
	agentCmd.AddCommand(agentListCmd)
	agentCmd.AddCommand(agentShowCmd)
	agentCmd.AddCommand(agentValidateCmd)
	rootCmd.AddCommand(agentCmd)
}

func newAgentProcessor() *agents.Processor {
	processor, err := agents.NewProcessor(agents.WithDefaultDirs())
	if err != nil {
		presenter.Error(err, "Failed to initialize agent processor")
		os.Exit(1)
	}
	return processor
}

func listAgents(cmd *cobra.Command) {
	processor := newAgentProcessor()

	allAgents, err := processor.ListAgents(cmd.Context())
	if err != nil {
		presenter.Error(err, "Failed to list agents")
		os.Exit(1)
	}

	if len(allAgents) == 0 {
		presenter.Info("No agents found")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODEL\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----\t-----------")
	for _, agent := range allAgents {
		description := agent.Metadata.Description
		if len(description) > 60 {
			description = description[:57] + "..."
		}
		model := agent.Metadata.Model
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", agent.Metadata.Name, model, description)
	}
	tw.Flush()
}

func showAgent(cmd *cobra.Command, name string) {
	processor := newAgentProcessor()

	agent, err := processor.LoadAgent(cmd.Context(), name)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to load agent '%s'", name))
		os.Exit(1)
	}

	presenter.Section(fmt.Sprintf("Agent: %s", agent.Metadata.Name))
	presenter.Info(fmt.Sprintf("Description: %s", agent.Metadata.Description))
	if agent.Metadata.Model != "" {
		presenter.Info(fmt.Sprintf("Model: %s", agent.Metadata.Model))
	}
	if len(agent.Metadata.AllowedTools) > 0 {
		presenter.Info(fmt.Sprintf("Allowed tools: %v", agent.Metadata.AllowedTools))
	}
	if len(agent.Metadata.Skills) > 0 {
		presenter.Info(fmt.Sprintf("Skills: %v", agent.Metadata.Skills))
	}
	presenter.Info(fmt.Sprintf("Source: %s", agent.Path))
	presenter.Separator()
	fmt.Println(agent.RolePrompt)
}

func validateAgents(cmd *cobra.Command, name string) {
	ctx := cmd.Context()
	processor := newAgentProcessor()

	knownSkills := map[string]bool{}
	if discovery, err := skills.NewDiscovery(skills.WithDefaultDirs()); err == nil {
		if discovered, err := discovery.DiscoverSkills(); err == nil {
			for skillName := range discovered {
				knownSkills[skillName] = true
			}
		}
	}

	var toCheck []*agents.Agent
	if name != "" {
		agent, err := processor.LoadAgent(ctx, name)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to load agent '%s'", name))
			os.Exit(1)
		}
		toCheck = append(toCheck, agent)
	} else {
		all, err := processor.ListAgents(ctx)
		if err != nil {
			presenter.Error(err, "Failed to list agents")
			os.Exit(1)
		}
		toCheck = all
	}

	failed := 0
	for _, agent := range toCheck {
		if err := processor.ValidateAgent(agent, knownSkills); err != nil {
			presenter.Error(err, fmt.Sprintf("Agent '%s' is invalid", agent.Metadata.Name))
			failed++
			continue
		}
		presenter.Success(fmt.Sprintf("Agent '%s' is valid", agent.Metadata.Name))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
