package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/presenter"
	"github.com/trophyhq/trophy/pkg/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage workflow skills",
	Long:  `List and show skills discovered under ./.trophy/skills, ~/.trophy/skills, and installed plugins.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all discovered skills",
	Run: func(_ *cobra.Command, _ []string) {
		listSkills()
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a skill's workflow instructions",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		showSkill(args[0])
	},
}

func init() {
	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
	rootCmd.AddCommand(skillCmd)
}

func newSkillDiscovery() *skills.Discovery {
	discovery, err := skills.NewDiscovery(skills.WithDefaultDirs())
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		os.Exit(1)
	}
	return discovery
}

func listSkills() {
	discovery := newSkillDiscovery()

	allSkills, err := discovery.DiscoverSkills()
	if err != nil {
		presenter.Error(err, "Failed to discover skills")
		os.Exit(1)
	}

	if len(allSkills) == 0 {
		presenter.Info("No skills installed")
		return
	}

	names := make([]string, 0, len(allSkills))
	for name := range allSkills {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIRECTORY\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t---------\t-----------")
	for _, name := range names {
		skill := allSkills[name]
		description := skill.Description
		if len(description) > 60 {
			description = description[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", skill.Name, skill.Directory, description)
	}
	tw.Flush()
}

func showSkill(name string) {
	discovery := newSkillDiscovery()

	skill, err := discovery.GetSkill(name)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Failed to load skill '%s'", name))
		os.Exit(1)
	}

	presenter.Section(fmt.Sprintf("Skill: %s", skill.Name))
	presenter.Info(fmt.Sprintf("Description: %s", skill.Description))
	presenter.Info(fmt.Sprintf("Directory: %s", skill.Directory))
	presenter.Separator()
	fmt.Println(skill.Content)
}
