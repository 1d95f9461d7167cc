// Package bundle loads a whole assistant configuration bundle rooted at one
// directory: agents, skills, commands, and rules under .trophy/, plus the
// spec documents under openspec/specs. It lints every artifact into one
// aggregated report.
package bundle

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/agents"
	"github.com/trophyhq/trophy/pkg/commands"
	"github.com/trophyhq/trophy/pkg/logger"
	"github.com/trophyhq/trophy/pkg/openspec"
	"github.com/trophyhq/trophy/pkg/rules"
	"github.com/trophyhq/trophy/pkg/skills"
)

// Bundle holds every artifact loaded from one bundle root
type Bundle struct {
	Root     string
	Agents   []*agents.Agent
	Skills   map[string]*skills.Skill
	Commands []*commands.Command
	Rules    []*rules.Rule
	Specs    []*openspec.Document

	agentProc   *agents.Processor
	commandProc *commands.Processor
	commandErrs []error
}

// Load reads every artifact under root. A bundle may legitimately lack any
// individual directory; only unreadable artifacts fail the load.
func Load(ctx context.Context, root string) (*Bundle, error) {
	b := &Bundle{Root: root, Skills: map[string]*skills.Skill{}}

	agentProc, err := agents.NewProcessor(agents.WithAgentDirs(filepath.Join(root, ".trophy", "agents")))
	if err != nil {
		return nil, err
	}
	b.agentProc = agentProc
	if b.Agents, err = agentProc.ListAgents(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load agents")
	}

	discovery, err := skills.NewDiscovery(skills.WithSkillDirs(filepath.Join(root, ".trophy", "skills")))
	if err != nil {
		return nil, err
	}
	if b.Skills, err = discovery.DiscoverSkills(); err != nil {
		return nil, errors.Wrap(err, "failed to discover skills")
	}

	commandProc, err := commands.NewProcessor(commands.WithCommandDirs(filepath.Join(root, ".trophy", "commands")))
	if err != nil {
		return nil, err
	}
	b.commandProc = commandProc
	names, err := commandProc.List()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list commands")
	}
	for _, name := range names {
		cmd, err := commandProc.Load(ctx, name)
		if err != nil {
			// Broken commands don't fail the load; Lint reports them.
			logger.G(ctx).WithField("command", name).WithError(err).Warn("failed to load command")
			b.commandErrs = append(b.commandErrs, errors.Wrapf(err, "command '%s'", name))
			continue
		}
		b.Commands = append(b.Commands, cmd)
	}

	loader, err := rules.NewLoader(rules.WithRuleDirs(filepath.Join(root, ".trophy", "rules")))
	if err != nil {
		return nil, err
	}
	if b.Rules, err = loader.LoadRules(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load rules")
	}

	b.Specs, err = openspec.LoadAll(ctx, filepath.Join(root, openspec.DefaultSpecsDir))
	if err != nil {
		var missing *openspec.MissingSpecsDirError
		if !errors.As(err, &missing) {
			return nil, errors.Wrap(err, "failed to load specs")
		}
		// A bundle without specs is fine.
		b.Specs = nil
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"agents":   len(b.Agents),
		"skills":   len(b.Skills),
		"commands": len(b.Commands),
		"rules":    len(b.Rules),
		"specs":    len(b.Specs),
	}).Debug("bundle loaded")

	return b, nil
}

// Lint validates every artifact of the bundle and returns every violation
// at once.
func (b *Bundle) Lint(ctx context.Context) error {
	var result *multierror.Error

	knownSkills := make(map[string]bool, len(b.Skills))
	for name := range b.Skills {
		knownSkills[name] = true
	}

	for _, agent := range b.Agents {
		if err := b.agentProc.ValidateAgent(agent, knownSkills); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "agent '%s'", agent.Metadata.Name))
		}
	}

	for _, err := range b.commandErrs {
		result = multierror.Append(result, err)
	}

	for _, rule := range b.Rules {
		if err := rules.Validate(rule); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "rule '%s'", rule.Name))
		}
	}

	for _, doc := range b.Specs {
		if err := openspec.Validate(doc); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "spec '%s'", doc.Path))
		}
	}

	return result.ErrorOrNil()
}

// SkillNames returns the discovered skill names, sorted
func (b *Bundle) SkillNames() []string {
	names := make([]string, 0, len(b.Skills))
	for name := range b.Skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary describes the bundle contents in one line
func (b *Bundle) Summary() string {
	scenarios := 0
	for _, doc := range b.Specs {
		scenarios += doc.ScenarioCount()
	}
	parts := []string{
		fmt.Sprintf("%d agents", len(b.Agents)),
		fmt.Sprintf("%d skills", len(b.Skills)),
		fmt.Sprintf("%d commands", len(b.Commands)),
		fmt.Sprintf("%d rules", len(b.Rules)),
		fmt.Sprintf("%d specs (%d scenarios)", len(b.Specs), scenarios),
	}
	return strings.Join(parts, ", ")
}
