// Package agents loads agent role definitions from markdown files. An agent
// is a markdown document whose YAML frontmatter names the agent and scopes
// what it may touch (tool patterns, skill allowlist); the body is the role
// prompt handed to the host runtime.
package agents

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/frontmatter"
	"github.com/trophyhq/trophy/pkg/logger"
)

// Metadata represents the YAML frontmatter configuration for an agent
type Metadata struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Model        string   `yaml:"model,omitempty"`         // model hint for the host runtime
	AllowedTools []string `yaml:"allowed_tools,omitempty"` // glob patterns of tool names
	Skills       []string `yaml:"skills,omitempty"`        // skill allowlist, empty means all
}

// Agent represents a loaded agent with its metadata, role prompt, and source path
type Agent struct {
	Metadata   Metadata
	RolePrompt string
	Path       string

	toolGlobs []glob.Glob
}

// AllowsTool reports whether the agent may use the named tool. An agent
// without allowed_tools patterns may use any tool.
func (a *Agent) AllowsTool(name string) bool {
	if len(a.Metadata.AllowedTools) == 0 {
		return true
	}
	for _, g := range a.toolGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Processor handles loading of agent definitions from disk
type Processor struct {
	agentDirs []string
}

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor) error

// WithAgentDirs sets custom agent directories
func WithAgentDirs(dirs ...string) ProcessorOption {
	return func(p *Processor) error {
		if len(dirs) == 0 {
			return errors.New("at least one agent directory must be specified")
		}
		p.agentDirs = dirs
		return nil
	}
}

// WithDefaultDirs sets the default agent directories (./.trophy/agents, ~/.trophy/agents)
func WithDefaultDirs() ProcessorOption {
	return func(p *Processor) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		p.agentDirs = []string{
			"./.trophy/agents", // Repo-local (higher precedence)
			filepath.Join(homeDir, ".trophy", "agents"),
		}
		return nil
	}
}

// NewProcessor creates a new agent processor with optional configuration
func NewProcessor(opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply agent processor option")
		}
	}

	if len(p.agentDirs) == 0 {
		if err := WithDefaultDirs()(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply default agent directories")
		}
	}

	return p, nil
}

// findAgentFile searches for an agent file in the configured directories
func (p *Processor) findAgentFile(agentName string) (string, error) {
	possibleNames := []string{
		agentName + ".md",
		agentName,
	}

	for _, dir := range p.agentDirs {
		for _, name := range possibleNames {
			fullPath := filepath.Join(dir, name)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}

	return "", errors.Errorf("agent '%s' not found in directories: %v", agentName, p.agentDirs)
}

// LoadAgent loads a single agent by name
func (p *Processor) LoadAgent(ctx context.Context, agentName string) (*Agent, error) {
	logger.G(ctx).WithField("agent", agentName).Debug("loading agent")

	agentPath, err := p.findAgentFile(agentName)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(agentPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read agent file '%s'", agentPath)
	}

	metaData, body, err := frontmatter.Parse(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse frontmatter in agent '%s'", agentPath)
	}

	metadata := Metadata{
		Name:         frontmatter.String(metaData, "name"),
		Description:  frontmatter.String(metaData, "description"),
		Model:        frontmatter.String(metaData, "model"),
		AllowedTools: frontmatter.StringSlice(metaData, "allowed_tools"),
		Skills:       frontmatter.StringSlice(metaData, "skills"),
	}
	if metadata.Name == "" {
		metadata.Name = agentName
	}

	agent := &Agent{
		Metadata:   metadata,
		RolePrompt: body,
		Path:       agentPath,
	}

	if err := agent.compileToolGlobs(); err != nil {
		return nil, errors.Wrapf(err, "invalid allowed_tools in agent '%s'", agentPath)
	}

	return agent, nil
}

func (a *Agent) compileToolGlobs() error {
	a.toolGlobs = a.toolGlobs[:0]
	for _, pattern := range a.Metadata.AllowedTools {
		g, err := glob.Compile(pattern)
		if err != nil {
			return errors.Wrapf(err, "pattern '%s'", pattern)
		}
		a.toolGlobs = append(a.toolGlobs, g)
	}
	return nil
}

// ListAgents returns all available agents from the configured directories.
// Repo-local definitions shadow user-global ones of the same name.
func (p *Processor) ListAgents(ctx context.Context) ([]*Agent, error) {
	var agents []*Agent
	seen := make(map[string]bool)

	for _, dir := range p.agentDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.G(ctx).WithField("dir", dir).Debug("agent directory not found, skipping")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			agentName := strings.TrimSuffix(entry.Name(), ".md")
			if seen[agentName] {
				continue
			}

			agent, err := p.LoadAgent(ctx, agentName)
			if err != nil {
				logger.G(ctx).WithField("agent", agentName).WithError(err).Warn("failed to load agent, skipping")
				continue
			}

			agents = append(agents, agent)
			seen[agentName] = true
		}
	}

	logger.G(ctx).WithField("count", len(agents)).Debug("loaded agents")
	return agents, nil
}

// ValidateAgent validates that an agent has all required fields. When a skill
// resolver is provided, referenced skills must exist.
func (p *Processor) ValidateAgent(agent *Agent, knownSkills map[string]bool) error {
	if agent.Metadata.Name == "" {
		return errors.New("agent name is required")
	}
	if agent.Metadata.Description == "" {
		return errors.New("agent description is required")
	}
	if strings.TrimSpace(agent.RolePrompt) == "" {
		return errors.New("agent role prompt cannot be empty")
	}

	for _, pattern := range agent.Metadata.AllowedTools {
		if _, err := glob.Compile(pattern); err != nil {
			return errors.Wrapf(err, "invalid allowed_tools pattern '%s'", pattern)
		}
	}

	if knownSkills != nil {
		for _, skillName := range agent.Metadata.Skills {
			if !knownSkills[skillName] {
				return errors.Errorf("agent references unknown skill '%s'", skillName)
			}
		}
	}

	return nil
}
