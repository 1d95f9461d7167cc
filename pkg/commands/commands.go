// Package commands loads and renders slash-command prompt templates. A
// command is a markdown file whose frontmatter declares its name and
// arguments; the body is a text/template rendered with the caller's argument
// map before being handed to the host runtime.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/frontmatter"
	"github.com/trophyhq/trophy/pkg/logger"
)

// ArgSpec describes one declared argument of a command
type ArgSpec struct {
	Name     string
	Required bool
	Default  string
}

// Command represents a loaded command template
type Command struct {
	Name        string
	Description string
	Args        []ArgSpec
	Template    string // body with frontmatter stripped
	Path        string // empty for builtin commands
}

// Processor handles command loading and rendering
type Processor struct {
	commandDirs []string
	builtins    fs.FS
	bashTimeout time.Duration
}

// ProcessorOption is a function that configures a Processor
type ProcessorOption func(*Processor) error

// WithCommandDirs sets custom command directories
func WithCommandDirs(dirs ...string) ProcessorOption {
	return func(p *Processor) error {
		if len(dirs) == 0 {
			return errors.New("at least one command directory must be specified")
		}
		p.commandDirs = dirs
		return nil
	}
}

// WithDefaultDirs resets to the default command directories
func WithDefaultDirs() ProcessorOption {
	return func(p *Processor) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		p.commandDirs = []string{
			"./.trophy/commands", // Repo-local (higher precedence)
			filepath.Join(homeDir, ".trophy", "commands"),
		}
		return nil
	}
}

// WithoutBuiltins disables the embedded builtin commands
func WithoutBuiltins() ProcessorOption {
	return func(p *Processor) error {
		p.builtins = nil
		return nil
	}
}

// NewProcessor creates a new command processor with optional configuration
func NewProcessor(opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{
		builtins:    BuiltinFS(),
		bashTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply command processor option")
		}
	}

	if len(p.commandDirs) == 0 {
		if err := WithDefaultDirs()(p); err != nil {
			return nil, errors.Wrap(err, "failed to apply default command directories")
		}
	}

	return p, nil
}

// Load finds and parses a command by name. On-disk commands shadow builtins.
func (p *Processor) Load(ctx context.Context, name string) (*Command, error) {
	logger.G(ctx).WithField("command", name).Debug("loading command")

	possibleNames := []string{name + ".md", name}

	for _, dir := range p.commandDirs {
		for _, fileName := range possibleNames {
			fullPath := filepath.Join(dir, fileName)
			content, err := os.ReadFile(fullPath)
			if err != nil {
				continue
			}
			cmd, err := parseCommand(content, name)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid command file '%s'", fullPath)
			}
			cmd.Path = fullPath
			return cmd, nil
		}
	}

	if p.builtins != nil {
		if content, err := fs.ReadFile(p.builtins, name+".md"); err == nil {
			cmd, err := parseCommand(content, name)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid builtin command '%s'", name)
			}
			return cmd, nil
		}
	}

	return nil, errors.Errorf("command '%s' not found in directories: %v", name, p.commandDirs)
}

// Render loads a command and renders its template with the given arguments.
// Declared defaults fill missing optional arguments; missing required
// arguments are an error.
func (p *Processor) Render(ctx context.Context, name string, args map[string]string) (string, error) {
	cmd, err := p.Load(ctx, name)
	if err != nil {
		return "", err
	}

	merged := make(map[string]string, len(args))
	for k, v := range args {
		merged[k] = v
	}
	for _, spec := range cmd.Args {
		if _, ok := merged[spec.Name]; ok {
			continue
		}
		if spec.Required {
			return "", errors.Errorf("command '%s' requires argument '%s'", name, spec.Name)
		}
		merged[spec.Name] = spec.Default
	}

	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"bash": p.bashFunc(ctx),
	}).Parse(cmd.Template)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse template of command '%s'", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, merged); err != nil {
		return "", errors.Wrapf(err, "failed to render command '%s'", name)
	}

	return buf.String(), nil
}

// bashFunc returns the template func that substitutes command output into
// rendered prompts.
func (p *Processor) bashFunc(ctx context.Context) func(...string) string {
	return func(args ...string) string {
		if len(args) == 0 {
			return "[ERROR: bash function requires at least one argument]"
		}

		command := args[0]
		cmdArgs := args[1:]

		cmdCtx, cancel := context.WithTimeout(ctx, p.bashTimeout)
		defer cancel()

		cmd := exec.CommandContext(cmdCtx, command, cmdArgs...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			fullCmd := append([]string{command}, cmdArgs...)
			logger.G(ctx).WithField("command", command).WithError(err).Warn("bash substitution failed")
			return fmt.Sprintf("[ERROR executing command '%s': %v]", strings.Join(fullCmd, " "), err)
		}

		return strings.TrimRight(string(output), "\n\r")
	}
}

// List returns the names of all available commands, on-disk before builtin,
// deduplicated with repo > home > builtin precedence.
func (p *Processor) List() ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	for _, dir := range p.commandDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".md")
			if !seen[name] {
				names = append(names, name)
				seen[name] = true
			}
		}
	}

	if p.builtins != nil {
		entries, err := fs.ReadDir(p.builtins, ".")
		if err != nil {
			return nil, errors.Wrap(err, "failed to list builtin commands")
		}
		for _, entry := range entries {
			name := strings.TrimSuffix(entry.Name(), ".md")
			if !seen[name] {
				names = append(names, name)
				seen[name] = true
			}
		}
	}

	return names, nil
}

// parseCommand parses a command file into its frontmatter and template body
func parseCommand(content []byte, fallbackName string) (*Command, error) {
	metaData, body, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}

	cmd := &Command{
		Name:        frontmatter.String(metaData, "name"),
		Description: frontmatter.String(metaData, "description"),
		Template:    body,
	}
	if cmd.Name == "" {
		cmd.Name = fallbackName
	}

	if metaData != nil {
		if rawArgs, ok := metaData["args"].([]interface{}); ok {
			for _, rawArg := range rawArgs {
				spec, err := parseArgSpec(rawArg)
				if err != nil {
					return nil, err
				}
				cmd.Args = append(cmd.Args, spec)
			}
		}
	}

	if strings.TrimSpace(cmd.Template) == "" {
		return nil, errors.New("command template body is empty")
	}

	return cmd, nil
}

func parseArgSpec(raw interface{}) (ArgSpec, error) {
	m, ok := raw.(map[interface{}]interface{})
	if !ok {
		return ArgSpec{}, errors.New("argument spec must be a mapping with a name")
	}

	var spec ArgSpec
	if name, ok := m["name"].(string); ok {
		spec.Name = name
	}
	if spec.Name == "" {
		return ArgSpec{}, errors.New("argument spec requires a name")
	}
	if required, ok := m["required"].(bool); ok {
		spec.Required = required
	}
	if def, ok := m["default"].(string); ok {
		spec.Default = def
	}
	if spec.Required && spec.Default != "" {
		return ArgSpec{}, errors.Errorf("argument '%s' cannot be required and carry a default", spec.Name)
	}
	return spec, nil
}
