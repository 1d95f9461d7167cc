// Package rules loads always-on guideline documents. A rule is a markdown
// file whose frontmatter names it, scopes it to path globs, and assigns an
// enforcement priority; the body is the guideline text injected into every
// conversation whose files match the scope.
package rules

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/frontmatter"
	"github.com/trophyhq/trophy/pkg/logger"
)

// Priority represents the enforcement level of a rule
type Priority string

// PriorityMust requires compliance; violations block work.
// PriorityShould is recommended; violations produce warnings.
// PriorityMay is informational only.
const (
	PriorityMust   Priority = "must"
	PriorityShould Priority = "should"
	PriorityMay    Priority = "may"
)

// Valid reports whether the priority is one of the enumerated values
func (p Priority) Valid() bool {
	switch p {
	case PriorityMust, PriorityShould, PriorityMay:
		return true
	}
	return false
}

// Rule represents a loaded guideline document
type Rule struct {
	Name        string
	Description string
	Priority    Priority
	Scope       []string // doublestar globs; empty means all paths
	Content     string
	Path        string
}

// AppliesTo reports whether the rule's scope matches the given path. A rule
// without scope globs applies everywhere.
func (r *Rule) AppliesTo(path string) bool {
	if len(r.Scope) == 0 {
		return true
	}
	path = filepath.ToSlash(path)
	for _, pattern := range r.Scope {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Loader discovers rule documents from configured directories
type Loader struct {
	ruleDirs []string
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader) error

// WithRuleDirs sets custom rule directories
func WithRuleDirs(dirs ...string) LoaderOption {
	return func(l *Loader) error {
		if len(dirs) == 0 {
			return errors.New("at least one rule directory must be specified")
		}
		l.ruleDirs = dirs
		return nil
	}
}

// WithDefaultDirs sets the default rule directories (./.trophy/rules, ~/.trophy/rules)
func WithDefaultDirs() LoaderOption {
	return func(l *Loader) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		l.ruleDirs = []string{
			"./.trophy/rules",
			filepath.Join(homeDir, ".trophy", "rules"),
		}
		return nil
	}
}

// NewLoader creates a rule loader with optional configuration
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply rule loader option")
		}
	}

	if len(l.ruleDirs) == 0 {
		if err := WithDefaultDirs()(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply default rule directories")
		}
	}

	return l, nil
}

// LoadRules returns all rules from the configured directories, sorted by
// name, repo-local definitions shadowing user-global ones.
func (l *Loader) LoadRules(ctx context.Context) ([]*Rule, error) {
	var rules []*Rule
	seen := make(map[string]bool)

	for _, dir := range l.ruleDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.G(ctx).WithField("dir", dir).Debug("rule directory not found, skipping")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			rulePath := filepath.Join(dir, entry.Name())
			rule, err := loadRule(rulePath)
			if err != nil {
				logger.G(ctx).WithField("rule", rulePath).WithError(err).Warn("failed to load rule, skipping")
				continue
			}

			if seen[rule.Name] {
				continue
			}
			rules = append(rules, rule)
			seen[rule.Name] = true
		}
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })
	return rules, nil
}

// RulesFor returns the rules whose scope matches the given path
func (l *Loader) RulesFor(ctx context.Context, path string) ([]*Rule, error) {
	all, err := l.LoadRules(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*Rule
	for _, rule := range all {
		if rule.AppliesTo(path) {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

func loadRule(path string) (*Rule, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read rule file")
	}

	metaData, body, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}

	rule := &Rule{
		Name:        frontmatter.String(metaData, "name"),
		Description: frontmatter.String(metaData, "description"),
		Priority:    Priority(frontmatter.String(metaData, "priority")),
		Scope:       frontmatter.StringSlice(metaData, "scope"),
		Content:     body,
		Path:        path,
	}
	if rule.Name == "" {
		rule.Name = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if rule.Priority == "" {
		rule.Priority = PriorityShould
	}

	// Loading is lenient so linting can report violations. Callers that
	// care about well-formedness run Validate on the loaded rule.
	return rule, nil
}

// Validate checks a rule for required fields, a recognized priority, and
// compilable scope globs.
func Validate(rule *Rule) error {
	if rule.Name == "" {
		return errors.New("rule name is required")
	}
	if rule.Description == "" {
		return errors.New("rule description is required")
	}
	if !rule.Priority.Valid() {
		return errors.Errorf("invalid priority '%s', must be one of: must, should, may", rule.Priority)
	}
	if strings.TrimSpace(rule.Content) == "" {
		return errors.New("rule content cannot be empty")
	}
	for _, pattern := range rule.Scope {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid scope pattern '%s'", pattern)
		}
	}
	return nil
}
