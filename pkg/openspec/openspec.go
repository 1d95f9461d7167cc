// Package openspec parses requirement documents written in the OpenSpec
// markdown convention: requirement headings containing scenario headings,
// each scenario stating a WHEN precondition and THEN/AND expected outcomes
// as bullet lines.
package openspec

import (
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	requirementPrefix = "Requirement:"
	scenarioPrefix    = "Scenario:"
)

// Document is a parsed spec file
type Document struct {
	Path         string
	Requirements []*Requirement
}

// Requirement is a named requirement with its scenarios
type Requirement struct {
	Name      string
	Scenarios []*Scenario
}

// Scenario is one WHEN/THEN behavior of a requirement
type Scenario struct {
	Name string
	When string
	Then []string
	// Notes carries bullet lines that start with no recognized keyword.
	Notes []string

	orphanAnd bool
}

// ScenarioCount returns the total number of scenarios across all requirements
func (d *Document) ScenarioCount() int {
	n := 0
	for _, req := range d.Requirements {
		n += len(req.Scenarios)
	}
	return n
}

// Parse parses spec markdown into a Document. Parsing is lenient; use
// Validate to enforce the convention.
func Parse(source []byte) (*Document, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	doc := &Document{}
	var currentReq *Requirement
	var currentScenario *Scenario

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			title := string(nodeText(n, source))
			switch {
			case strings.HasPrefix(title, requirementPrefix):
				currentReq = &Requirement{
					Name: strings.TrimSpace(strings.TrimPrefix(title, requirementPrefix)),
				}
				doc.Requirements = append(doc.Requirements, currentReq)
				currentScenario = nil
			case strings.HasPrefix(title, scenarioPrefix):
				if currentReq == nil {
					return nil, errors.Errorf("scenario '%s' appears before any requirement heading",
						strings.TrimSpace(strings.TrimPrefix(title, scenarioPrefix)))
				}
				currentScenario = &Scenario{
					Name: strings.TrimSpace(strings.TrimPrefix(title, scenarioPrefix)),
				}
				currentReq.Scenarios = append(currentReq.Scenarios, currentScenario)
			default:
				// Unrelated heading ends the current scenario block.
				currentScenario = nil
			}
		case *ast.List:
			if currentScenario == nil {
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				line := string(nodeText(item, source))
				currentScenario.addBullet(line)
			}
		}
	}

	return doc, nil
}

// addBullet classifies one bullet line by its leading keyword
func (s *Scenario) addBullet(line string) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "WHEN "):
		// Later WHEN lines are kept so validation can report the duplicate.
		if s.When == "" {
			s.When = strings.TrimPrefix(line, "WHEN ")
		} else {
			s.Notes = append(s.Notes, line)
		}
	case strings.HasPrefix(line, "THEN "):
		s.Then = append(s.Then, strings.TrimPrefix(line, "THEN "))
	case strings.HasPrefix(line, "AND "):
		if len(s.Then) == 0 {
			s.orphanAnd = true
			s.Notes = append(s.Notes, line)
			return
		}
		s.Then = append(s.Then, strings.TrimPrefix(line, "AND "))
	default:
		if line != "" {
			s.Notes = append(s.Notes, line)
		}
	}
}

// nodeText collects the raw text content of a node's descendants. goldmark's
// segment-based API is used directly so bullet text survives inline markup.
func nodeText(node ast.Node, source []byte) []byte {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		// Nested lists belong to their own bullet.
		if n != node && n.Kind() == ast.KindList {
			return ast.WalkSkipChildren, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return []byte(sb.String())
}

// Validate enforces the OpenSpec convention on a parsed document, collecting
// every violation rather than stopping at the first.
func Validate(doc *Document) error {
	var result *multierror.Error

	if len(doc.Requirements) == 0 {
		result = multierror.Append(result, errors.New("document contains no requirement headings"))
	}

	for _, req := range doc.Requirements {
		if req.Name == "" {
			result = multierror.Append(result, errors.New("requirement heading has no name"))
		}
		if len(req.Scenarios) == 0 {
			result = multierror.Append(result, errors.Errorf("requirement '%s' has no scenarios", req.Name))
		}
		for _, scenario := range req.Scenarios {
			if scenario.Name == "" {
				result = multierror.Append(result, errors.Errorf("requirement '%s' has a scenario with no name", req.Name))
			}
			if scenario.When == "" {
				result = multierror.Append(result, errors.Errorf("scenario '%s' has no WHEN line", scenario.Name))
			}
			if len(scenario.Then) == 0 {
				result = multierror.Append(result, errors.Errorf("scenario '%s' has no THEN line", scenario.Name))
			}
			if scenario.orphanAnd {
				result = multierror.Append(result, errors.Errorf("scenario '%s' has an AND line before any THEN", scenario.Name))
			}
		}
	}

	return result.ErrorOrNil()
}
