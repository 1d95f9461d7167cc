// Package codemap models the human-maintained architecture summary kept at
// the bundle root, conventionally CODEMAP.md. The document carries six
// sections: an overview paragraph, the file structure, entry points, internal
// dependencies, data flow, and external dependencies. The machine-derivable
// sections can be generated from a dependency report and checked against a
// fresh one.
package codemap

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultPath is where the document lives relative to the bundle root
const DefaultPath = "CODEMAP.md"

// Section headings recognized by the parser.
const (
	sectionOverview     = "Overview"
	sectionStructure    = "Structure"
	sectionEntryPoints  = "Entry Points"
	sectionInternalDeps = "Internal Dependencies"
	sectionDataFlow     = "Data Flow"
	sectionExternalDeps = "External Dependencies"
)

// Document is a parsed code map
type Document struct {
	Path     string
	Title    string
	Overview string
	// Structure maps an analyzed path to its one-line description.
	Structure   []StructureEntry
	EntryPoints []string
	// InternalDependencies maps a path to the in-project paths it uses.
	InternalDependencies map[string][]string
	// DataFlow is the ordered prose steps of the main flow.
	DataFlow             []string
	ExternalDependencies []string
}

// StructureEntry is one path with its description
type StructureEntry struct {
	Path        string
	Description string
}

// StructurePaths returns the paths of the structure section in document order
func (d *Document) StructurePaths() []string {
	paths := make([]string, 0, len(d.Structure))
	for _, entry := range d.Structure {
		paths = append(paths, entry.Path)
	}
	return paths
}

// Parse parses code map markdown. Unknown sections are skipped so documents
// can carry extra prose without breaking the sync check.
func Parse(source []byte) (*Document, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	doc := &Document{InternalDependencies: map[string][]string{}}
	section := ""

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(nodeText(n, source)))
			if n.Level == 1 {
				doc.Title = title
				section = ""
				continue
			}
			section = title
		case *ast.Paragraph:
			if section == sectionOverview {
				line := strings.TrimSpace(string(nodeText(n, source)))
				if doc.Overview == "" {
					doc.Overview = line
				} else {
					doc.Overview += "\n" + line
				}
			}
		case *ast.List:
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				line := strings.TrimSpace(string(nodeText(item, source)))
				if line == "" {
					continue
				}
				if err := doc.addBullet(section, line); err != nil {
					return nil, err
				}
			}
		}
	}

	return doc, nil
}

// addBullet folds one bullet line into the section being parsed
func (d *Document) addBullet(section, line string) error {
	switch section {
	case sectionStructure:
		path, desc := splitEntry(line)
		d.Structure = append(d.Structure, StructureEntry{Path: path, Description: desc})
	case sectionEntryPoints:
		d.EntryPoints = append(d.EntryPoints, line)
	case sectionInternalDeps:
		source, targets, err := parseEdge(line)
		if err != nil {
			return err
		}
		d.InternalDependencies[source] = targets
	case sectionDataFlow:
		d.DataFlow = append(d.DataFlow, line)
	case sectionExternalDeps:
		d.ExternalDependencies = append(d.ExternalDependencies, line)
	}
	return nil
}

// splitEntry splits "path: description" bullets; a bullet with no colon is
// a bare path.
func splitEntry(line string) (string, string) {
	if idx := strings.Index(line, ": "); idx >= 0 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+2:])
	}
	return strings.TrimSuffix(line, ":"), ""
}

// parseEdge splits "source -> target, target" dependency bullets
func parseEdge(line string) (string, []string, error) {
	parts := strings.SplitN(line, "->", 2)
	if len(parts) != 2 {
		return "", nil, errors.Errorf("dependency line %q is not in 'source -> target' form", line)
	}
	source := strings.TrimSpace(parts[0])
	var targets []string
	for _, target := range strings.Split(parts[1], ",") {
		if target = strings.TrimSpace(target); target != "" {
			targets = append(targets, target)
		}
	}
	if source == "" || len(targets) == 0 {
		return "", nil, errors.Errorf("dependency line %q names no source or no targets", line)
	}
	return source, targets, nil
}

// nodeText collects the raw text of a node's descendants so paths survive
// inline code markup.
func nodeText(node ast.Node, source []byte) []byte {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
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
