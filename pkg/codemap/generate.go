package codemap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trophyhq/trophy/pkg/depgraph"
)

// Generate derives a code map from a dependency report. The data flow
// section is human-authored and starts empty; everything else comes from the
// report.
func Generate(report *depgraph.Report) *Document {
	doc := &Document{
		Path:  DefaultPath,
		Title: "Code Map",
		Overview: fmt.Sprintf("%s codebase at %s, %d files analyzed.",
			report.Analysis.Language, report.Analysis.Path,
			report.Analysis.FilesAnalyzed),
		EntryPoints:          depgraph.EntryPoints(report),
		InternalDependencies: map[string][]string{},
		ExternalDependencies: depgraph.ExternalLibraries(report),
	}

	paths := make([]string, 0, len(report.Files))
	for path := range report.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		doc.Structure = append(doc.Structure, StructureEntry{
			Path:        path,
			Description: describeFile(report.Files[path]),
		})
	}

	for source, targets := range depgraph.FileGraph(report) {
		if len(targets) > 0 {
			doc.InternalDependencies[source] = targets
		}
	}

	return doc
}

// describeFile summarizes a file's exports into a one-line description
func describeFile(file depgraph.FileReport) string {
	var parts []string
	if n := len(file.Exports.Functions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d functions", n))
	}
	if n := len(file.Exports.Classes); n > 0 {
		parts = append(parts, fmt.Sprintf("%d classes", n))
	}
	if n := len(file.Exports.Constants); n > 0 {
		parts = append(parts, fmt.Sprintf("%d constants", n))
	}
	if len(parts) == 0 {
		return "no exports"
	}
	return "exports " + strings.Join(parts, ", ")
}

// Render writes a document back out as markdown in the canonical section
// order. Parse(Render(doc)) round-trips.
func Render(doc *Document) []byte {
	var sb strings.Builder

	title := doc.Title
	if title == "" {
		title = "Code Map"
	}
	fmt.Fprintf(&sb, "# %s\n", title)

	sb.WriteString("\n## " + sectionOverview + "\n\n")
	if doc.Overview != "" {
		sb.WriteString(doc.Overview + "\n")
	}

	sb.WriteString("\n## " + sectionStructure + "\n\n")
	for _, entry := range doc.Structure {
		if entry.Description != "" {
			fmt.Fprintf(&sb, "- `%s`: %s\n", entry.Path, entry.Description)
		} else {
			fmt.Fprintf(&sb, "- `%s`\n", entry.Path)
		}
	}

	sb.WriteString("\n## " + sectionEntryPoints + "\n\n")
	for _, path := range doc.EntryPoints {
		fmt.Fprintf(&sb, "- `%s`\n", path)
	}

	sb.WriteString("\n## " + sectionInternalDeps + "\n\n")
	for _, source := range sortedKeys(doc.InternalDependencies) {
		targets := make([]string, 0, len(doc.InternalDependencies[source]))
		for _, target := range doc.InternalDependencies[source] {
			targets = append(targets, "`"+target+"`")
		}
		fmt.Fprintf(&sb, "- `%s` -> %s\n", source, strings.Join(targets, ", "))
	}

	sb.WriteString("\n## " + sectionDataFlow + "\n\n")
	for i, step := range doc.DataFlow {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}

	sb.WriteString("\n## " + sectionExternalDeps + "\n\n")
	for _, lib := range doc.ExternalDependencies {
		fmt.Fprintf(&sb, "- `%s`\n", lib)
	}

	return []byte(sb.String())
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
