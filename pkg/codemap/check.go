package codemap

import (
	"fmt"
	"sort"

	"github.com/aymanbagabas/go-udiff"

	"github.com/trophyhq/trophy/pkg/depgraph"
)

// FindingKind classifies one discrepancy between document and report
type FindingKind string

const (
	// FindingMissing marks something the report has and the document lacks
	FindingMissing FindingKind = "missing"
	// FindingStale marks something the document has that the report no
	// longer shows
	FindingStale FindingKind = "stale"
)

// Finding is one discrepancy with its location
type Finding struct {
	Kind    FindingKind `json:"kind"`
	Section string      `json:"section"`
	Detail  string      `json:"detail"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Kind, f.Section, f.Detail)
}

// CheckResult is the outcome of a sync check
type CheckResult struct {
	Findings []Finding `json:"findings,omitempty"`
	// Diff is a unified diff from the document's machine-derived sections to
	// the ones a fresh generation would produce. Empty when in sync.
	Diff string `json:"diff,omitempty"`
}

// InSync reports whether the document matches the report
func (r *CheckResult) InSync() bool {
	return len(r.Findings) == 0
}

// Check compares a code map document against a fresh dependency report. The
// overview and data flow sections are human-authored and never checked.
func Check(doc *Document, report *depgraph.Report) *CheckResult {
	result := &CheckResult{}

	result.compareSet(sectionStructure, doc.StructurePaths(), reportPaths(report))
	result.compareSet(sectionEntryPoints, doc.EntryPoints, depgraph.EntryPoints(report))
	result.compareSet(sectionExternalDeps, doc.ExternalDependencies, depgraph.ExternalLibraries(report))
	result.compareEdges(doc.InternalDependencies, depgraph.FileGraph(report))

	if !result.InSync() {
		fresh := Generate(report)
		fresh.Overview = doc.Overview
		fresh.DataFlow = doc.DataFlow
		result.Diff = udiff.Unified(doc.Path, "dependency report", string(Render(doc)), string(Render(fresh)))
	}

	return result
}

// compareSet records set differences between documented and reported values
func (r *CheckResult) compareSet(section string, documented, reported []string) {
	docSet := toSet(documented)
	repSet := toSet(reported)

	for _, v := range reported {
		if !docSet[v] {
			r.Findings = append(r.Findings, Finding{
				Kind: FindingMissing, Section: section,
				Detail: fmt.Sprintf("'%s' is in the dependency report but not documented", v),
			})
		}
	}
	for _, v := range documented {
		if !repSet[v] {
			r.Findings = append(r.Findings, Finding{
				Kind: FindingStale, Section: section,
				Detail: fmt.Sprintf("'%s' is documented but absent from the dependency report", v),
			})
		}
	}
}

// compareEdges records per-source edge differences
func (r *CheckResult) compareEdges(documented, reported map[string][]string) {
	sources := toSet(nil)
	for s := range documented {
		sources[s] = true
	}
	for s, targets := range reported {
		if len(targets) > 0 {
			sources[s] = true
		}
	}

	for _, source := range setKeys(sources) {
		docTargets := toSet(documented[source])
		repTargets := toSet(reported[source])
		for _, target := range setKeys(repTargets) {
			if !docTargets[target] {
				r.Findings = append(r.Findings, Finding{
					Kind: FindingMissing, Section: sectionInternalDeps,
					Detail: fmt.Sprintf("'%s' depends on '%s' but the edge is not documented", source, target),
				})
			}
		}
		for _, target := range setKeys(docTargets) {
			if !repTargets[target] {
				r.Findings = append(r.Findings, Finding{
					Kind: FindingStale, Section: sectionInternalDeps,
					Detail: fmt.Sprintf("documented edge '%s' -> '%s' is absent from the dependency report", source, target),
				})
			}
		}
	}
}

func reportPaths(report *depgraph.Report) []string {
	paths := make([]string, 0, len(report.Files))
	for path := range report.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func setKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
