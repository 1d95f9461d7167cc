package depgraph

import "sort"

// FileGraph derives the file-level adjacency from the per-file internal
// imports. Services are expected to ship the same aggregation in the report;
// this recomputation backs the code map sync check.
func FileGraph(report *Report) map[string][]string {
	graph := make(map[string][]string, len(report.Files))
	for path, file := range report.Files {
		deps := make([]string, 0, len(file.Imports.Internal))
		deps = append(deps, file.Imports.Internal...)
		sort.Strings(deps)
		graph[path] = deps
	}
	return graph
}

// ExternalLibraries returns the sorted union of external imports across all
// files in the report.
func ExternalLibraries(report *Report) []string {
	seen := make(map[string]bool)
	var libs []string
	for _, file := range report.Files {
		for _, lib := range file.Imports.External {
			if !seen[lib] {
				libs = append(libs, lib)
				seen[lib] = true
			}
		}
	}
	sort.Strings(libs)
	return libs
}

// EntryPoints returns files no other analyzed file depends on, sorted. With
// no graph data every file is a candidate entry point.
func EntryPoints(report *Report) []string {
	inbound := make(map[string]bool)
	for _, targets := range report.DependencyGraph.FileLevel {
		for _, target := range targets {
			inbound[target] = true
		}
	}

	var roots []string
	for path := range report.Files {
		if !inbound[path] {
			roots = append(roots, path)
		}
	}
	sort.Strings(roots)
	return roots
}
