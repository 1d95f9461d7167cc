package depgraph

import (
	"path/filepath"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate checks a report against the contract invariants:
//
//   - every files key stays under the analyzed path
//   - external and internal import sets are disjoint per file
//   - depth "file" carries no function-level data
//   - depth "full" carries function data for every file that exports
//     functions
//   - the file-level graph connects analyzed files only, and the
//     function-level graph connects declared functions only
//
// All violations are collected, not just the first.
func Validate(report *Report) error {
	var result *multierror.Error

	if !report.Analysis.Depth.Valid() {
		result = multierror.Append(result, errors.Errorf("unrecognized depth '%s'", report.Analysis.Depth))
	}
	if report.Analysis.Path == "" {
		result = multierror.Append(result, errors.New("analysis path is empty"))
	}
	if report.Analysis.FilesAnalyzed != len(report.Files) {
		result = multierror.Append(result, errors.Errorf(
			"files_analyzed is %d but the report contains %d files",
			report.Analysis.FilesAnalyzed, len(report.Files)))
	}

	for path, file := range report.Files {
		if escapesRoot(path) {
			result = multierror.Append(result, errors.Errorf("file '%s' is outside the analyzed path", path))
		}

		if overlap := intersect(file.Imports.External, file.Imports.Internal); len(overlap) > 0 {
			result = multierror.Append(result, errors.Errorf(
				"file '%s' lists %v as both external and internal imports", path, overlap))
		}

		if !report.Analysis.Depth.includesFunctions() && len(file.Functions) > 0 {
			result = multierror.Append(result, errors.Errorf(
				"file '%s' carries function data at depth '%s'", path, report.Analysis.Depth))
		}

		if report.Analysis.Depth == DepthFull && len(file.Exports.Functions) > 0 && len(file.Functions) == 0 {
			result = multierror.Append(result, errors.Errorf(
				"file '%s' exports functions but carries no function data at depth 'full'", path))
		}
	}

	if !report.Analysis.Depth.includesFunctions() && len(report.DependencyGraph.FunctionLevel) > 0 {
		result = multierror.Append(result, errors.Errorf(
			"function-level graph present at depth '%s'", report.Analysis.Depth))
	}

	for source, targets := range report.DependencyGraph.FileLevel {
		if _, ok := report.Files[source]; !ok {
			result = multierror.Append(result, errors.Errorf(
				"file-level graph references unanalyzed file '%s'", source))
		}
		for _, target := range targets {
			if _, ok := report.Files[target]; !ok {
				result = multierror.Append(result, errors.Errorf(
					"file-level graph edge %s -> %s targets an unanalyzed file", source, target))
			}
		}
	}

	if len(report.DependencyGraph.FunctionLevel) > 0 {
		declared := declaredFunctions(report)
		for source, targets := range report.DependencyGraph.FunctionLevel {
			if !declared[source] {
				result = multierror.Append(result, errors.Errorf(
					"function-level graph references undeclared function '%s'", source))
			}
			for _, target := range targets {
				if !declared[target] {
					result = multierror.Append(result, errors.Errorf(
						"function-level graph edge %s -> %s targets an undeclared function", source, target))
				}
			}
		}
	}

	return result.ErrorOrNil()
}

// declaredFunctions collects every "path:name" identifier the report declares.
func declaredFunctions(report *Report) map[string]bool {
	set := make(map[string]bool)
	for path, file := range report.Files {
		for _, fn := range file.Functions {
			set[path+":"+fn.Name] = true
		}
	}
	return set
}

// escapesRoot reports whether a relative report key climbs out of the
// analyzed path.
func escapesRoot(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	return clean == ".." || strings.HasPrefix(clean, "../")
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	var overlap []string
	for _, s := range b {
		if set[s] {
			overlap = append(overlap, s)
		}
	}
	return overlap
}
