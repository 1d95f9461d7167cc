package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalReport(depth Depth) *Report {
	return &Report{
		Analysis: Analysis{
			ID:            "run",
			Path:          ".",
			Language:      "go",
			Depth:         depth,
			FilesAnalyzed: 2,
		},
		Files: map[string]FileReport{
			"a.go": {
				Imports: Imports{External: []string{"github.com/pkg/errors"}, Internal: []string{"b.go"}},
			},
			"b.go": {},
		},
		DependencyGraph: DependencyGraph{
			FileLevel: map[string][]string{"a.go": {"b.go"}},
		},
	}
}

func TestValidateAcceptsConformingReport(t *testing.T) {
	assert.NoError(t, Validate(minimalReport(DepthFile)))
}

func TestValidateDepthGating(t *testing.T) {
	t.Run("function data at file depth", func(t *testing.T) {
		report := minimalReport(DepthFile)
		file := report.Files["a.go"]
		file.Functions = []FunctionInfo{{Name: "F", Line: 1}}
		report.Files["a.go"] = file

		err := Validate(report)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "function data at depth 'file'")
	})

	t.Run("function graph at file depth", func(t *testing.T) {
		report := minimalReport(DepthFile)
		report.DependencyGraph.FunctionLevel = map[string][]string{"a.go:F": {}}

		err := Validate(report)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "function-level graph present")
	})

	t.Run("function data at function depth is fine", func(t *testing.T) {
		report := minimalReport(DepthFunction)
		file := report.Files["a.go"]
		file.Functions = []FunctionInfo{{Name: "F", Line: 1}}
		report.Files["a.go"] = file
		report.DependencyGraph.FunctionLevel = map[string][]string{"a.go:F": {}}

		assert.NoError(t, Validate(report))
	})
}

func TestValidateFullDepthFunctionData(t *testing.T) {
	t.Run("exported functions without function data", func(t *testing.T) {
		report := minimalReport(DepthFull)
		file := report.Files["a.go"]
		file.Exports.Functions = []string{"F"}
		report.Files["a.go"] = file

		err := Validate(report)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exports functions but carries no function data at depth 'full'")
	})

	t.Run("exported functions with function data", func(t *testing.T) {
		report := minimalReport(DepthFull)
		file := report.Files["a.go"]
		file.Exports.Functions = []string{"F"}
		file.Functions = []FunctionInfo{{Name: "F", Line: 1}}
		report.Files["a.go"] = file

		assert.NoError(t, Validate(report))
	})

	t.Run("function depth leaves the gate closed", func(t *testing.T) {
		report := minimalReport(DepthFunction)
		file := report.Files["a.go"]
		file.Exports.Functions = []string{"F"}
		report.Files["a.go"] = file

		assert.NoError(t, Validate(report))
	})
}

func TestValidateFunctionGraphEndpoints(t *testing.T) {
	report := minimalReport(DepthFull)
	file := report.Files["a.go"]
	file.Functions = []FunctionInfo{{Name: "F", Line: 1}}
	report.Files["a.go"] = file
	report.DependencyGraph.FunctionLevel = map[string][]string{
		"a.go:F":           {"a.go:Missing"},
		"ghost.go:Phantom": {},
	}

	err := Validate(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared function 'ghost.go:Phantom'")
	assert.Contains(t, err.Error(), "a.go:F -> a.go:Missing")
}

func TestValidateImportDisjointness(t *testing.T) {
	report := minimalReport(DepthFile)
	file := report.Files["a.go"]
	file.Imports.Internal = append(file.Imports.Internal, "github.com/pkg/errors")
	report.Files["a.go"] = file

	err := Validate(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both external and internal")
}

func TestValidatePathContainment(t *testing.T) {
	report := minimalReport(DepthFile)
	report.Files["../outside.go"] = FileReport{}
	report.Analysis.FilesAnalyzed = 3

	err := Validate(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the analyzed path")
}

func TestValidateGraphEndpoints(t *testing.T) {
	report := minimalReport(DepthFile)
	report.DependencyGraph.FileLevel["ghost.go"] = []string{"a.go"}
	report.DependencyGraph.FileLevel["a.go"] = []string{"missing.go"}

	err := Validate(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unanalyzed file 'ghost.go'")
	assert.Contains(t, err.Error(), "a.go -> missing.go")
}

func TestValidateCountMismatch(t *testing.T) {
	report := minimalReport(DepthFile)
	report.Analysis.FilesAnalyzed = 5

	err := Validate(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "files_analyzed is 5")
}

func TestValidateCollectsAllViolations(t *testing.T) {
	report := minimalReport(DepthFile)
	report.Analysis.Path = ""
	report.Analysis.Depth = "everything"

	err := Validate(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized depth")
	assert.Contains(t, err.Error(), "path is empty")
}

func TestEscapesRoot(t *testing.T) {
	assert.True(t, escapesRoot("/abs/path.go"))
	assert.True(t, escapesRoot("../up.go"))
	assert.True(t, escapesRoot("a/../../up.go"))
	assert.False(t, escapesRoot("a/b.go"))
	assert.False(t, escapesRoot("b.go"))
}
