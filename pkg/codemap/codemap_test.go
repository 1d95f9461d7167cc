package codemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trophyhq/trophy/pkg/depgraph"
)

const sampleMap = `# Code Map

## Overview

Order processing service, python.

## Structure

- ` + "`api.py`" + `: HTTP handlers
- ` + "`orders.py`" + `: order lifecycle
- ` + "`db.py`" + `

## Entry Points

- ` + "`api.py`" + `

## Internal Dependencies

- ` + "`api.py`" + ` -> ` + "`orders.py`" + `
- ` + "`orders.py`" + ` -> ` + "`db.py`" + `

## Data Flow

1. Request hits the API layer.
2. Orders module applies business rules.

## External Dependencies

- ` + "`flask`" + `
- ` + "`sqlalchemy`" + `
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleMap))
	require.NoError(t, err)

	assert.Equal(t, "Code Map", doc.Title)
	assert.Equal(t, "Order processing service, python.", doc.Overview)

	require.Len(t, doc.Structure, 3)
	assert.Equal(t, "api.py", doc.Structure[0].Path)
	assert.Equal(t, "HTTP handlers", doc.Structure[0].Description)
	assert.Equal(t, "db.py", doc.Structure[2].Path)
	assert.Empty(t, doc.Structure[2].Description)

	assert.Equal(t, []string{"api.py"}, doc.EntryPoints)
	assert.Equal(t, []string{"orders.py"}, doc.InternalDependencies["api.py"])
	assert.Equal(t, []string{"db.py"}, doc.InternalDependencies["orders.py"])
	assert.Len(t, doc.DataFlow, 2)
	assert.Equal(t, []string{"flask", "sqlalchemy"}, doc.ExternalDependencies)
}

func TestParseBadDependencyLine(t *testing.T) {
	source := "# Code Map\n\n## Internal Dependencies\n\n- api.py uses orders.py\n"
	_, err := Parse([]byte(source))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'source -> target' form")
}

func TestParseSkipsUnknownSections(t *testing.T) {
	source := sampleMap + "\n## Deployment\n\n- handled by terraform\n"
	doc, err := Parse([]byte(source))
	require.NoError(t, err)
	assert.Equal(t, []string{"flask", "sqlalchemy"}, doc.ExternalDependencies)
}

func sampleReport() *depgraph.Report {
	return &depgraph.Report{
		Analysis: depgraph.Analysis{
			ID:            "run-1",
			Path:          "./svc",
			Language:      "python",
			Depth:         depgraph.DepthFile,
			FilesAnalyzed: 3,
		},
		Files: map[string]depgraph.FileReport{
			"api.py": {
				Imports: depgraph.Imports{External: []string{"flask"}, Internal: []string{"orders.py"}},
				Exports: depgraph.Exports{Functions: []string{"create_order"}},
			},
			"orders.py": {
				Imports: depgraph.Imports{Internal: []string{"db.py"}},
				Exports: depgraph.Exports{Classes: []string{"Order"}},
			},
			"db.py": {
				Imports: depgraph.Imports{External: []string{"sqlalchemy"}},
				Exports: depgraph.Exports{Functions: []string{"connect"}, Constants: []string{"POOL_SIZE"}},
			},
		},
		DependencyGraph: depgraph.DependencyGraph{
			FileLevel: map[string][]string{
				"api.py":    {"orders.py"},
				"orders.py": {"db.py"},
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	doc := Generate(sampleReport())

	assert.Equal(t, []string{"api.py", "db.py", "orders.py"}, doc.StructurePaths())
	assert.Equal(t, "exports 1 functions", doc.Structure[0].Description)
	assert.Equal(t, "exports 1 functions, 1 constants", doc.Structure[1].Description)
	assert.Equal(t, []string{"api.py"}, doc.EntryPoints)
	assert.Equal(t, []string{"orders.py"}, doc.InternalDependencies["api.py"])
	assert.NotContains(t, doc.InternalDependencies, "db.py")
	assert.Equal(t, []string{"flask", "sqlalchemy"}, doc.ExternalDependencies)
}

func TestRenderRoundTrip(t *testing.T) {
	generated := Generate(sampleReport())
	generated.DataFlow = []string{"API calls orders.", "Orders persist via db."}

	parsed, err := Parse(Render(generated))
	require.NoError(t, err)

	assert.Equal(t, generated.Overview, parsed.Overview)
	assert.Equal(t, generated.StructurePaths(), parsed.StructurePaths())
	assert.Equal(t, generated.EntryPoints, parsed.EntryPoints)
	assert.Equal(t, generated.InternalDependencies, parsed.InternalDependencies)
	assert.Equal(t, generated.DataFlow, parsed.DataFlow)
	assert.Equal(t, generated.ExternalDependencies, parsed.ExternalDependencies)
}

func TestCheckInSync(t *testing.T) {
	report := sampleReport()
	result := Check(Generate(report), report)

	assert.True(t, result.InSync())
	assert.Empty(t, result.Diff)
}

func TestCheckFindsDrift(t *testing.T) {
	report := sampleReport()

	doc, err := Parse([]byte(sampleMap))
	require.NoError(t, err)
	doc.Path = "CODEMAP.md"

	// Drift the report: a new file appears with a new library, and db.py
	// goes away.
	delete(report.Files, "db.py")
	report.Files["orders.py"] = depgraph.FileReport{
		Imports: depgraph.Imports{Internal: []string{"cache.py"}},
		Exports: depgraph.Exports{Classes: []string{"Order"}},
	}
	report.Files["cache.py"] = depgraph.FileReport{
		Imports: depgraph.Imports{External: []string{"redis"}},
		Exports: depgraph.Exports{Functions: []string{"get"}},
	}
	report.Analysis.FilesAnalyzed = 3
	report.DependencyGraph.FileLevel = map[string][]string{
		"api.py":    {"orders.py"},
		"orders.py": {"cache.py"},
	}

	result := Check(doc, report)
	require.False(t, result.InSync())
	assert.NotEmpty(t, result.Diff)

	kinds := map[string]bool{}
	for _, f := range result.Findings {
		kinds[string(f.Kind)+"/"+f.Section] = true
	}
	assert.True(t, kinds["missing/Structure"], "cache.py should be reported missing")
	assert.True(t, kinds["stale/Structure"], "db.py should be reported stale")
	assert.True(t, kinds["missing/External Dependencies"], "redis should be reported missing")
	assert.True(t, kinds["stale/Internal Dependencies"], "orders.py -> db.py should be stale")
	assert.True(t, kinds["missing/Internal Dependencies"], "orders.py -> cache.py should be missing")
}
