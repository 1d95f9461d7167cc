package depgraph

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller stands in for the external analysis service, the one boundary
// this package does not control.
type fakeCaller struct {
	calls     []mcp.CallToolRequest
	responses []*mcp.CallToolResult
	errs      []error
}

func (f *fakeCaller) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.calls = append(f.calls, req)
	idx := len(f.calls) - 1
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return textResult("", false), nil
}

func textResult(text string, isErr bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: isErr,
	}
}

func validReport(t *testing.T, depth Depth) string {
	t.Helper()
	report := Report{
		Analysis: Analysis{
			ID:            "run-1",
			Path:          "./internal",
			Language:      "go",
			Depth:         depth,
			FilesAnalyzed: 2,
		},
		Files: map[string]FileReport{
			"internal/a.go": {
				Imports: Imports{External: []string{"github.com/pkg/errors"}, Internal: []string{"internal/b.go"}},
				Exports: Exports{Functions: []string{"LoadA"}},
			},
			"internal/b.go": {
				Imports: Imports{External: []string{"github.com/sirupsen/logrus"}},
				Exports: Exports{Functions: []string{"LoadB"}, Constants: []string{"DefaultDir"}},
			},
		},
		DependencyGraph: DependencyGraph{
			FileLevel: map[string][]string{
				"internal/a.go": {"internal/b.go"},
			},
		},
	}
	if depth.includesFunctions() {
		a := report.Files["internal/a.go"]
		a.Functions = []FunctionInfo{{
			Name:  "LoadA",
			Line:  10,
			Calls: []CallTarget{{Name: "LoadB", Line: 14}},
		}}
		report.Files["internal/a.go"] = a
		b := report.Files["internal/b.go"]
		b.Functions = []FunctionInfo{{Name: "LoadB", Line: 5}}
		report.Files["internal/b.go"] = b
		report.DependencyGraph.FunctionLevel = map[string][]string{
			"internal/a.go:LoadA": {"internal/b.go:LoadB"},
		}
	}

	b, err := json.Marshal(report)
	require.NoError(t, err)
	return string(b)
}

func TestAnalyze(t *testing.T) {
	caller := &fakeCaller{responses: []*mcp.CallToolResult{textResult(validReport(t, DepthFile), false)}}
	client := NewClient(caller)

	report, err := client.Analyze(context.Background(), Request{Path: "./internal"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.Analysis.ID)
	assert.Len(t, report.Files, 2)
	assert.Equal(t, []string{"internal/b.go"}, report.DependencyGraph.FileLevel["internal/a.go"])

	require.Len(t, caller.calls, 1)
	assert.Equal(t, "analyze_dependencies", caller.calls[0].Params.Name)
	args, ok := caller.calls[0].Params.Arguments.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "./internal", args["path"])
	assert.Equal(t, "file", args["depth"], "depth defaults to file")
}

func TestAnalyzeRequestValidation(t *testing.T) {
	client := NewClient(&fakeCaller{})
	ctx := context.Background()

	t.Run("missing path", func(t *testing.T) {
		_, err := client.Analyze(ctx, Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path is required")
	})

	t.Run("bad depth", func(t *testing.T) {
		_, err := client.Analyze(ctx, Request{Path: ".", Depth: "everything"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unrecognized depth")
	})

	t.Run("unsupported language hint short-circuits", func(t *testing.T) {
		caller := &fakeCaller{}
		client := NewClient(caller)
		_, err := client.Analyze(ctx, Request{Path: ".", Language: "cobol"})
		require.Error(t, err)

		var unsupported *UnsupportedLanguageError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, "cobol", unsupported.Language)
		assert.Empty(t, caller.calls, "no service round trip for a known-unsupported hint")
	})
}

func TestAnalyzeServiceUnsupportedLanguage(t *testing.T) {
	caller := &fakeCaller{responses: []*mcp.CallToolResult{
		textResult("unsupported language 'zig': no grammar registered", true),
	}}
	client := NewClient(caller)

	_, err := client.Analyze(context.Background(), Request{Path: "."})
	require.Error(t, err)

	var unsupported *UnsupportedLanguageError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "zig", unsupported.Language)
}

func TestAnalyzeRejectsContractViolations(t *testing.T) {
	report := `{
		"analysis": {"id": "x", "path": ".", "language": "go", "depth": "file", "files_analyzed": 1},
		"files": {"a.go": {"imports": {"external": ["shared"], "internal": ["shared"]}, "exports": {"functions": [], "classes": [], "constants": []}}},
		"dependency_graph": {"file_level": {}}
	}`
	caller := &fakeCaller{responses: []*mcp.CallToolResult{textResult(report, false)}}
	client := NewClient(caller)

	_, err := client.Analyze(context.Background(), Request{Path: "."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violating the contract")
	assert.Contains(t, err.Error(), "both external and internal")
}

func TestAnalyzeWithGrammarFallback(t *testing.T) {
	t.Run("generates grammar then retries", func(t *testing.T) {
		caller := &fakeCaller{responses: []*mcp.CallToolResult{
			textResult("unsupported language 'zig'", true),
			textResult("grammar generated for zig", false),
			textResult(validReport(t, DepthFile), false),
		}}
		client := NewClient(caller)

		report, err := client.AnalyzeWithGrammarFallback(context.Background(), Request{Path: "."})
		require.NoError(t, err)
		assert.Len(t, report.Files, 2)

		require.Len(t, caller.calls, 3)
		assert.Equal(t, "analyze_dependencies", caller.calls[0].Params.Name)
		assert.Equal(t, "generate_grammar", caller.calls[1].Params.Name)
		assert.Equal(t, "analyze_dependencies", caller.calls[2].Params.Name)
	})

	t.Run("non-language errors are not retried", func(t *testing.T) {
		caller := &fakeCaller{responses: []*mcp.CallToolResult{
			textResult("internal service failure", true),
		}}
		client := NewClient(caller)

		_, err := client.AnalyzeWithGrammarFallback(context.Background(), Request{Path: "."})
		require.Error(t, err)
		assert.Len(t, caller.calls, 1)
	})

	t.Run("grammar generation failure stops the retry", func(t *testing.T) {
		caller := &fakeCaller{responses: []*mcp.CallToolResult{
			textResult("unsupported language 'zig'", true),
			textResult("sample extraction failed", true),
		}}
		client := NewClient(caller)

		_, err := client.AnalyzeWithGrammarFallback(context.Background(), Request{Path: "."})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "grammar generation")
		assert.Len(t, caller.calls, 2)
	})
}

func TestGenerateGrammar(t *testing.T) {
	caller := &fakeCaller{responses: []*mcp.CallToolResult{textResult("ok", false)}}
	client := NewClient(caller)

	out, err := client.GenerateGrammar(context.Background(), "zig", []string{"main.zig"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	args := caller.calls[0].Params.Arguments.(map[string]any)
	assert.Equal(t, "zig", args["language"])

	_, err = client.GenerateGrammar(context.Background(), "", nil)
	assert.Error(t, err)
}
