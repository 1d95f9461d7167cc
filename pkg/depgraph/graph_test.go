package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func graphReport() *Report {
	return &Report{
		Analysis: Analysis{ID: "run", Path: ".", Depth: DepthFile, FilesAnalyzed: 3},
		Files: map[string]FileReport{
			"cmd/main.go": {
				Imports: Imports{
					External: []string{"github.com/spf13/cobra"},
					Internal: []string{"pkg/core.go"},
				},
			},
			"pkg/core.go": {
				Imports: Imports{
					External: []string{"github.com/pkg/errors", "github.com/spf13/cobra"},
					Internal: []string{"pkg/util.go"},
				},
			},
			"pkg/util.go": {},
		},
		DependencyGraph: DependencyGraph{
			FileLevel: map[string][]string{
				"cmd/main.go": {"pkg/core.go"},
				"pkg/core.go": {"pkg/util.go"},
			},
		},
	}
}

func TestFileGraph(t *testing.T) {
	graph := FileGraph(graphReport())

	assert.Equal(t, []string{"pkg/core.go"}, graph["cmd/main.go"])
	assert.Equal(t, []string{"pkg/util.go"}, graph["pkg/core.go"])
	assert.Empty(t, graph["pkg/util.go"])
}

func TestExternalLibraries(t *testing.T) {
	libs := ExternalLibraries(graphReport())
	assert.Equal(t, []string{"github.com/pkg/errors", "github.com/spf13/cobra"}, libs)
}

func TestEntryPoints(t *testing.T) {
	roots := EntryPoints(graphReport())
	assert.Equal(t, []string{"cmd/main.go"}, roots)
}

func TestSchema(t *testing.T) {
	schema := Schema()
	assert.NotNil(t, schema)

	b, err := schema.MarshalJSON()
	assert.NoError(t, err)
	assert.Contains(t, string(b), "dependency_graph")
	assert.Contains(t, string(b), "files_analyzed")
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", DetectLanguage("pkg/core.go"))
	assert.Equal(t, "typescript", DetectLanguage("web/App.TSX"))
	assert.Equal(t, "", DetectLanguage("grammar.zig"))
}

func TestLanguageSupported(t *testing.T) {
	assert.True(t, LanguageSupported("go"))
	assert.True(t, LanguageSupported("python"))
	assert.False(t, LanguageSupported("cobol"))
}

func TestSupportedLanguagesSorted(t *testing.T) {
	langs := SupportedLanguages()
	assert.Contains(t, langs, "go")
	assert.Contains(t, langs, "rust")
	for i := 1; i < len(langs); i++ {
		assert.Less(t, langs[i-1], langs[i])
	}
}
