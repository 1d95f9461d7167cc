// Package depgraph implements the consumer side of the dependency-report
// contract: the JSON document an external grammar-parsing service returns
// when asked to analyze a source tree. The service itself lives behind a
// plugin protocol; this package holds the report types, their validation,
// and the client that requests them.
package depgraph

import "github.com/invopop/jsonschema"

// Depth selects how much of the report the service populates
type Depth string

const (
	// DepthFile reports imports and exports only
	DepthFile Depth = "file"
	// DepthFunction adds the per-function call graph
	DepthFunction Depth = "function"
	// DepthFull reports everything the grammar can extract
	DepthFull Depth = "full"
)

// Valid reports whether the depth is one of the recognized values
func (d Depth) Valid() bool {
	switch d {
	case DepthFile, DepthFunction, DepthFull:
		return true
	}
	return false
}

// includesFunctions reports whether the depth carries function-level data
func (d Depth) includesFunctions() bool {
	return d == DepthFunction || d == DepthFull
}

// Request describes one analysis run
type Request struct {
	// Path is the root to analyze, required.
	Path string `json:"path"`
	// Language optionally overrides extension-based detection.
	Language string `json:"language,omitempty"`
	// Depth defaults to DepthFile when empty.
	Depth Depth `json:"depth,omitempty"`
}

// Report is the top-level analysis document
type Report struct {
	Analysis        Analysis              `json:"analysis"`
	Files           map[string]FileReport `json:"files"`
	DependencyGraph DependencyGraph       `json:"dependency_graph"`
}

// Analysis identifies one analysis run
type Analysis struct {
	ID            string `json:"id"`
	Path          string `json:"path"`
	Language      string `json:"language"`
	Depth         Depth  `json:"depth"`
	FilesAnalyzed int    `json:"files_analyzed"`
}

// FileReport describes one analyzed file
type FileReport struct {
	Imports   Imports        `json:"imports"`
	Exports   Exports        `json:"exports"`
	Functions []FunctionInfo `json:"functions,omitempty"`
}

// Imports splits a file's imports into external libraries and in-project modules
type Imports struct {
	External []string `json:"external"`
	Internal []string `json:"internal"`
}

// Exports lists a file's exported identifiers
type Exports struct {
	Functions []string `json:"functions"`
	Classes   []string `json:"classes"`
	Constants []string `json:"constants"`
}

// FunctionInfo is per-function call data, present at function or full depth
type FunctionInfo struct {
	Name    string       `json:"name"`
	Line    int          `json:"line"`
	Calls   []CallTarget `json:"calls,omitempty"`
	Params  []string     `json:"params,omitempty"`
	Returns string       `json:"returns,omitempty"`
}

// CallTarget is one outgoing call edge with its source location
type CallTarget struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// DependencyGraph aggregates the per-file data into adjacency mappings
type DependencyGraph struct {
	// FileLevel maps a file path to the files it depends on.
	FileLevel map[string][]string `json:"file_level"`
	// FunctionLevel maps a function identifier to the identifiers it calls.
	FunctionLevel map[string][]string `json:"function_level,omitempty"`
}

// Schema returns the JSON Schema of the report contract, suitable for
// handing to service implementers.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	return reflector.Reflect(&Report{})
}
