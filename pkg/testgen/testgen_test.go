package testgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trophyhq/trophy/pkg/openspec"
)

const cacheSpec = `## Requirement: Expired entries are evicted

#### Scenario: read after expiry

- WHEN a cached entry older than its TTL is read
- THEN the entry is removed from the cache
- AND the read returns a miss

#### Scenario: read before expiry

- WHEN a cached entry younger than its TTL is read
- THEN the cached value is returned

## Requirement: Capacity is bounded

#### Scenario: insert at capacity

- WHEN an entry is inserted into a full cache
- THEN the least recently used entry is evicted
`

func TestGenerate(t *testing.T) {
	doc, err := openspec.Parse([]byte(cacheSpec))
	require.NoError(t, err)
	doc.Path = "openspec/specs/cache.md"

	gen, err := NewGenerator()
	require.NoError(t, err)

	out, err := gen.Generate(doc, Options{PackageName: "cache", EntryPoint: "cache.New"})
	require.NoError(t, err)

	assert.Contains(t, out, "package cache")
	assert.Contains(t, out, "openspec/specs/cache.md")
	assert.Contains(t, out, "func TestExpiredEntriesAreEvicted(t *testing.T)")
	assert.Contains(t, out, "func TestCapacityIsBounded(t *testing.T)")
	assert.Contains(t, out, `t.Run("read after expiry"`)
	assert.Contains(t, out, "// WHEN a cached entry older than its TTL is read")
	assert.Contains(t, out, "// THEN the read returns a miss")
	assert.Contains(t, out, "cache.New")

	// One subtest per scenario, no more, no less.
	assert.Equal(t, doc.ScenarioCount(), strings.Count(out, "t.Run("))
}

func TestGenerateScenarioCountMatches(t *testing.T) {
	doc, err := openspec.Parse([]byte(cacheSpec))
	require.NoError(t, err)

	gen, err := NewGenerator()
	require.NoError(t, err)

	out, err := gen.Generate(doc, Options{PackageName: "cache"})
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "t.Run("))
	assert.Equal(t, 3, strings.Count(out, `t.Skip("pending implementation")`))
}

func TestGenerateRequiresPackageName(t *testing.T) {
	doc, err := openspec.Parse([]byte(cacheSpec))
	require.NoError(t, err)

	gen, err := NewGenerator()
	require.NoError(t, err)

	_, err = gen.Generate(doc, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package name is required")
}

func TestGenerateRejectsInvalidSpec(t *testing.T) {
	doc, err := openspec.Parse([]byte("## Requirement: Empty\n\nNo scenarios.\n"))
	require.NoError(t, err)

	gen, err := NewGenerator()
	require.NoError(t, err)

	_, err = gen.Generate(doc, Options{PackageName: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid")
}

func TestGenerateCollidingRequirementNames(t *testing.T) {
	spec := `## Requirement: retry logic

#### Scenario: a

- WHEN x
- THEN y

## Requirement: Retry Logic

#### Scenario: b

- WHEN x
- THEN y
`
	doc, err := openspec.Parse([]byte(spec))
	require.NoError(t, err)

	gen, err := NewGenerator()
	require.NoError(t, err)

	out, err := gen.Generate(doc, Options{PackageName: "retry"})
	require.NoError(t, err)

	assert.Contains(t, out, "func TestRetryLogic(t *testing.T)")
	assert.Contains(t, out, "func TestRetryLogic2(t *testing.T)")
}

func TestExportedIdent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Expired entries are evicted", "ExpiredEntriesAreEvicted"},
		{"retry-after-failure", "RetryAfterFailure"},
		{"http2 support", "Http2Support"},
		{"---", "Requirement"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, exportedIdent(tt.input))
		})
	}
}
