package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	content := []byte(`---
name: reviewer
description: Reviews pull requests
tags:
  - review
  - quality
---

# Reviewer

Body text.
`)

	metadata, body, err := Parse(content)
	require.NoError(t, err)
	require.NotNil(t, metadata)

	assert.Equal(t, "reviewer", String(metadata, "name"))
	assert.Equal(t, "Reviews pull requests", String(metadata, "description"))
	assert.Equal(t, []string{"review", "quality"}, StringSlice(metadata, "tags"))
	assert.Contains(t, body, "# Reviewer")
	assert.NotContains(t, body, "name: reviewer")
}

func TestParseWithoutFrontmatter(t *testing.T) {
	content := []byte("# Just content\nNo frontmatter here.\n")

	metadata, body, err := Parse(content)
	require.NoError(t, err)
	assert.Nil(t, metadata)
	assert.Equal(t, string(content), body)
}

func TestBody(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "with frontmatter",
			input: `---
name: test
---

# Content

Body text.`,
			expected: `# Content

Body text.`,
		},
		{
			name:     "no frontmatter",
			input:    "# Just content\nNo frontmatter.",
			expected: "# Just content\nNo frontmatter.",
		},
		{
			name: "unterminated frontmatter",
			input: `---
name: test
# No closing delimiter`,
			expected: `---
name: test
# No closing delimiter`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Body(tt.input))
		})
	}
}

func TestStringSlice(t *testing.T) {
	t.Run("comma separated string", func(t *testing.T) {
		m := map[string]interface{}{"tools": "bash, grep , edit"}
		assert.Equal(t, []string{"bash", "grep", "edit"}, StringSlice(m, "tools"))
	})

	t.Run("yaml array", func(t *testing.T) {
		m := map[string]interface{}{"tools": []interface{}{"bash", "grep"}}
		assert.Equal(t, []string{"bash", "grep"}, StringSlice(m, "tools"))
	})

	t.Run("missing key", func(t *testing.T) {
		assert.Nil(t, StringSlice(map[string]interface{}{}, "tools"))
	})

	t.Run("nil map", func(t *testing.T) {
		assert.Nil(t, StringSlice(nil, "tools"))
	})
}

func TestStringNilMap(t *testing.T) {
	assert.Equal(t, "", String(nil, "name"))
}
