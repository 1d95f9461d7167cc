// Package frontmatter extracts YAML frontmatter and body content from
// markdown documents. Every document kind in a bundle (agents, skills,
// commands, rules) carries its metadata this way.
package frontmatter

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Parse returns the frontmatter metadata map and the markdown body of a
// document. A missing frontmatter block yields a nil map and the content
// unchanged; malformed YAML is an error.
func Parse(content []byte) (map[string]interface{}, string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, string(content), errors.Wrap(err, "failed to parse markdown")
	}

	return meta.Get(pctx), Body(string(content)), nil
}

// Body strips the YAML frontmatter block and returns the markdown body.
// Content without a frontmatter block is returned unchanged.
func Body(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n")
}

// String reads a string field from a metadata map, returning "" when absent
// or not a string.
func String(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// StringSlice reads a field that may be a YAML array or a comma-separated
// string, the two spellings bundles use interchangeably.
func StringSlice(m map[string]interface{}, key string) []string {
	if m == nil {
		return nil
	}

	switch v := m[key].(type) {
	case []interface{}:
		var result []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					result = append(result, trimmed)
				}
			}
		}
		return result
	case string:
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	default:
		return nil
	}
}
