package depgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/logger"
)

const (
	analyzeToolName = "analyze_dependencies"
	grammarToolName = "generate_grammar"
)

// ToolCaller is the slice of the plugin protocol the client needs. The
// mcp-go client satisfies it.
type ToolCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Client requests dependency reports from the external analysis service
type Client struct {
	caller ToolCaller
}

// NewClient creates a client over an initialized plugin connection
func NewClient(caller ToolCaller) *Client {
	return &Client{caller: caller}
}

// Analyze runs one analysis and validates the returned report against the
// contract. An unsupported language surfaces as *UnsupportedLanguageError so
// callers can fall back to grammar generation.
func (c *Client) Analyze(ctx context.Context, req Request) (*Report, error) {
	if req.Path == "" {
		return nil, errors.New("analysis path is required")
	}
	if req.Depth == "" {
		req.Depth = DepthFile
	}
	if !req.Depth.Valid() {
		return nil, errors.Errorf("unrecognized depth '%s', must be one of: file, function, full", req.Depth)
	}
	if req.Language != "" && !LanguageSupported(req.Language) {
		return nil, &UnsupportedLanguageError{Language: req.Language}
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"path":  req.Path,
		"depth": req.Depth,
	}).Debug("requesting dependency analysis")

	args := map[string]any{
		"path":  req.Path,
		"depth": string(req.Depth),
	}
	if req.Language != "" {
		args["language"] = req.Language
	}

	call := mcp.CallToolRequest{}
	call.Params.Name = analyzeToolName
	call.Params.Arguments = args

	result, err := c.caller.CallTool(ctx, call)
	if err != nil {
		return nil, errors.Wrap(err, "dependency analysis call failed")
	}

	text := textContent(result)
	if result.IsError {
		if lang, ok := unsupportedLanguage(text); ok {
			return nil, &UnsupportedLanguageError{Language: lang}
		}
		return nil, errors.Errorf("dependency analysis failed: %s", text)
	}

	var report Report
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, errors.Wrap(err, "failed to decode dependency report")
	}
	if report.Analysis.ID == "" {
		report.Analysis.ID = uuid.NewString()
	}
	if report.Analysis.Depth == "" {
		report.Analysis.Depth = req.Depth
	}

	if err := Validate(&report); err != nil {
		return nil, errors.Wrap(err, "service returned a report violating the contract")
	}

	return &report, nil
}

// GenerateGrammar asks the service to generate a parser grammar for a
// language. Generation is heuristic and sample-driven on the service side;
// the returned text describes what was generated.
func (c *Client) GenerateGrammar(ctx context.Context, language string, samplePaths []string) (string, error) {
	if language == "" {
		return "", errors.New("language is required")
	}

	logger.G(ctx).WithField("language", language).Info("requesting grammar generation")

	call := mcp.CallToolRequest{}
	call.Params.Name = grammarToolName
	call.Params.Arguments = map[string]any{
		"language": language,
		"samples":  samplePaths,
	}

	result, err := c.caller.CallTool(ctx, call)
	if err != nil {
		return "", errors.Wrapf(err, "grammar generation for '%s' failed", language)
	}

	text := textContent(result)
	if result.IsError {
		return "", errors.Errorf("grammar generation for '%s' failed: %s", language, text)
	}

	return text, nil
}

// AnalyzeWithGrammarFallback analyzes the path and, when the service lacks a
// grammar for the language involved, generates one and retries once.
func (c *Client) AnalyzeWithGrammarFallback(ctx context.Context, req Request) (*Report, error) {
	var report *Report

	err := retry.Do(
		func() error {
			var err error
			report, err = c.Analyze(ctx, req)
			if err == nil {
				return nil
			}

			var unsupported *UnsupportedLanguageError
			if !errors.As(err, &unsupported) {
				return retry.Unrecoverable(err)
			}

			if _, genErr := c.GenerateGrammar(ctx, unsupported.Language, unsupported.Files); genErr != nil {
				return retry.Unrecoverable(genErr)
			}
			// Grammar generated; the next attempt may now succeed.
			return err
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// textContent concatenates the text parts of a tool result
func textContent(result *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			sb.WriteString(text.Text)
		} else {
			fmt.Fprintf(&sb, "%v", content)
		}
	}
	return sb.String()
}

// unsupportedLanguage recognizes the service's unsupported-language error
// text and extracts the language name when present.
func unsupportedLanguage(text string) (string, bool) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, "unsupported language")
	if idx == -1 {
		return "", false
	}

	rest := strings.TrimSpace(text[idx+len("unsupported language"):])
	rest = strings.TrimPrefix(rest, ":")
	if fields := strings.Fields(rest); len(fields) > 0 {
		return strings.Trim(fields[0], "'\""), true
	}
	return "", true
}
