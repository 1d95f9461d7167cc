// Package testgen renders Go test skeletons from OpenSpec documents. Every
// scenario becomes exactly one subtest, so a spec with N scenarios always
// yields N test cases; the generated bodies are skipped skeletons carrying
// the WHEN/THEN lines as comments for the author to fill in.
package testgen

import (
	"embed"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/openspec"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const skeletonTemplate = "templates/skeleton.tmpl"

// Options configures skeleton generation
type Options struct {
	// PackageName is the package of the generated file. Required.
	PackageName string
	// EntryPoint optionally names the function or command the tests should
	// exercise; it is surfaced as a comment in each skeleton.
	EntryPoint string
}

// Generator renders test skeletons from parsed spec documents
type Generator struct {
	tmpl *template.Template
}

// NewGenerator creates a generator from the embedded templates
func NewGenerator() (*Generator, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse testgen templates")
	}
	return &Generator{tmpl: tmpl}, nil
}

type templateContext struct {
	SpecPath     string
	PackageName  string
	EntryPoint   string
	Requirements []requirementContext
}

type requirementContext struct {
	FuncName  string
	Scenarios []*openspec.Scenario
}

// Generate renders one _test.go file for the document. The scenario count of
// the document equals the subtest count of the output.
func (g *Generator) Generate(doc *openspec.Document, opts Options) (string, error) {
	if opts.PackageName == "" {
		return "", errors.New("package name is required")
	}
	if err := openspec.Validate(doc); err != nil {
		return "", errors.Wrap(err, "spec document is not valid")
	}

	ctx := templateContext{
		SpecPath:    doc.Path,
		PackageName: opts.PackageName,
		EntryPoint:  opts.EntryPoint,
	}

	seen := make(map[string]int)
	for _, req := range doc.Requirements {
		funcName := exportedIdent(req.Name)
		// Requirements whose names collapse to the same identifier get a
		// numeric suffix so the file still compiles.
		seen[funcName]++
		if n := seen[funcName]; n > 1 {
			funcName = funcName + strconv.Itoa(n)
		}
		ctx.Requirements = append(ctx.Requirements, requirementContext{
			FuncName:  funcName,
			Scenarios: req.Scenarios,
		})
	}

	var sb strings.Builder
	if err := g.tmpl.ExecuteTemplate(&sb, "skeleton.tmpl", ctx); err != nil {
		return "", errors.Wrap(err, "failed to render test skeleton")
	}

	return sb.String(), nil
}

// exportedIdent turns a requirement name into an exported Go identifier
func exportedIdent(name string) string {
	var sb strings.Builder
	upperNext := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			if upperNext {
				sb.WriteRune(unicode.ToUpper(r))
				upperNext = false
			} else {
				sb.WriteRune(r)
			}
		case unicode.IsDigit(r) && sb.Len() > 0:
			sb.WriteRune(r)
			upperNext = true
		default:
			upperNext = true
		}
	}
	if sb.Len() == 0 {
		return "Requirement"
	}
	return sb.String()
}
