package openspec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/trophyhq/trophy/pkg/logger"
)

// DefaultSpecsDir is where spec documents live by convention
const DefaultSpecsDir = "openspec/specs"

// MissingSpecsDirError reports that the specs directory does not exist
type MissingSpecsDirError struct {
	Dir string
}

func (e *MissingSpecsDirError) Error() string {
	return fmt.Sprintf("specs directory '%s' not found; create it and add spec documents", e.Dir)
}

// FindSpecs returns the paths of all spec documents under dir, sorted.
// A missing directory is a MissingSpecsDirError so callers can distinguish
// "no specs yet" from an empty directory.
func FindSpecs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &MissingSpecsDirError{Dir: dir}
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.md")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to glob specs under '%s'", dir)
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		paths = append(paths, filepath.Join(dir, match))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDocument parses a single spec file
func LoadDocument(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read spec file '%s'", path)
	}

	doc, err := Parse(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse spec file '%s'", path)
	}
	doc.Path = path
	return doc, nil
}

// LoadAll parses every spec document under dir. Documents that fail to parse
// are skipped with a warning; validation is the caller's concern.
func LoadAll(ctx context.Context, dir string) ([]*Document, error) {
	paths, err := FindSpecs(dir)
	if err != nil {
		return nil, err
	}

	var docs []*Document
	for _, path := range paths {
		doc, err := LoadDocument(path)
		if err != nil {
			logger.G(ctx).WithField("spec", path).WithError(err).Warn("failed to parse spec, skipping")
			continue
		}
		docs = append(docs, doc)
	}

	logger.G(ctx).WithField("count", len(docs)).Debug("loaded spec documents")
	return docs, nil
}
