package commands

import (
	"embed"
	"io/fs"
)

//go:embed builtin/*.md
var builtinFiles embed.FS

// BuiltinFS returns the filesystem of builtin command templates shipped with
// the binary: deps-analyze, test-gen, grammar-gen, and spec-validate.
func BuiltinFS() fs.FS {
	sub, err := fs.Sub(builtinFiles, "builtin")
	if err != nil {
		// The embedded tree always contains builtin/; Sub only fails on a
		// malformed path.
		panic(err)
	}
	return sub
}
