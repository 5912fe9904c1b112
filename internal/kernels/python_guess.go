package kernels

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"notekit/internal/nbformat"
)

// LooksLikePython reports whether a document is most likely Python code.
// Kernelspec metadata wins when present. Otherwise the concatenated cell
// source goes through a two-stage check: a syntactic parse gate followed by
// a token override. The heuristic is best-effort and ambiguous by
// construction: plenty of R code is syntactically valid Python, so a
// successful parse is rejected when the source contains R's assignment
// operator ("<-"), and an inconclusive result reads as "not Python".
func LooksLikePython(doc *nbformat.Document) bool {
	if ks := doc.Metadata.Kernelspec; ks != nil && ks.Language != "" {
		return strings.EqualFold(ks.Language, "python")
	}

	src := doc.Source()
	if !parsesAsPython(src) {
		return false
	}
	if strings.Contains(src, "<-") {
		// Valid Python, but "{less than}{negative}" is rare while R
		// assignment is everywhere. Inconclusive, so not Python.
		return false
	}
	return true
}

// parsesAsPython reports whether src parses as Python without errors.
func parsesAsPython(src string) bool {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil {
		return false
	}
	defer tree.Close()

	return !tree.RootNode().HasError()
}
