package kernels

import (
	"fmt"
	"strings"

	"notekit/internal/logging"
	"notekit/internal/nbformat"
)

// languageByExtension maps script extensions to canonical lowercase language
// names. ipynb is deliberately absent: a notebook container can hold any
// language, so the lookup must stay inconclusive.
var languageByExtension = map[string]string{
	"py":  "python",
	"r":   "r",
	"R":   "r",
	"Rmd": "r",
	"rmd": "r",
}

// kernelByLanguage maps a canonical language name to its conventional
// default kernel.
var kernelByLanguage = map[string]string{
	"python": "python3",
	"r":      "ir",
}

// DetermineLanguage maps a file extension to a canonical lowercase language
// name. Returns "" when the test is inconclusive (unknown extensions and
// notebook containers); callers must treat that as "try other evidence",
// never as a failure.
func DetermineLanguage(extension string) string {
	extension = strings.TrimPrefix(extension, ".")
	return languageByExtension[extension]
}

// ResolveName determines the kernel name for a document, applying a strict
// priority order, first success wins:
//
//  1. explicit kernel name from the caller
//  2. kernelspec metadata already on the document
//  3. language derived from the extension (overrides the language argument),
//     mapped through the default kernel table
//  4. the language argument through the same table
//  5. content heuristic: the document looks like Python
//
// Returns "" when nothing resolves.
func ResolveName(doc *nbformat.Document, explicit, ext, language string) string {
	if explicit != "" {
		return explicit
	}

	if ks := doc.Metadata.Kernelspec; ks != nil && ks.Name != "" {
		return ks.Name
	}

	if ext != "" {
		language = DetermineLanguage(ext)
	}
	if name, ok := kernelByLanguage[language]; ok {
		return name
	}

	// Nothing conclusive so far; guess from content.
	if LooksLikePython(doc) {
		return kernelByLanguage["python"]
	}
	return ""
}

// Ensure resolves the document's kernel identity and stamps it into the
// document metadata. It fails when no kernel name can be resolved, or when
// the resolved name is not in the catalog. After a successful call
// doc.Metadata.Kernelspec is present and consistent with an installed
// kernel.
func Ensure(doc *nbformat.Document, explicit, ext, language string, catalog Catalog) error {
	name := ResolveName(doc, explicit, ext, language)
	if name == "" {
		return fmt.Errorf("notebook does not contain kernelspec metadata and " +
			"no kernel name was specified; either add kernelspec info to the " +
			"source file or pass an explicit kernel name. To see installed " +
			"kernels run \"notekit kernels\" (or \"jupyter kernelspec list\"); " +
			"Python is usually named \"python3\", R usually \"ir\"")
	}

	spec, err := catalog.Get(name)
	if err != nil {
		return fmt.Errorf("kernel %q is not installed (%w); to see installed "+
			"kernels run \"notekit kernels\" (or \"jupyter kernelspec list\")",
			name, err)
	}

	logging.KernelDebug("resolved kernel %q (language %q)", spec.Name, spec.Language)
	doc.Metadata.Kernelspec = &nbformat.Kernelspec{
		Name:        spec.Name,
		DisplayName: spec.DisplayName,
		Language:    spec.Language,
	}
	return nil
}
