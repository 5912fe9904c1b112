// Package extract pulls declared task dependencies out of a parameters
// cell: which upstream artifacts a task reads and which product it writes.
// Language support is a closed set; asking for an unsupported language
// yields an extractor whose methods always fail, never a missing-key panic.
package extract

import (
	"fmt"
	"strings"
)

// Extractor reads dependency declarations from one cell's source.
type Extractor interface {
	// ExtractUpstream returns the declared upstream task names, nil when
	// the cell declares none (upstream = None or absent).
	ExtractUpstream() ([]string, error)
	// ExtractProduct returns the declared product expression as source
	// text.
	ExtractProduct() (string, error)
}

// UnsupportedLanguageError reports a language outside the closed supported
// set. It signals a caller bug (asking for extraction the design does not
// cover), not a data problem.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	lang := e.Language
	if lang == "" {
		lang = "unknown"
	}
	return fmt.Sprintf("dependency extraction is not implemented for language %q", lang)
}

// For returns the extractor variant for the given language over the given
// cell source.
func For(language, cellSource string) Extractor {
	switch strings.ToLower(language) {
	case "python":
		return &pythonExtractor{source: cellSource}
	default:
		return unsupportedExtractor{language: language}
	}
}

type unsupportedExtractor struct {
	language string
}

func (e unsupportedExtractor) ExtractUpstream() ([]string, error) {
	return nil, &UnsupportedLanguageError{Language: e.language}
}

func (e unsupportedExtractor) ExtractProduct() (string, error) {
	return "", &UnsupportedLanguageError{Language: e.language}
}
