// Package transcode converts between raw source text and structured
// notebook documents. Notebook containers (.ipynb) pass through the
// nbformat codec; script files use the percent cell format ("# %%" markers
// with an optional commented YAML header carrying document metadata).
//
// The structured-to-text direction always emits notebook JSON: the rendered
// form of a source is a notebook regardless of what it was loaded from.
package transcode

import (
	"fmt"
	"strings"

	"notekit/internal/logging"
	"notekit/internal/nbformat"
)

// Reads parses raw text into a document. ext selects the format ("ipynb"
// for notebook JSON, anything else for a percent script); when ext is empty
// the format is sniffed from the content.
func Reads(text, ext string) (*nbformat.Document, error) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		if looksLikeNotebookJSON(text) {
			ext = "ipynb"
		} else {
			logging.TranscodeDebug("no extension given, sniffed percent script")
		}
	}

	if ext == "ipynb" {
		doc, err := nbformat.Reads(text)
		if err != nil {
			return nil, fmt.Errorf("reading notebook: %w", err)
		}
		return doc, nil
	}
	return readPercent(text)
}

// Writes serializes a document to notebook JSON text.
func Writes(doc *nbformat.Document) (string, error) {
	return nbformat.Writes(doc)
}

func looksLikeNotebookJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "{")
}
