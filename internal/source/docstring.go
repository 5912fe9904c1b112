package source

import (
	"strings"

	"notekit/internal/nbformat"
)

// Doc returns the notebook docstring: either a triple-quoted string opening
// the first code cell or a leading markdown cell. Empty when the notebook
// has neither.
func (s *NotebookSource) Doc() (string, error) {
	_, doc, err := s.readUnrendered()
	if err != nil {
		return "", err
	}
	return extractDocstring(doc), nil
}

func extractDocstring(doc *nbformat.Document) string {
	if len(doc.Cells) == 0 {
		return ""
	}
	first := doc.Cells[0]

	if first.Type == nbformat.CellMarkdown {
		return strings.TrimSpace(first.Source)
	}

	if first.Type == nbformat.CellCode {
		return tripleQuotedPrefix(first.Source)
	}
	return ""
}

// tripleQuotedPrefix returns the contents of a triple-quoted string literal
// opening the source, "" when the source does not start with one.
func tripleQuotedPrefix(src string) string {
	trimmed := strings.TrimLeft(src, " \t\n")
	for _, quote := range []string{`"""`, "'''"} {
		if !strings.HasPrefix(trimmed, quote) {
			continue
		}
		rest := trimmed[len(quote):]
		end := strings.Index(rest, quote)
		if end < 0 {
			return ""
		}
		return strings.TrimSpace(rest[:end])
	}
	return ""
}
