package transcode

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"notekit/internal/nbformat"
)

// Percent format: cells are separated by "# %%" marker lines. A marker may
// carry a cell type ("# %% [markdown]") and attributes ("tags=[...]"). An
// optional header at the top of the file, fenced by "# ---" lines and
// written as commented YAML, carries document metadata (kernelspec).
//
// Example:
//
//	# ---
//	# jupyter:
//	#   kernelspec:
//	#     display_name: Python 3
//	#     language: python
//	#     name: python3
//	# ---
//
//	# %% tags=["parameters"]
//	upstream = None
//	product = {"nb": "out.ipynb"}

const (
	cellMarker  = "# %%"
	headerFence = "# ---"
)

// percentHeader is the YAML shape of the commented header. Both the
// jupytext-style nested form and a bare kernelspec key are accepted.
type percentHeader struct {
	Jupyter struct {
		Kernelspec *nbformat.Kernelspec `yaml:"kernelspec"`
	} `yaml:"jupyter"`
	Kernelspec *nbformat.Kernelspec `yaml:"kernelspec"`
}

func readPercent(text string) (*nbformat.Document, error) {
	doc := &nbformat.Document{
		NBFormat:      4,
		NBFormatMinor: 5,
		Metadata:      nbformat.Metadata{Extra: map[string]any{}},
	}

	lines := strings.Split(text, "\n")
	rest, err := parseHeader(lines, doc)
	if err != nil {
		return nil, err
	}

	var current *nbformat.Cell
	flush := func() {
		if current != nil {
			current.Source = strings.TrimRight(current.Source, "\n")
			doc.Cells = append(doc.Cells, *current)
			current = nil
		}
	}

	for _, line := range rest {
		if strings.HasPrefix(line, cellMarker) &&
			(len(line) == len(cellMarker) || line[len(cellMarker)] == ' ') {
			flush()
			cell, err := parseMarker(line)
			if err != nil {
				return nil, err
			}
			current = cell
			continue
		}
		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue // blank space between header and first marker
			}
			// preamble before any marker becomes its own code cell
			current = &nbformat.Cell{
				Type:     nbformat.CellCode,
				Metadata: nbformat.CellMetadata{Extra: map[string]any{}},
			}
		}
		src := line
		if current.Type == nbformat.CellMarkdown {
			src = strings.TrimPrefix(strings.TrimPrefix(src, "# "), "#")
		}
		current.Source += src + "\n"
	}
	flush()

	return doc, nil
}

// parseHeader consumes a leading commented YAML header if present and
// stamps its kernelspec into the document. Returns the remaining lines.
func parseHeader(lines []string, doc *nbformat.Document) ([]string, error) {
	if len(lines) == 0 || strings.TrimRight(lines[0], " ") != headerFence {
		return lines, nil
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " ") == headerFence {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("unterminated metadata header: missing closing %q", headerFence)
	}

	var yamlLines []string
	for _, l := range lines[1:end] {
		yamlLines = append(yamlLines, strings.TrimPrefix(strings.TrimPrefix(l, "# "), "#"))
	}

	var header percentHeader
	if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &header); err != nil {
		return nil, fmt.Errorf("parsing metadata header: %w", err)
	}
	ks := header.Jupyter.Kernelspec
	if ks == nil {
		ks = header.Kernelspec
	}
	if ks != nil {
		doc.Metadata.Kernelspec = ks
	}
	return lines[end+1:], nil
}

// parseMarker reads a "# %%" line into an empty cell carrying the marker's
// cell type and tags.
func parseMarker(line string) (*nbformat.Cell, error) {
	cell := &nbformat.Cell{
		Type:     nbformat.CellCode,
		Metadata: nbformat.CellMetadata{Extra: map[string]any{}},
	}
	attrs := strings.TrimSpace(strings.TrimPrefix(line, cellMarker))

	if strings.HasPrefix(attrs, "[markdown]") {
		cell.Type = nbformat.CellMarkdown
		attrs = strings.TrimSpace(strings.TrimPrefix(attrs, "[markdown]"))
	} else if strings.HasPrefix(attrs, "[raw]") {
		cell.Type = nbformat.CellRaw
		attrs = strings.TrimSpace(strings.TrimPrefix(attrs, "[raw]"))
	}

	if idx := strings.Index(attrs, "tags="); idx >= 0 {
		rest := attrs[idx+len("tags="):]
		end := strings.Index(rest, "]")
		if end < 0 {
			return nil, fmt.Errorf("malformed tags attribute in cell marker %q", line)
		}
		var tags []string
		if err := json.Unmarshal([]byte(rest[:end+1]), &tags); err != nil {
			return nil, fmt.Errorf("parsing tags in cell marker %q: %w", line, err)
		}
		cell.Metadata.Tags = tags
	}
	return cell, nil
}
