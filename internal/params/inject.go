package params

import (
	"fmt"
	"sort"
	"strings"

	"notekit/internal/logging"
	"notekit/internal/nbformat"
)

// Tags carried by cells the injector owns.
const (
	ParametersTag = "parameters"
	InjectedTag   = "injected-parameters"
)

// Parameterize returns a copy of doc with the serialized parameter mapping
// injected as a new code cell tagged "injected-parameters". The cell is
// written in the document's kernel language, placed right after the
// parameters cell (replacing any previous injected cell; at the top when no
// parameters cell exists), and the raw mapping is recorded under the
// document's injection bookkeeping namespace.
//
// In report mode the injected cell is marked source-hidden. A non-empty
// comment opens the cell with an explanatory note.
func Parameterize(doc *nbformat.Document, serialized map[string]any, reportMode bool, comment string) (*nbformat.Document, error) {
	out := doc.Clone()

	language := ""
	if ks := out.Metadata.Kernelspec; ks != nil {
		language = ks.Language
	}

	src, err := injectedSource(language, serialized, comment)
	if err != nil {
		return nil, err
	}

	cell := nbformat.Cell{
		Type:   nbformat.CellCode,
		Source: src,
		Metadata: nbformat.CellMetadata{
			Tags:  []string{InjectedTag},
			Extra: map[string]any{},
		},
	}
	if reportMode {
		cell.Metadata.Extra["jupyter"] = map[string]any{"source_hidden": true}
	}

	if _, i := out.FindCellWithTag(InjectedTag); i >= 0 {
		out.Cells[i] = cell
	} else if _, i := out.FindCellWithTag(ParametersTag); i >= 0 {
		out.Cells = append(out.Cells[:i+1],
			append([]nbformat.Cell{cell}, out.Cells[i+1:]...)...)
	} else {
		out.Cells = append([]nbformat.Cell{cell}, out.Cells...)
	}

	if out.Metadata.Extra == nil {
		out.Metadata.Extra = map[string]any{}
	}
	bookkeeping, _ := out.Metadata.Extra["papermill"].(map[string]any)
	if bookkeeping == nil {
		bookkeeping = map[string]any{}
	}
	bookkeeping["parameters"] = serialized
	out.Metadata.Extra["papermill"] = bookkeeping

	logging.RenderDebug("injected %d parameter(s), report_mode=%v", len(serialized), reportMode)
	return out, nil
}

// injectedSource builds the injected cell's source: an optional comment,
// a "# Parameters" header and one assignment per name. The reserved keys
// come first so upstream/product are bound before anything that might read
// them; the rest follow in sorted order.
func injectedSource(language string, serialized map[string]any, comment string) (string, error) {
	var lines []string
	if comment != "" {
		for _, l := range strings.Split(comment, "\n") {
			lines = append(lines, "# "+l)
		}
	}
	lines = append(lines, "# Parameters")

	for _, name := range injectionOrder(serialized) {
		literal, err := Translate(language, serialized[name])
		if err != nil {
			return "", fmt.Errorf("translating parameter %q: %w", name, err)
		}
		lines = append(lines, fmt.Sprintf("%s = %s", name, literal))
	}
	return strings.Join(lines, "\n"), nil
}

func injectionOrder(serialized map[string]any) []string {
	var head, rest []string
	for name := range serialized {
		switch name {
		case UpstreamKey, ProductKey:
			head = append(head, name)
		default:
			rest = append(rest, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(head))) // upstream before product
	sort.Strings(rest)
	return append(head, rest...)
}
