package source

import (
	"fmt"
	"sort"
	"strings"

	"notekit/internal/logging"
	"notekit/internal/nbformat"
	"notekit/internal/params"
	"notekit/internal/pyscan"
)

// postRenderValidation compares the supplied parameters against the names
// used in the parameters cell and runs the static checker over the rendered
// source. Python only; any other language is a caller bug.
func (s *NotebookSource) postRenderValidation(unrendered, rendered *nbformat.Document, supplied map[string]any) error {
	if s.Language() != "python" {
		return usageErrorf("static analysis is only implemented for Python " +
			"notebooks; disable the static_analysis option")
	}
	return s.checkNotebook(unrendered, rendered, supplied)
}

// checkNotebook accumulates every finding into one report and fails exactly
// once at the end, so a caller sees everything wrong at once. Missing
// parameters are advisory only: the notebook will run with its in-source
// defaults.
func (s *NotebookSource) checkNotebook(unrendered, rendered *nbformat.Document, supplied map[string]any) error {
	var report strings.Builder

	// the requirement fires against the unrendered document: injection
	// may move cells around, but the declaration must exist in the source
	cell, _ := unrendered.FindCellWithTag(params.ParametersTag)
	if cell == nil {
		return &RenderValidationError{
			Report: fmt.Sprintf("notebook%s does not have a cell tagged %q",
				s.locLabel(), params.ParametersTag),
		}
	}

	declared, err := pyscan.UsedNames(cell.Source)
	if err != nil {
		return fmt.Errorf("scanning parameters cell: %w", err)
	}

	var missing, extra []string
	for name := range declared {
		if _, ok := supplied[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range supplied {
		if _, ok := declared[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	if len(missing) > 0 {
		w := fmt.Sprintf("missing parameters: %s, will use default values",
			strings.Join(missing, ", "))
		logging.RenderWarn("%s", w)
		s.warnings = append(s.warnings, w)
	}

	if len(extra) > 0 {
		fmt.Fprintf(&report, "Passed non-declared parameters: %s\n",
			strings.Join(extra, ", "))
	}

	res := pyscan.Check(rendered.Source(), s.checkFilename())
	if res.Warnings != "" {
		report.WriteString("static analysis warnings:\n" + res.Warnings)
	}
	if res.Errors != "" {
		report.WriteString("static analysis errors:\n" + res.Errors)
	}

	if report.Len() > 0 {
		return &RenderValidationError{Report: report.String()}
	}
	return nil
}

func (s *NotebookSource) checkFilename() string {
	if s.path != "" {
		return s.path
	}
	return "notebook"
}
