package source

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"notekit/internal/kernels"
	"notekit/internal/logging"
	"notekit/internal/nbformat"
	"notekit/internal/params"
	"notekit/internal/transcode"
)

// debuggingTag marks cells added for interactive debugging sessions.
const debuggingTag = "debugging-settings"

// CleanupRenderedNotebook strips the cells the render pipeline added
// (injected parameters, debugging settings) and drops empty tag lists left
// behind by tag normalization, returning the document to a shape fit for
// saving back as a script.
func CleanupRenderedNotebook(doc *nbformat.Document) *nbformat.Document {
	out := doc.Clone()
	for _, tag := range []string{params.InjectedTag, debuggingTag} {
		if _, i := out.FindCellWithTag(tag); i >= 0 {
			logging.SourceDebug("removing %s cell", tag)
			out.Cells = append(out.Cells[:i], out.Cells[i+1:]...)
		}
	}
	for i := range out.Cells {
		if out.Cells[i].Metadata.Tags != nil && len(out.Cells[i].Metadata.Tags) == 0 {
			out.Cells[i].Metadata.Tags = nil
		}
	}
	return out
}

// injectedCellComment explains a developer-facing injected cell; shown when
// parameters are injected into an editor's contents model rather than a
// render pipeline.
const injectedCellComment = "This cell was injected automatically based on " +
	"your stated upstream dependencies (cell above) and pipeline " +
	"preferences. It is temporary and will be removed when you save this notebook"

// InjectCellIntoModel injects parameters into an editor contents model
// (a decoded JSON mapping with "content" and "name" keys), annotating the
// injected cell with an explanatory comment. The model's content is
// replaced in place.
func InjectCellIntoModel(model map[string]any, p map[string]any, catalog kernels.Catalog) error {
	name, _ := model["name"].(string)
	data, err := json.Marshal(model["content"])
	if err != nil {
		return fmt.Errorf("encoding contents model: %w", err)
	}
	doc, err := nbformat.Reads(string(data))
	if err != nil {
		return fmt.Errorf("decoding contents model %q: %w", name, err)
	}

	// parameterization needs kernelspec metadata in place
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if err := kernels.Ensure(doc, "", ext, "", catalog); err != nil {
		return initErrorf("contents model %q: %v", name, err)
	}

	if doc.Metadata.Extra == nil {
		doc.Metadata.Extra = map[string]any{}
	}
	if _, ok := doc.Metadata.Extra["papermill"]; !ok {
		doc.Metadata.Extra["papermill"] = map[string]any{
			"parameters":            map[string]any{},
			"environment_variables": map[string]any{},
			"version":               nil,
		}
	}
	doc.NormalizeTags()

	serialized, err := params.Serialize(p)
	if err != nil {
		return err
	}
	injected, err := params.Parameterize(doc, serialized, false, injectedCellComment)
	if err != nil {
		return err
	}

	text, err := transcode.Writes(injected)
	if err != nil {
		return err
	}
	var back any
	if err := json.Unmarshal([]byte(text), &back); err != nil {
		return err
	}
	model["content"] = back
	return nil
}
