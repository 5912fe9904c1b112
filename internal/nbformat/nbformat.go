// Package nbformat models Jupyter notebook documents (nbformat v4.x) and
// their JSON serialization. A Document is an ordered sequence of Cells plus
// document-level metadata; unknown metadata keys survive a read/write round
// trip.
package nbformat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Cell types as defined by nbformat.
const (
	CellCode     = "code"
	CellMarkdown = "markdown"
	CellRaw      = "raw"
)

// Kernelspec is the kernel identity record stored in document metadata.
type Kernelspec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
}

// Metadata is the document-level metadata mapping. Kernelspec is pulled out
// into a typed field; everything else lives in Extra.
type Metadata struct {
	Kernelspec *Kernelspec
	Extra      map[string]any
}

// CellMetadata is the per-cell metadata mapping. Tags is nil when the cell
// carries no tag list at all, and an empty slice when it carries an empty one.
type CellMetadata struct {
	Tags  []string
	Extra map[string]any
}

// Cell is an atomic source unit inside a Document.
type Cell struct {
	ID             string
	Type           string
	Source         string
	Metadata       CellMetadata
	Outputs        []any
	ExecutionCount *int
}

// Document is a structured notebook: ordered cells plus metadata.
type Document struct {
	Cells         []Cell
	Metadata      Metadata
	NBFormat      int
	NBFormatMinor int
}

// HasTag reports whether the cell carries the given tag. A nil or empty tag
// list never matches.
func (c *Cell) HasTag(tag string) bool {
	for _, t := range c.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FindCellWithTag scans cells in document order and returns the first cell
// whose tag list contains tag, with its index. Returns (nil, -1) when no
// cell matches; absence is not an error at this layer.
func (d *Document) FindCellWithTag(tag string) (*Cell, int) {
	for i := range d.Cells {
		if d.Cells[i].HasTag(tag) {
			return &d.Cells[i], i
		}
	}
	return nil, -1
}

// Source returns all cell sources concatenated with newlines.
func (d *Document) Source() string {
	parts := make([]string, len(d.Cells))
	for i, c := range d.Cells {
		parts[i] = c.Source
	}
	return strings.Join(parts, "\n")
}

// NormalizeTags gives every cell a non-nil (possibly empty) tag list.
// The injector relies on the list being present.
func (d *Document) NormalizeTags() {
	for i := range d.Cells {
		if d.Cells[i].Metadata.Tags == nil {
			d.Cells[i].Metadata.Tags = []string{}
		}
	}
}

// AssignCellIDs gives an id to every cell that lacks one. nbformat 4.5
// requires cell ids; we mint short uuid-derived ones.
func (d *Document) AssignCellIDs() {
	for i := range d.Cells {
		if d.Cells[i].ID == "" {
			d.Cells[i].ID = uuid.New().String()[:8]
		}
	}
}

// Clone returns a deep copy of the document. Rendering must not mutate the
// unrendered form.
func (d *Document) Clone() *Document {
	out := &Document{
		NBFormat:      d.NBFormat,
		NBFormatMinor: d.NBFormatMinor,
		Metadata: Metadata{
			Extra: cloneMap(d.Metadata.Extra),
		},
	}
	if d.Metadata.Kernelspec != nil {
		ks := *d.Metadata.Kernelspec
		out.Metadata.Kernelspec = &ks
	}
	out.Cells = make([]Cell, len(d.Cells))
	for i, c := range d.Cells {
		cc := c
		cc.Metadata.Extra = cloneMap(c.Metadata.Extra)
		if c.Metadata.Tags != nil {
			cc.Metadata.Tags = append([]string(nil), c.Metadata.Tags...)
		}
		if c.Outputs != nil {
			cc.Outputs = append([]any(nil), c.Outputs...)
		}
		out.Cells[i] = cc
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Reads parses notebook JSON text into a Document.
func Reads(text string) (*Document, error) {
	var d Document
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, fmt.Errorf("reading notebook JSON: %w", err)
	}
	return &d, nil
}

// Writes serializes the document to notebook JSON text, assigning cell ids
// where missing.
func Writes(d *Document) (string, error) {
	d.AssignCellIDs()
	data, err := json.MarshalIndent(d, "", " ")
	if err != nil {
		return "", fmt.Errorf("writing notebook JSON: %w", err)
	}
	return string(data), nil
}
