package nbformat

import (
	"encoding/json"
	"strings"
)

// Wire shapes. nbformat allows "source" to be either a single string or a
// list of lines; we accept both on read and always write the list form.

type documentJSON struct {
	Cells         []json.RawMessage `json:"cells"`
	Metadata      map[string]any    `json:"metadata"`
	NBFormat      int               `json:"nbformat"`
	NBFormatMinor int               `json:"nbformat_minor"`
}

type cellJSON struct {
	ID             string          `json:"id,omitempty"`
	Type           string          `json:"cell_type"`
	Metadata       map[string]any  `json:"metadata"`
	Source         json.RawMessage `json:"source"`
	Outputs        []any           `json:"outputs,omitempty"`
	ExecutionCount *int            `json:"execution_count,omitempty"`
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.NBFormat = raw.NBFormat
	d.NBFormatMinor = raw.NBFormatMinor
	d.Metadata = metadataFromMap(raw.Metadata)
	d.Cells = make([]Cell, 0, len(raw.Cells))
	for _, rc := range raw.Cells {
		var c Cell
		if err := json.Unmarshal(rc, &c); err != nil {
			return err
		}
		d.Cells = append(d.Cells, c)
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	raw := documentJSON{
		NBFormat:      d.NBFormat,
		NBFormatMinor: d.NBFormatMinor,
		Metadata:      d.Metadata.toMap(),
	}
	if raw.NBFormat == 0 {
		raw.NBFormat = 4
		raw.NBFormatMinor = 5
	}
	raw.Cells = make([]json.RawMessage, 0, len(d.Cells))
	for _, c := range d.Cells {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		raw.Cells = append(raw.Cells, data)
	}
	return json.Marshal(raw)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw cellJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.ID = raw.ID
	c.Type = raw.Type
	c.Outputs = raw.Outputs
	c.ExecutionCount = raw.ExecutionCount
	c.Metadata = cellMetadataFromMap(raw.Metadata)

	src, err := decodeSource(raw.Source)
	if err != nil {
		return err
	}
	c.Source = src
	return nil
}

func (c Cell) MarshalJSON() ([]byte, error) {
	raw := cellJSON{
		ID:             c.ID,
		Type:           c.Type,
		Metadata:       c.Metadata.toMap(),
		ExecutionCount: c.ExecutionCount,
	}
	lines, err := json.Marshal(sourceLines(c.Source))
	if err != nil {
		return nil, err
	}
	raw.Source = lines
	if c.Type == CellCode {
		raw.Outputs = c.Outputs
		if raw.Outputs == nil {
			raw.Outputs = []any{}
		}
	}
	return json.Marshal(raw)
}

func decodeSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, ""), nil
}

// sourceLines splits source into nbformat's line-list form: every line keeps
// its trailing newline except the last.
func sourceLines(src string) []string {
	if src == "" {
		return []string{}
	}
	parts := strings.SplitAfter(src, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func metadataFromMap(m map[string]any) Metadata {
	md := Metadata{Extra: map[string]any{}}
	for k, v := range m {
		if k == "kernelspec" {
			if data, err := json.Marshal(v); err == nil {
				var ks Kernelspec
				if err := json.Unmarshal(data, &ks); err == nil {
					md.Kernelspec = &ks
					continue
				}
			}
		}
		md.Extra[k] = v
	}
	return md
}

func (md Metadata) toMap() map[string]any {
	out := make(map[string]any, len(md.Extra)+1)
	for k, v := range md.Extra {
		out[k] = v
	}
	if md.Kernelspec != nil {
		out["kernelspec"] = map[string]any{
			"name":         md.Kernelspec.Name,
			"display_name": md.Kernelspec.DisplayName,
			"language":     md.Kernelspec.Language,
		}
	}
	return out
}

func cellMetadataFromMap(m map[string]any) CellMetadata {
	md := CellMetadata{Extra: map[string]any{}}
	for k, v := range m {
		if k == "tags" {
			if list, ok := v.([]any); ok {
				tags := make([]string, 0, len(list))
				for _, t := range list {
					if s, ok := t.(string); ok {
						tags = append(tags, s)
					}
				}
				md.Tags = tags
				continue
			}
		}
		md.Extra[k] = v
	}
	return md
}

func (md CellMetadata) toMap() map[string]any {
	out := make(map[string]any, len(md.Extra)+1)
	for k, v := range md.Extra {
		out[k] = v
	}
	if md.Tags != nil {
		out["tags"] = md.Tags
	}
	return out
}
