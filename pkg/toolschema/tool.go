package toolschema

import (
	"encoding/json"
)

// Tool is a callable operation advertised by a server, with its contracts
// converted into Schema form. Tools are rebuilt on every catalog fetch.
type Tool struct {
	Name         string           `json:"name"`
	Title        string           `json:"title,omitempty"`
	Description  string           `json:"description"`
	InputSchema  Schema           `json:"inputSchema"`
	OutputSchema *Schema          `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations `json:"annotations,omitempty"`
}

// ToolAnnotations carries audience and priority hints. Keys other than the
// modeled ones round-trip through Extra.
type ToolAnnotations struct {
	Audience     []string
	Priority     *float64
	LastModified string
	Extra        map[string]json.RawMessage
}

func (a ToolAnnotations) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+3)
	for k, v := range a.Extra {
		out[k] = v
	}
	if a.Audience != nil {
		out["audience"] = a.Audience
	}
	if a.Priority != nil {
		out["priority"] = *a.Priority
	}
	if a.LastModified != "" {
		out["lastModified"] = a.LastModified
	}
	return json.Marshal(out)
}

func (a *ToolAnnotations) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	r := &fieldReader{fields: fields, path: "annotations"}
	var decoded ToolAnnotations
	if err := r.take("audience", &decoded.Audience); err != nil {
		return err
	}
	if err := r.take("priority", &decoded.Priority); err != nil {
		return err
	}
	if err := r.take("lastModified", &decoded.LastModified); err != nil {
		return err
	}
	if len(fields) > 0 {
		decoded.Extra = fields
	}
	*a = decoded
	return nil
}
