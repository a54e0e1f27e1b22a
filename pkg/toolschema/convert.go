package toolschema

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
)

// FromJSONSchema converts a jsonschema-go schema, as carried by SDK tool
// definitions, with the same best-effort rules as Parse. A nil schema yields
// Default.
func FromJSONSchema(js *jsonschema.Schema, logger *slog.Logger) Schema {
	if js == nil {
		return Default()
	}
	raw, err := json.Marshal(js)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to serialize JSON schema, using default", "error", err)
		return Fallback(nil)
	}
	return Parse(raw, logger)
}

// JSONSchema converts s into the jsonschema-go representation used when
// registering tools on an MCP server.
func (s Schema) JSONSchema() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var js jsonschema.Schema
	if err := json.Unmarshal(raw, &js); err != nil {
		return nil, fmt.Errorf("toolschema: convert to jsonschema: %w", err)
	}
	return &js, nil
}
