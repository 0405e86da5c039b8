package connector

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema is the shape every adapter payload must satisfy before the
// engine accepts it into the result map.
const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["total"],
  "properties": {
    "total": {"type": "number", "minimum": 0},
    "currency": {"type": "string"},
    "note": {"type": "string"},
    "details": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["date", "amount"],
        "properties": {
          "date": {"type": "string"},
          "amount": {"type": "number"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(payloadSchema)

// ValidatePayload checks a payload against the earnings schema. A nil
// payload is invalid; adapters signal "nothing" with an error instead.
func ValidatePayload(p *Payload) error {
	if p == nil {
		return fmt.Errorf("payload is nil")
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(p))
	if err != nil {
		return fmt.Errorf("payload validation: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("payload failed schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}
