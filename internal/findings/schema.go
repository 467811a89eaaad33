package findings

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// classifierSchema is the structural contract for AI-filtered documents.
// Both classifier generations are admitted: the per-field alternatives
// mirror the fallbacks normalizeFiltered applies.
const classifierSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["findings"],
  "properties": {
    "findings": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "secret_raw": {"type": "string"},
          "secret": {"type": "string"},
          "secret_type": {"type": "string"},
          "category": {"type": "string"},
          "file_path": {"type": "string"},
          "line": {"type": "integer"},
          "line_number": {"type": "integer"},
          "deberta_prediction": {
            "type": "object",
            "required": ["label"],
            "properties": {
              "label": {"type": "string"},
              "confidence": {"type": "number", "minimum": 0, "maximum": 1}
            }
          }
        },
        "anyOf": [
          {"required": ["secret_raw"]},
          {"required": ["secret"]}
        ]
      }
    }
  }
}`

var compiledClassifierSchema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(classifierSchema))
	if err != nil {
		panic(fmt.Sprintf("findings: classifier schema does not compile: %v", err))
	}
	compiledClassifierSchema = s
}

// ValidateFiltered checks an AI-filtered document against the classifier
// schema before decode. It returns one error describing every violation.
func ValidateFiltered(data []byte) error {
	result, err := compiledClassifierSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validating classifier document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("classifier document failed validation: %s", strings.Join(msgs, "; "))
}
