package extract

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema constrains the shape of the OCR artifact before we walk
// it. Deliberately loose: the engine emits many more attributes than we
// read, so only the parts the extractor depends on are pinned down.
const documentSchema = `{
  "type": "object",
  "properties": {
    "ExpenseDocuments": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "SummaryFields": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "Type": {"$ref": "#/$defs/detection"},
                "LabelDetection": {"$ref": "#/$defs/detection"},
                "ValueDetection": {"$ref": "#/$defs/detection"}
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "detection": {
      "type": "object",
      "properties": {
        "Text": {"type": "string"},
        "Confidence": {"type": "number"}
      }
    }
  }
}`

var compiledDocumentSchema = jsonschema.MustCompileString("ocr-document.schema.json", documentSchema)

func validateDocument(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode ocr artifact: %w", err)
	}
	if err := compiledDocumentSchema.Validate(doc); err != nil {
		return fmt.Errorf("validate ocr artifact: %w", err)
	}
	return nil
}
