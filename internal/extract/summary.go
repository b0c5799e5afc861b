// Package extract maps the structured document-analysis artifact written
// by the OCR stage into a normalized field bag keyed by logical field
// name. The artifact is an expense-analysis JSON document: a list of
// summary fields, each with a semantic type tag, a detected value and
// confidence scores.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/sirsalvo/easyreceipts/internal/normalize"
)

// DetectedText is one detection inside a summary field.
type DetectedText struct {
	Text       string   `json:"Text"`
	Confidence *float64 `json:"Confidence"`
}

// SummaryField is a single typed field emitted by the analysis engine.
type SummaryField struct {
	Type           *DetectedText `json:"Type"`
	LabelDetection *DetectedText `json:"LabelDetection"`
	ValueDetection *DetectedText `json:"ValueDetection"`
}

// ExpenseDocument groups the summary fields of one analyzed page set.
type ExpenseDocument struct {
	SummaryFields []SummaryField `json:"SummaryFields"`
}

// Document is the root of the OCR artifact.
type Document struct {
	ExpenseDocuments []ExpenseDocument `json:"ExpenseDocuments"`
}

// FieldBag is the loosely-typed extractor output: raw strings under
// *_raw keys plus best-effort numeric values for total and tax.
type FieldBag map[string]any

// Number returns the numeric value stored under key, if any.
func (b FieldBag) Number(key string) *float64 {
	switch v := b[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

// Summary is the extractor result: the field bag plus a parallel
// confidence map keyed by field name.
type Summary struct {
	Fields     FieldBag
	Confidence map[string]float64
}

// Labels whose OTHER-typed field carries a VAT rate when the value
// contains a percent sign.
var taxRateLabelKeywords = []string{"tasso", "aliquota", "vat rate", "tax rate"}

// ParseDocument decodes and validates the raw OCR artifact. Malformed
// or schema-invalid artifacts return nil; OCR output is external input
// and a bad artifact must degrade to "no fields", never to an error.
func ParseDocument(raw []byte) *Document {
	if len(raw) == 0 {
		return nil
	}
	if err := validateDocument(raw); err != nil {
		return nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return &doc
}

// SummaryFields flattens the first expense document into a field bag.
// Value-level confidence is preferred over type-level confidence.
// Fields with an empty detected value are skipped.
func SummaryFields(doc *Document) Summary {
	out := Summary{Fields: FieldBag{}, Confidence: map[string]float64{}}
	if doc == nil || len(doc.ExpenseDocuments) == 0 {
		return out
	}

	put := func(key string, val any, conf *float64) {
		if s, ok := val.(string); ok && s == "" {
			return
		}
		if val == nil {
			return
		}
		out.Fields[key] = val
		if conf != nil {
			out.Confidence[key] = *conf
		}
	}

	for _, f := range doc.ExpenseDocuments[0].SummaryFields {
		var typeText string
		var typeConf *float64
		if f.Type != nil {
			typeText = strings.ToUpper(f.Type.Text)
			typeConf = f.Type.Confidence
		}
		var value string
		conf := typeConf
		if f.ValueDetection != nil {
			value = f.ValueDetection.Text
			if f.ValueDetection.Confidence != nil {
				conf = f.ValueDetection.Confidence
			}
		}

		switch typeText {
		case "VENDOR_NAME":
			put("payee", value, conf)
		case "INVOICE_RECEIPT_DATE":
			put("date_raw", value, conf)
		case "TOTAL":
			put("total_raw", value, conf)
		case "TAX":
			put("tax_raw", value, conf)
		case "OTHER":
			var label string
			if f.LabelDetection != nil {
				label = strings.ToLower(f.LabelDetection.Text)
			}
			if hasTaxRateKeyword(label) && strings.Contains(value, "%") {
				put("vat_rate_raw", value, conf)
			}
		}
	}

	// Best-effort numeric companions for the money fields.
	if raw, ok := out.Fields["total_raw"].(string); ok {
		if v := normalize.ParseMoney(raw); v != nil {
			putConf := confPtr(out.Confidence, "total_raw")
			putNumber(&out, "total", *v, putConf)
		}
	}
	if raw, ok := out.Fields["tax_raw"].(string); ok {
		if v := normalize.ParseMoney(raw); v != nil {
			putConf := confPtr(out.Confidence, "tax_raw")
			putNumber(&out, "tax", *v, putConf)
		}
	}

	return out
}

func hasTaxRateKeyword(label string) bool {
	for _, kw := range taxRateLabelKeywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

func putNumber(s *Summary, key string, v float64, conf *float64) {
	s.Fields[key] = v
	if conf != nil {
		s.Confidence[key] = *conf
	}
}

func confPtr(m map[string]float64, key string) *float64 {
	if c, ok := m[key]; ok {
		return &c
	}
	return nil
}
