package extract

import "testing"

func conf(v float64) *float64 { return &v }

func doc(fields ...SummaryField) *Document {
	return &Document{ExpenseDocuments: []ExpenseDocument{{SummaryFields: fields}}}
}

func field(typ string, typeConf *float64, value string, valueConf *float64) SummaryField {
	return SummaryField{
		Type:           &DetectedText{Text: typ, Confidence: typeConf},
		ValueDetection: &DetectedText{Text: value, Confidence: valueConf},
	}
}

func TestSummaryFieldsMapping(t *testing.T) {
	s := SummaryFields(doc(
		field("VENDOR_NAME", conf(80), "ACME SRL", conf(99.1)),
		field("INVOICE_RECEIPT_DATE", nil, "05-03-2024", conf(97)),
		field("TOTAL", nil, "€ 121,00", conf(95)),
		field("TAX", nil, "21,00", conf(90)),
	))

	if got := s.Fields["payee"]; got != "ACME SRL" {
		t.Errorf("payee = %v", got)
	}
	if got := s.Fields["date_raw"]; got != "05-03-2024" {
		t.Errorf("date_raw = %v", got)
	}
	if got := s.Fields["total_raw"]; got != "€ 121,00" {
		t.Errorf("total_raw = %v", got)
	}
	if got := s.Fields["tax_raw"]; got != "21,00" {
		t.Errorf("tax_raw = %v", got)
	}
	// numeric companions populated through the money normalizer
	if got := s.Fields["total"]; got != 121.0 {
		t.Errorf("total = %v, want 121", got)
	}
	if got := s.Fields["tax"]; got != 21.0 {
		t.Errorf("tax = %v, want 21", got)
	}
	// value-level confidence wins over type-level
	if got := s.Confidence["payee"]; got != 99.1 {
		t.Errorf("payee confidence = %v, want 99.1", got)
	}
}

func TestSummaryFieldsTypeConfidenceFallback(t *testing.T) {
	s := SummaryFields(doc(SummaryField{
		Type:           &DetectedText{Text: "VENDOR_NAME", Confidence: conf(88)},
		ValueDetection: &DetectedText{Text: "ACME"},
	}))
	if got := s.Confidence["payee"]; got != 88 {
		t.Errorf("payee confidence = %v, want 88 (type-level fallback)", got)
	}
}

func TestSummaryFieldsOtherRouting(t *testing.T) {
	withLabel := func(typ, label, value string) SummaryField {
		return SummaryField{
			Type:           &DetectedText{Text: typ},
			LabelDetection: &DetectedText{Text: label},
			ValueDetection: &DetectedText{Text: value},
		}
	}

	s := SummaryFields(doc(
		withLabel("OTHER", "Tasso IVA", "22%"),
		withLabel("OTHER", "Cashier", "Mario"),  // no tax-rate keyword
		withLabel("OTHER", "Tasso IVA", "n/a"),  // no percent sign
		withLabel("SUBTOTAL", "Subtotal", "99"), // unmapped type
	))

	if got := s.Fields["vat_rate_raw"]; got != "22%" {
		t.Errorf("vat_rate_raw = %v, want 22%%", got)
	}
	if len(s.Fields) != 1 {
		t.Errorf("expected only vat_rate_raw, got %v", s.Fields)
	}
}

func TestSummaryFieldsSkipsEmptyValues(t *testing.T) {
	s := SummaryFields(doc(field("VENDOR_NAME", nil, "", conf(90))))
	if _, ok := s.Fields["payee"]; ok {
		t.Error("empty detected value must not be emitted")
	}
}

func TestParseDocument(t *testing.T) {
	valid := []byte(`{"ExpenseDocuments":[{"SummaryFields":[{"Type":{"Text":"TOTAL"},"ValueDetection":{"Text":"10.00","Confidence":91.5}}]}]}`)
	if d := ParseDocument(valid); d == nil {
		t.Fatal("valid artifact rejected")
	} else if len(d.ExpenseDocuments) != 1 {
		t.Fatalf("documents = %d", len(d.ExpenseDocuments))
	}

	for name, raw := range map[string][]byte{
		"empty":       nil,
		"not json":    []byte("garbage"),
		"wrong shape": []byte(`{"ExpenseDocuments":"nope"}`),
	} {
		if d := ParseDocument(raw); d != nil {
			t.Errorf("%s: expected nil document", name)
		}
	}
}

func TestSummaryFieldsNilDocument(t *testing.T) {
	s := SummaryFields(nil)
	if len(s.Fields) != 0 || len(s.Confidence) != 0 {
		t.Error("nil document must produce an empty summary")
	}
}
