// Package infer combines extracted raw fields into the receipt's
// candidate business fields. It accepts either the normalized extractor
// output or a raw provider schema; each logical field resolves through
// an ordered alias list, first present non-empty alias wins.
package infer

import (
	"regexp"
	"strings"

	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/extract"
	"github.com/sirsalvo/easyreceipts/internal/normalize"
)

// Alias precedence tables. Order is the contract: the normalized
// extractor keys come first, raw provider keys after.
var (
	payeeAliases   = []string{"payee", "VENDOR_NAME", "SUPPLIER_NAME", "MERCHANT_NAME", "NAME"}
	dateAliases    = []string{"date_raw", "INVOICE_RECEIPT_DATE", "TRANSACTION_DATE", "DATE"}
	totalAliases   = []string{"total_raw", "TOTAL", "AMOUNT_PAID", "AMOUNT_DUE"}
	vatAliases     = []string{"tax_raw", "tax", "TAX", "VAT", "TOTAL_TAX"}
	vatRateAliases = []string{"vat_rate_raw"}
)

// VAT-rate plausibility band for the total/tax fallback computation.
// Rates outside the band are discarded as extraction noise, not clamped.
// Heuristic bounds; do not widen or narrow without product input.
const (
	minPlausibleVATRate = 0.5
	maxPlausibleVATRate = 30.0
)

var rePercent = regexp.MustCompile(`(\d{1,2}(?:[.,]\d+)?)\s*%`)

// Fields is the inference output; only resolved fields are non-nil.
type Fields struct {
	Payee   *string
	Date    *string
	Total   *float64
	VAT     *float64
	VATRate *float64
}

// IsEmpty reports whether nothing could be inferred.
func (f Fields) IsEmpty() bool {
	return f.Payee == nil && f.Date == nil && f.Total == nil && f.VAT == nil && f.VATRate == nil
}

// FromBag infers the receipt business fields from a field bag.
func FromBag(bag extract.FieldBag) Fields {
	var out Fields

	if payee, ok := common.FirstString(bag, payeeAliases...); ok {
		out.Payee = &payee
	}

	// Date: keep only values matched by a known pattern. Unnormalized raw
	// text never propagates as the inferred date.
	if raw, ok := common.FirstString(bag, dateAliases...); ok {
		if iso, ok := normalize.Date(raw); ok {
			out.Date = &iso
		}
	}

	// Total and VAT: prefer the extractor's numeric companion, fall back
	// to parsing the raw text.
	out.Total = bag.Number("total")
	if out.Total == nil {
		if raw, ok := common.FirstString(bag, totalAliases...); ok {
			out.Total = normalize.ParseMoney(raw)
		}
	}
	out.VAT = bag.Number("tax")
	if out.VAT == nil {
		if raw, ok := common.FirstString(bag, vatAliases...); ok {
			out.VAT = normalize.ParseMoney(raw)
		}
	}

	out.VATRate = inferVATRate(bag, out.Total, out.VAT)
	return out
}

// inferVATRate prefers an explicit percentage in the raw text; otherwise
// derives the rate from total and vat and accepts it only inside the
// plausibility band.
func inferVATRate(bag extract.FieldBag, total, vat *float64) *float64 {
	if raw, ok := common.FirstString(bag, vatRateAliases...); ok && strings.Contains(raw, "%") {
		if m := rePercent.FindStringSubmatch(raw); m != nil {
			if v := normalize.ParseMoney(m[1]); v != nil {
				return v
			}
		}
	}

	if total == nil || vat == nil {
		return nil
	}
	t, v := *total, *vat
	if t <= 0 || v <= 0 || t <= v {
		return nil
	}
	base := t - v
	rate := normalize.Round2(v / base * 100)
	if rate < minPlausibleVATRate || rate > maxPlausibleVATRate {
		return nil
	}
	return &rate
}
