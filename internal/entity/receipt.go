package entity

import (
	"strings"

	"github.com/sirsalvo/easyreceipts/constants"
)

// Receipt is the persisted record for a receipt, keyed by (OwnerID, ReceiptID).
// Timestamps and dates are ISO 8601 strings; money fields are canonical
// decimal strings (no currency symbols, period as decimal separator).
type Receipt struct {
	OwnerID        string
	ReceiptID      string
	Status         constants.ReceiptStatus
	CreatedAt      string
	UpdatedAt      *string
	ConfirmedAt    *string
	Payee          *string
	Date           *string
	Total          *string
	VAT            *string
	VATRate        *string
	Note           *string
	Category       *string
	YNABExportedAt *string
	ContentType    *string
	OriginalKey    *string
	ProcessedKey   *string
	OCRKey         *string
	StatusKey      *string
}

// HasField reports whether the named business field is present and non-blank.
func (r *Receipt) HasField(name string) bool {
	if r == nil {
		return false
	}
	v := r.Field(name)
	return v != nil && strings.TrimSpace(*v) != ""
}

// Field returns a pointer to the named business field, or nil for unknown names.
func (r *Receipt) Field(name string) *string {
	if r == nil {
		return nil
	}
	switch name {
	case "payee":
		return r.Payee
	case "date":
		return r.Date
	case "total":
		return r.Total
	case "vat":
		return r.VAT
	case "vatRate":
		return r.VATRate
	case "note":
		return r.Note
	case "category":
		return r.Category
	}
	return nil
}

// View projects the persisted record into the read model, with no
// inferred fields merged in.
func (r *Receipt) View() *ReceiptView {
	if r == nil {
		return nil
	}
	return &ReceiptView{
		ReceiptID:      r.ReceiptID,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		ConfirmedAt:    r.ConfirmedAt,
		Payee:          r.Payee,
		Date:           r.Date,
		Total:          r.Total,
		VAT:            r.VAT,
		VATRate:        r.VATRate,
		Note:           r.Note,
		Category:       r.Category,
		YNABExportedAt: r.YNABExportedAt,
	}
}

// ArtifactRefs carries the object-store keys and presigned URLs for a receipt view.
type ArtifactRefs struct {
	OriginalKey  string  `json:"originalKey"`
	ProcessedKey string  `json:"processedKey"`
	OCRKey       *string `json:"ocrKey"`
	ProcessedURL *string `json:"processedUrl,omitempty"`
	OCRURL       *string `json:"ocrUrl,omitempty"`
}

// ReceiptView is the reconciled read model: persisted values win over
// inferred ones, inference only fills gaps.
type ReceiptView struct {
	ReceiptID      string                  `json:"receiptId"`
	Status         constants.ReceiptStatus `json:"status"`
	CreatedAt      string                  `json:"createdAt,omitempty"`
	UpdatedAt      *string                 `json:"updatedAt,omitempty"`
	ConfirmedAt    *string                 `json:"confirmedAt,omitempty"`
	Payee          *string                 `json:"payee"`
	Date           *string                 `json:"date"`
	Total          *string                 `json:"total"`
	VAT            *string                 `json:"vat"`
	VATRate        *string                 `json:"vatRate"`
	Note           *string                 `json:"note"`
	Category       *string                 `json:"category"`
	YNABExportedAt *string                 `json:"ynabExportedAt"`
	Artifacts      *ArtifactRefs           `json:"artifacts,omitempty"`
}
