package receipts

import (
	"context"
	"strings"

	"github.com/sirsalvo/easyreceipts/constants"
	"github.com/sirsalvo/easyreceipts/internal/entity"
	"github.com/sirsalvo/easyreceipts/internal/infer"
	"github.com/sirsalvo/easyreceipts/internal/normalize"
)

// businessFields are the receipt fields inference may fill, in the
// order they appear in update clauses.
var businessFields = []string{"payee", "date", "total", "vat", "vatRate"}

// inferredValue returns the canonical string encoding of the inferred
// value for the named field, or nil when nothing was inferred.
func inferredValue(inf infer.Fields, name string) *string {
	str := func(s string) *string { return &s }
	switch name {
	case "payee":
		if inf.Payee != nil {
			return str(strings.TrimSpace(*inf.Payee))
		}
	case "date":
		if inf.Date != nil {
			return str(*inf.Date)
		}
	case "total":
		if inf.Total != nil {
			return str(normalize.FormatAmount(*inf.Total))
		}
	case "vat":
		if inf.VAT != nil {
			return str(normalize.FormatAmount(*inf.VAT))
		}
	case "vatRate":
		if inf.VATRate != nil {
			return str(normalize.FormatAmount(*inf.VATRate))
		}
	}
	return nil
}

// missingFields computes the fields present in inf but absent or blank
// in rec, with their canonical encodings. The fill is deterministic:
// two concurrent reconciliations of the same inputs compute the same set.
func missingFields(rec *entity.Receipt, inf infer.Fields) map[string]string {
	out := map[string]string{}
	for _, name := range businessFields {
		if rec.HasField(name) {
			continue
		}
		if v := inferredValue(inf, name); v != nil && *v != "" {
			out[name] = *v
		}
	}
	return out
}

// persistInferred opportunistically backfills inferred fields into the
// record store. Only currently-absent fields are written; the status is
// advanced to OCR_DONE when the OCR artifact exists and the current
// status allows promotion. When nothing needs to change, no write is
// issued, so repeated reads of an unchanged receipt stay read-only.
// Failures are absorbed: backfill is best effort and must never block a
// read. Returns the freshest view of the record.
func (s *Service) persistInferred(ctx context.Context, rec *entity.Receipt, inf infer.Fields, hasOCR bool) *entity.Receipt {
	if rec == nil {
		return nil
	}

	missing := missingFields(rec, inf)
	promotable := hasOCR && constants.PromotableToOCRDone(rec.Status)
	if len(missing) == 0 && !promotable {
		return rec
	}

	set := missing
	set["updatedAt"] = s.nowISO()
	if promotable {
		set["status"] = string(constants.StatusOCRDone)
	}

	updated, err := s.repo.UpdateFields(ctx, rec.OwnerID, rec.ReceiptID, set, nil)
	if err != nil {
		s.logger.Warn("inferred-field backfill failed", "owner_id", rec.OwnerID, "receipt_id", rec.ReceiptID, "error", err)
		return rec
	}
	if updated == nil {
		// record vanished between read and write; the racing delete wins
		return rec
	}
	s.logger.Info("backfilled inferred fields", "owner_id", rec.OwnerID, "receipt_id", rec.ReceiptID, "fields", len(missing), "promoted", promotable)
	return updated
}

// reconcileView merges the persisted record and the inferred fields
// into the authoritative read model: a persisted non-blank value always
// wins, inference only fills gaps.
func reconcileView(rec *entity.Receipt, inf infer.Fields, status constants.ReceiptStatus, refs *entity.ArtifactRefs) *entity.ReceiptView {
	view := &entity.ReceiptView{Status: status, Artifacts: refs}

	pick := func(name string) *string {
		if rec.HasField(name) {
			return rec.Field(name)
		}
		return inferredValue(inf, name)
	}
	view.Payee = pick("payee")
	view.Date = pick("date")
	view.Total = pick("total")
	view.VAT = pick("vat")
	view.VATRate = pick("vatRate")

	if rec != nil {
		view.ReceiptID = rec.ReceiptID
		view.CreatedAt = rec.CreatedAt
		view.UpdatedAt = rec.UpdatedAt
		view.ConfirmedAt = rec.ConfirmedAt
		view.Note = rec.Note
		view.Category = rec.Category
		view.YNABExportedAt = rec.YNABExportedAt
	}
	return view
}
