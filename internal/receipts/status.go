package receipts

import "github.com/sirsalvo/easyreceipts/constants"

// DeriveStatus resolves the effective lifecycle status for read paths.
// A persisted status always wins; with none, artifact existence implies
// the furthest observable stage: an OCR artifact means OCR_DONE even if
// the processed-image marker is also present, a processed image alone
// means PROCESSED, neither means NEW.
//
// Note the OCR check comes before the processed check. When both
// artifacts exist and no status is persisted, backfill promotes the
// record to OCR_DONE on the same read, so the ordering is only visible
// until that first reconciled read lands.
func DeriveStatus(persisted constants.ReceiptStatus, hasProcessed, hasOCR bool) constants.ReceiptStatus {
	if persisted != "" {
		return persisted
	}
	if hasOCR {
		return constants.StatusOCRDone
	}
	if hasProcessed {
		return constants.StatusProcessed
	}
	return constants.StatusNew
}
