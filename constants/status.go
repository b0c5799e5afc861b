package constants

// ReceiptStatus is the canonical lifecycle status for rows in receipts.
type ReceiptStatus string

// Stable values (store these exact strings in DB).
const (
	StatusNew       ReceiptStatus = "NEW"       // record created, original upload pending or in flight
	StatusProcessed ReceiptStatus = "PROCESSED" // processed image artifact observed
	StatusOCRDone   ReceiptStatus = "OCR_DONE"  // OCR artifact observed and fields persisted
	StatusConfirmed ReceiptStatus = "CONFIRMED" // user confirmed; terminal
)

// KnownStatuses holds every status accepted on writes.
var KnownStatuses = map[ReceiptStatus]struct{}{
	StatusNew:       {},
	StatusProcessed: {},
	StatusOCRDone:   {},
	StatusConfirmed: {},
}

// IsKnownStatus reports whether s is one of the lifecycle statuses.
func IsKnownStatus(s ReceiptStatus) bool {
	_, ok := KnownStatuses[s]
	return ok
}

// PromotableToOCRDone reports whether a receipt in status s may be advanced
// to OCR_DONE by the opportunistic backfill. The empty status (no persisted
// status yet) is promotable. CONFIRMED is never touched; any future status
// must be added here explicitly rather than assumed promotable.
func PromotableToOCRDone(s ReceiptStatus) bool {
	switch s {
	case "", StatusNew, StatusProcessed:
		return true
	}
	return false
}
