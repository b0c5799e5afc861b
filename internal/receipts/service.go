// Package receipts implements the receipt lifecycle: creation with a
// presigned upload grant, reconciled reads that merge persisted data
// with OCR-inferred fields, opportunistic backfill of inferred values,
// user updates with confirm validation, and guarded deletion.
package receipts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sirsalvo/easyreceipts/constants"
	"github.com/sirsalvo/easyreceipts/internal/artifacts"
	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/entity"
	"github.com/sirsalvo/easyreceipts/internal/extract"
	"github.com/sirsalvo/easyreceipts/internal/infer"
	"github.com/sirsalvo/easyreceipts/internal/normalize"
	"github.com/sirsalvo/easyreceipts/internal/repository"
)

// ListLimit caps list reads; newest receipts come first.
const ListLimit = 50

// IDGenerator generates unique receipt identifiers
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.NewString() }

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }

// Service handles receipt business logic.
type Service struct {
	repo       repository.ReceiptRepository
	store      artifacts.Store
	presignTTL time.Duration
	logger     *slog.Logger
	idGen      IDGenerator
	clock      TimeSource
}

// NewService creates a new receipt service.
func NewService(repo repository.ReceiptRepository, store artifacts.Store, presignTTL time.Duration, logger *slog.Logger) *Service {
	return NewServiceWithDeps(repo, store, presignTTL, logger, uuidGenerator{}, utcClock{})
}

// NewServiceWithDeps creates a new receipt service with custom id and
// time sources for testing.
func NewServiceWithDeps(repo repository.ReceiptRepository, store artifacts.Store, presignTTL time.Duration, logger *slog.Logger, idGen IDGenerator, clock TimeSource) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		store:      store,
		presignTTL: presignTTL,
		logger:     logger,
		idGen:      idGen,
		clock:      clock,
	}
}

func (s *Service) nowISO() string {
	return s.clock.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

// CreateResult is the response of CreateReceipt.
type CreateResult struct {
	ReceiptID string `json:"receiptId"`
	UploadURL string `json:"uploadUrl"`
	ImagePath string `json:"imagePath"`
}

// CreateReceipt allocates a receipt in status NEW and issues a
// time-limited write grant for the original artifact.
func (s *Service) CreateReceipt(ctx context.Context, ownerID, contentType string) (*CreateResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, common.NewUnauthorized("authentication required")
	}

	ct := constants.NormalizeContentType(contentType)
	if ct == "" {
		ct = constants.DefaultUploadContentType
	}
	if _, ok := constants.AllowedUploadContentTypes[ct]; !ok {
		return nil, common.NewValidation("unsupported upload content type", "contentType")
	}

	receiptID := s.idGen.Generate()
	now := s.nowISO()
	key := artifacts.OriginalKey(ownerID, receiptID)

	uploadURL, err := s.store.PresignPut(ctx, key, ct, s.presignTTL)
	if err != nil {
		if _, ok := common.AsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to presign upload", "owner_id", ownerID, "receipt_id", receiptID, "error", err)
		return nil, common.NewStorage("failed to issue upload url", err)
	}

	statusKey := "STATUS#" + string(constants.StatusNew) + "#" + now
	rec := &entity.Receipt{
		OwnerID:     ownerID,
		ReceiptID:   receiptID,
		Status:      constants.StatusNew,
		CreatedAt:   now,
		ContentType: &ct,
		OriginalKey: &key,
		StatusKey:   &statusKey,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("failed to create receipt record", "owner_id", ownerID, "receipt_id", receiptID, "error", err)
		return nil, common.NewStorage("failed to create receipt", err)
	}

	s.logger.Info("receipt created", "owner_id", ownerID, "receipt_id", receiptID)
	return &CreateResult{ReceiptID: receiptID, UploadURL: uploadURL, ImagePath: key}, nil
}

// inferFromOCR loads and interprets the OCR artifact for a receipt.
// Any failure degrades to an empty inference; OCR data is noisy and
// must never block a read.
func (s *Service) inferFromOCR(ctx context.Context, ownerID, receiptID string) infer.Fields {
	raw, err := s.store.Get(ctx, artifacts.OCRKey(ownerID, receiptID))
	if err != nil {
		s.logger.Warn("failed to load ocr artifact", "owner_id", ownerID, "receipt_id", receiptID, "error", err)
		return infer.Fields{}
	}
	summary := extract.SummaryFields(extract.ParseDocument(raw))
	return infer.FromBag(summary.Fields)
}

func (s *Service) artifactExists(ctx context.Context, key string) bool {
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		s.logger.Warn("artifact existence check failed", "key", key, "error", err)
		return false
	}
	return ok
}

// ListReceipts returns the reconciled list view, newest first.
func (s *Service) ListReceipts(ctx context.Context, ownerID string) ([]*entity.ReceiptView, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, common.NewUnauthorized("authentication required")
	}

	recs, err := s.repo.List(ctx, ownerID, ListLimit)
	if err != nil {
		s.logger.Error("failed to list receipts", "owner_id", ownerID, "error", err)
		return nil, common.NewStorage("failed to list receipts", err)
	}

	out := make([]*entity.ReceiptView, 0, len(recs))
	for _, rec := range recs {
		var inf infer.Fields
		hasOCR := s.artifactExists(ctx, artifacts.OCRKey(ownerID, rec.ReceiptID))
		if hasOCR {
			inf = s.inferFromOCR(ctx, ownerID, rec.ReceiptID)
			rec = s.persistInferred(ctx, rec, inf, true)
		}
		hasProcessed := false
		if !hasOCR && rec.Status == "" {
			hasProcessed = s.artifactExists(ctx, artifacts.ProcessedKey(ownerID, rec.ReceiptID))
		}
		status := DeriveStatus(rec.Status, hasProcessed, hasOCR)
		out = append(out, reconcileView(rec, inf, status, nil))
	}

	s.logger.Info("receipts listed", "owner_id", ownerID, "count", len(out))
	return out, nil
}

// GetReceipt returns the reconciled detail view, including artifact
// references and presigned read URLs.
func (s *Service) GetReceipt(ctx context.Context, ownerID, receiptID string) (*entity.ReceiptView, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, common.NewUnauthorized("authentication required")
	}

	rec, err := s.repo.Get(ctx, ownerID, receiptID)
	if err != nil {
		return nil, common.NewStorage("failed to read receipt", err)
	}

	keyOriginal := artifacts.OriginalKey(ownerID, receiptID)
	keyProcessed := artifacts.ProcessedKey(ownerID, receiptID)
	keyOCR := artifacts.OCRKey(ownerID, receiptID)

	hasOriginal := s.artifactExists(ctx, keyOriginal)
	hasProcessed := s.artifactExists(ctx, keyProcessed)
	hasOCR := s.artifactExists(ctx, keyOCR)

	if rec == nil && !hasOriginal {
		return nil, common.NewNotFound("receipt not found")
	}

	var inf infer.Fields
	if hasOCR {
		inf = s.inferFromOCR(ctx, ownerID, receiptID)
		if rec != nil {
			rec = s.persistInferred(ctx, rec, inf, true)
		}
	}

	refs := &entity.ArtifactRefs{OriginalKey: keyOriginal, ProcessedKey: keyProcessed}
	if hasOCR {
		refs.OCRKey = &keyOCR
	}
	if hasProcessed {
		if url, err := s.store.PresignGet(ctx, keyProcessed, s.presignTTL); err == nil {
			refs.ProcessedURL = &url
		} else {
			s.logger.Warn("failed to presign processed artifact", "key", keyProcessed, "error", err)
		}
	}
	if hasOCR {
		if url, err := s.store.PresignGet(ctx, keyOCR, s.presignTTL); err == nil {
			refs.OCRURL = &url
		} else {
			s.logger.Warn("failed to presign ocr artifact", "key", keyOCR, "error", err)
		}
	}

	var persistedStatus constants.ReceiptStatus
	if rec != nil {
		persistedStatus = rec.Status
	}
	view := reconcileView(rec, inf, DeriveStatus(persistedStatus, hasProcessed, hasOCR), refs)
	view.ReceiptID = receiptID
	return view, nil
}

// UpdateRequest carries a partial receipt edit. Empty strings leave the
// stored value untouched, matching the partial-update contract.
type UpdateRequest struct {
	Payee    string
	Date     string
	Total    string
	VAT      string
	VATRate  string
	Note     string
	Category string
	Status   constants.ReceiptStatus

	// YNABExportedAt is three-state: unset leaves the stored value,
	// clear removes it, set validates and stores an ISO 8601 timestamp.
	YNABExportedAt entity.Patch[string]
}

func (r UpdateRequest) editsBusinessFields() bool {
	return r.Payee != "" || r.Date != "" || r.Total != "" || r.VAT != "" ||
		r.VATRate != "" || r.Note != "" || r.Category != "" || r.Status != ""
}

// UpdateReceipt applies a partial edit, enforcing confirm validation
// and the immutability of confirmed receipts.
func (s *Service) UpdateReceipt(ctx context.Context, ownerID, receiptID string, req UpdateRequest) (*entity.Receipt, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, common.NewUnauthorized("authentication required")
	}

	if req.Status != "" && !constants.IsKnownStatus(req.Status) {
		return nil, common.NewValidation("unknown status", "status")
	}

	// Validate the optional export timestamp before any write happens.
	if req.YNABExportedAt.Op() == entity.PatchSet {
		v := strings.TrimSpace(req.YNABExportedAt.Value())
		if _, err := time.Parse(time.RFC3339, v); err != nil {
			return nil, common.NewValidation("ynabExportedAt must be an ISO 8601 timestamp", "ynabExportedAt")
		}
	}

	date := strings.TrimSpace(req.Date)
	if date != "" {
		// lossy fallback: unmatched input is stored as typed by the user
		date, _ = normalize.Date(date)
	}

	if req.Status == constants.StatusConfirmed {
		var missing []string
		if strings.TrimSpace(req.Payee) == "" {
			missing = append(missing, "payee")
		}
		if date == "" {
			missing = append(missing, "date")
		}
		if strings.TrimSpace(req.Total) == "" {
			missing = append(missing, "total")
		}
		if len(missing) > 0 {
			return nil, common.NewValidation("missing required fields to confirm", missing...)
		}
	}

	existing, err := s.repo.Get(ctx, ownerID, receiptID)
	if err != nil {
		return nil, common.NewStorage("failed to read receipt", err)
	}
	if existing == nil {
		return nil, common.NewNotFound("receipt not found")
	}
	if existing.Status == constants.StatusConfirmed && req.editsBusinessFields() {
		// confirmed receipts only accept export bookkeeping updates
		return nil, common.NewConflict("confirmed receipt is immutable")
	}

	now := s.nowISO()
	set := map[string]string{"updatedAt": now}
	var clear []string

	putTrimmed := func(field, value string) {
		if v := strings.TrimSpace(value); v != "" {
			set[field] = v
		}
	}
	putTrimmed("payee", req.Payee)
	putTrimmed("date", date)
	putTrimmed("total", canonicalAmount(req.Total))
	putTrimmed("vat", canonicalAmount(req.VAT))
	putTrimmed("vatRate", req.VATRate)
	putTrimmed("note", req.Note)
	putTrimmed("category", req.Category)

	if req.Status != "" {
		set["status"] = string(req.Status)
		if req.Status == constants.StatusConfirmed && existing.ConfirmedAt == nil {
			// confirmedAt is written exactly once
			set["confirmedAt"] = now
			set["statusKey"] = "STATUS#" + string(constants.StatusConfirmed) + "#" + now
		}
	}

	switch req.YNABExportedAt.Op() {
	case entity.PatchSet:
		set["ynabExportedAt"] = strings.TrimSpace(req.YNABExportedAt.Value())
	case entity.PatchClear:
		clear = append(clear, "ynabExportedAt")
	}

	rec, err := s.repo.UpdateFields(ctx, ownerID, receiptID, set, clear)
	if err != nil {
		return nil, common.NewStorage("failed to update receipt", err)
	}
	if rec == nil {
		// record vanished between read and conditional write
		return nil, common.NewNotFound("receipt not found")
	}

	s.logger.Info("receipt updated", "owner_id", ownerID, "receipt_id", receiptID, "status", rec.Status)
	return rec, nil
}

// canonicalAmount coerces a numeric-ish user value into the canonical
// decimal string form, keeping free text as-is for the caller to reject
// or store; blank input stays blank.
func canonicalAmount(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if parsed := normalize.ParseMoney(v); parsed != nil {
		return normalize.FormatAmount(*parsed)
	}
	return v
}

// DeleteReceipt removes an unconfirmed receipt and best-effort cleans
// up its artifacts. The not-confirmed check and the delete are a single
// conditional write.
func (s *Service) DeleteReceipt(ctx context.Context, ownerID, receiptID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return common.NewUnauthorized("authentication required")
	}

	old, err := s.repo.DeleteUnconfirmed(ctx, ownerID, receiptID)
	if err != nil {
		return common.NewStorage("failed to delete receipt", err)
	}
	if old == nil {
		existing, err := s.repo.Get(ctx, ownerID, receiptID)
		if err != nil {
			return common.NewStorage("failed to delete receipt", err)
		}
		if existing != nil {
			return common.NewConflict("cannot delete a confirmed receipt")
		}
		return common.NewNotFound("receipt not found")
	}

	// Best-effort artifact cleanup: failures are logged and absorbed,
	// the record deletion already succeeded.
	keySet := map[string]struct{}{
		artifacts.OriginalKey(ownerID, receiptID):  {},
		artifacts.ProcessedKey(ownerID, receiptID): {},
		artifacts.OCRKey(ownerID, receiptID):       {},
	}
	for _, stored := range []*string{old.OriginalKey, old.ProcessedKey, old.OCRKey} {
		if stored != nil && strings.TrimSpace(*stored) != "" {
			keySet[*stored] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		s.logger.Warn("artifact cleanup failed after delete", "owner_id", ownerID, "receipt_id", receiptID, "error", err)
	}

	s.logger.Info("receipt deleted", "owner_id", ownerID, "receipt_id", receiptID)
	return nil
}
