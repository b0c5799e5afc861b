package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sirsalvo/easyreceipts/constants"
	"github.com/sirsalvo/easyreceipts/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close(logger) })
	if err := Migrate(context.Background(), db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testRepo(t *testing.T) ReceiptRepository {
	t.Helper()
	return NewReceiptRepository(openTestDB(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func str(s string) *string { return &s }

func newReceipt(ownerID, receiptID, createdAt string) *entity.Receipt {
	return &entity.Receipt{
		OwnerID:   ownerID,
		ReceiptID: receiptID,
		Status:    constants.StatusNew,
		CreatedAt: createdAt,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := newReceipt("owner-1", "r-1", "2024-03-01T09:00:00Z")
	rec.Payee = str("Coop")
	rec.ContentType = str("image/jpeg")
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, "owner-1", "r-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get returned nil for existing record")
	}
	if got.Status != constants.StatusNew || got.CreatedAt != "2024-03-01T09:00:00Z" {
		t.Errorf("got %+v", got)
	}
	if got.Payee == nil || *got.Payee != "Coop" {
		t.Errorf("payee = %v, want Coop", got.Payee)
	}
	if got.Total != nil {
		t.Errorf("unset total should scan as nil, got %v", *got.Total)
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	repo := testRepo(t)
	got, err := repo.Get(context.Background(), "owner-1", "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestListNewestFirstAndScoped(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, rec := range []*entity.Receipt{
		newReceipt("owner-1", "r-old", "2024-03-01T09:00:00Z"),
		newReceipt("owner-1", "r-new", "2024-03-02T09:00:00Z"),
		newReceipt("owner-2", "r-other", "2024-03-03T09:00:00Z"),
	} {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("create %s: %v", rec.ReceiptID, err)
		}
	}

	got, err := repo.List(ctx, "owner-1", 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ReceiptID != "r-new" || got[1].ReceiptID != "r-old" {
		t.Errorf("order = [%s %s], want newest first", got[0].ReceiptID, got[1].ReceiptID)
	}

	limited, err := repo.List(ctx, "owner-1", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d records, want 1", len(limited))
	}
}

func TestUpdateFieldsSetAndClear(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := newReceipt("owner-1", "r-1", "2024-03-01T09:00:00Z")
	rec.YNABExportedAt = str("2024-03-05T10:00:00Z")
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.UpdateFields(ctx, "owner-1", "r-1",
		map[string]string{"payee": "Coop", "total": "12.5", "updatedAt": "2024-03-06T08:00:00Z"},
		[]string{"ynabExportedAt"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got == nil {
		t.Fatal("update returned nil for existing record")
	}
	if got.Payee == nil || *got.Payee != "Coop" {
		t.Errorf("payee = %v", got.Payee)
	}
	if got.Total == nil || *got.Total != "12.5" {
		t.Errorf("total = %v", got.Total)
	}
	if got.YNABExportedAt != nil {
		t.Errorf("ynab marker should be cleared, got %v", *got.YNABExportedAt)
	}
	if got.UpdatedAt == nil || *got.UpdatedAt != "2024-03-06T08:00:00Z" {
		t.Errorf("updatedAt = %v", got.UpdatedAt)
	}
}

func TestUpdateFieldsAbsentRecord(t *testing.T) {
	repo := testRepo(t)
	got, err := repo.UpdateFields(context.Background(), "owner-1", "nope",
		map[string]string{"payee": "Coop"}, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for absent record", got)
	}
}

func TestUpdateFieldsRejectsUnknownField(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	if err := repo.Create(ctx, newReceipt("owner-1", "r-1", "2024-03-01T09:00:00Z")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.UpdateFields(ctx, "owner-1", "r-1", map[string]string{"ownerId": "evil"}, nil); err == nil {
		t.Error("unknown set field accepted")
	}
	if _, err := repo.UpdateFields(ctx, "owner-1", "r-1", nil, []string{"ownerId"}); err == nil {
		t.Error("unknown clear field accepted")
	}
}

func TestDeleteUnconfirmed(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := newReceipt("owner-1", "r-1", "2024-03-01T09:00:00Z")
	rec.OriginalKey = str("original/owner-1/r-1")
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	old, err := repo.DeleteUnconfirmed(ctx, "owner-1", "r-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if old == nil {
		t.Fatal("delete returned nil for deletable record")
	}
	if old.OriginalKey == nil || *old.OriginalKey != "original/owner-1/r-1" {
		t.Errorf("deleted record lost its key: %v", old.OriginalKey)
	}

	if got, _ := repo.Get(ctx, "owner-1", "r-1"); got != nil {
		t.Error("record still present after delete")
	}
}

func TestDeleteUnconfirmedGuardsConfirmedRecords(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := newReceipt("owner-1", "r-1", "2024-03-01T09:00:00Z")
	rec.Status = constants.StatusConfirmed
	rec.ConfirmedAt = str("2024-03-02T10:00:00Z")
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	old, err := repo.DeleteUnconfirmed(ctx, "owner-1", "r-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if old != nil {
		t.Error("confirmed record was deleted")
	}
	if got, _ := repo.Get(ctx, "owner-1", "r-1"); got == nil {
		t.Error("confirmed record vanished")
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewCategoryRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	got, err := repo.Get(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil for unset list", got)
	}

	if err := repo.Put(ctx, "owner-1", []string{"Food", "Travel"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "owner-1", []string{"Food"}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err = repo.Get(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if len(got) != 1 || got[0] != "Food" {
		t.Errorf("got %v, want replaced list", got)
	}
}
