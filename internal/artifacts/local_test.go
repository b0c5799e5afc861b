package artifacts

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*LocalStore, *Signer) {
	t.Helper()
	signer := NewSigner("test-secret", "http://localhost:8080")
	store, err := NewLocalStore(t.TempDir(), signer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store, signer
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	key := OCRKey("user-1", "r-1")

	ok, err := store.Exists(ctx, key)
	if err != nil || ok {
		t.Fatalf("Exists before put = (%v, %v)", ok, err)
	}
	if data, err := store.Get(ctx, key); err != nil || data != nil {
		t.Fatalf("Get before put = (%v, %v), want (nil, nil)", data, err)
	}

	if err := store.Put(ctx, key, []byte(`{"a":1}`), "application/json"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err = store.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists after put = (%v, %v)", ok, err)
	}
	data, err := store.Get(ctx, key)
	if err != nil || string(data) != `{"a":1}` {
		t.Fatalf("Get = (%q, %v)", data, err)
	}
}

func TestLocalStoreDeleteBestEffort(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	key := OriginalKey("user-1", "r-1")
	if err := store.Put(ctx, key, []byte("img"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// deleting a mix of present and absent keys succeeds
	if err := store.Delete(ctx, key, ProcessedKey("user-1", "r-1"), OCRKey("user-1", "r-1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := store.Exists(ctx, key); ok {
		t.Fatal("object still present after delete")
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if _, err := store.Get(ctx, "../outside"); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if err := store.Put(ctx, "/abs/path", nil, ""); err == nil {
		t.Fatal("expected error for absolute key")
	}
}

func TestSignerVerify(t *testing.T) {
	signer := NewSigner("test-secret", "http://localhost:8080")
	key := ProcessedKey("user-1", "r-1")

	signed, err := signer.URL("GET", key, "", 15*time.Minute)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.HasPrefix(u.Path, "/artifacts/") {
		t.Fatalf("path = %q", u.Path)
	}
	if err := signer.Verify("GET", key, u.Query()); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// wrong method
	if err := signer.Verify("PUT", key, u.Query()); err == nil {
		t.Fatal("PUT accepted with a GET grant")
	}
	// wrong key
	if err := signer.Verify("GET", OCRKey("user-1", "r-1"), u.Query()); err == nil {
		t.Fatal("signature accepted for a different key")
	}
	// tampered signature
	q := u.Query()
	q.Set("sig", "deadbeef")
	if err := signer.Verify("GET", key, q); err == nil {
		t.Fatal("tampered signature accepted")
	}
}

func TestSignerExpiry(t *testing.T) {
	signer := NewSigner("test-secret", "http://localhost:8080")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }

	signed, err := signer.URL("GET", "k", "", time.Minute)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	u, _ := url.Parse(signed)

	if err := signer.Verify("GET", "k", u.Query()); err != nil {
		t.Fatalf("Verify before expiry: %v", err)
	}
	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := signer.Verify("GET", "k", u.Query()); err == nil {
		t.Fatal("expired url accepted")
	}
}

func TestSignerUnconfiguredSecret(t *testing.T) {
	signer := NewSigner("", "http://localhost:8080")
	if _, err := signer.URL("PUT", "k", "image/jpeg", time.Minute); err == nil {
		t.Fatal("expected config error with empty secret")
	}
}
