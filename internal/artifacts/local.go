package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore implements Store on the local filesystem with HMAC-signed
// URLs served back through the API process. Object keys map directly to
// paths under the base directory.
type LocalStore struct {
	basePath string
	signer   *Signer
	logger   *slog.Logger
}

// NewLocalStore creates a LocalStore rooted at basePath.
func NewLocalStore(basePath string, signer *Signer, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifacts directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{basePath: basePath, signer: signer, logger: logger}, nil
}

// resolve maps a key to a filesystem path, rejecting traversal.
func (l *LocalStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(l.basePath, clean), nil
}

func (l *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat artifact: %w", err)
	}
	return true, nil
}

func (l *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

func (l *LocalStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	_ = contentType // keys carry their type by extension; nothing extra to record
	return nil
}

func (l *LocalStore) Delete(_ context.Context, keys ...string) error {
	var firstErr error
	for _, key := range keys {
		path, err := l.resolve(key)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("failed to remove artifact", "key", key, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (l *LocalStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return l.signer.URL("GET", key, "", ttl)
}

func (l *LocalStore) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return l.signer.URL("PUT", key, contentType, ttl)
}
