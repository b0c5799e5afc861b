// Package categories manages the per-owner category list used to tag
// receipts. Owners without a stored list see a default set; stored
// lists are cleaned before persisting.
package categories

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/repository"
)

const (
	maxNameLength = 40
	maxCategories = 50
)

// DefaultCategories is the list served to owners who never stored one.
var DefaultCategories = []string{
	"Groceries",
	"Restaurants",
	"Transport",
	"Shopping",
	"Health",
	"Bills",
	"Entertainment",
	"Travel",
	"Other",
}

// Service handles category list logic.
type Service struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

// NewService creates a new category service.
func NewService(repo repository.CategoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns the owner's category list, falling back to the defaults
// when none was ever stored.
func (s *Service) List(ctx context.Context, ownerID string) ([]string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, common.NewUnauthorized("authentication required")
	}
	names, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, common.NewStorage("failed to load categories", err)
	}
	if names == nil {
		out := make([]string, len(DefaultCategories))
		copy(out, DefaultCategories)
		return out, nil
	}
	return names, nil
}

// Replace stores a cleaned copy of the given list as the owner's
// category list. An empty cleaned list is rejected.
func (s *Service) Replace(ctx context.Context, ownerID string, names []string) ([]string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, common.NewUnauthorized("authentication required")
	}
	cleaned := Clean(names)
	if len(cleaned) == 0 {
		return nil, common.NewValidation("category list must contain at least one name", "categories")
	}
	if err := s.repo.Put(ctx, ownerID, cleaned); err != nil {
		return nil, common.NewStorage("failed to store categories", err)
	}
	s.logger.Info("categories replaced", "owner_id", ownerID, "count", len(cleaned))
	return cleaned, nil
}

// Add appends a single category to the owner's list, initializing it
// from the defaults first when unset. Adding an existing name is a
// no-op and returns the current list.
func (s *Service) Add(ctx context.Context, ownerID, name string) ([]string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, common.NewUnauthorized("authentication required")
	}
	name = truncateName(strings.TrimSpace(name))
	if name == "" {
		return nil, common.NewValidation("category name is required", "name")
	}

	current, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, existing := range current {
		if strings.EqualFold(existing, name) {
			return current, nil
		}
	}
	if len(current) >= maxCategories {
		return nil, common.NewValidation("category list is full", "name")
	}

	updated := append(current, name)
	if err := s.repo.Put(ctx, ownerID, updated); err != nil {
		return nil, common.NewStorage("failed to store categories", err)
	}
	s.logger.Info("category added", "owner_id", ownerID, "name", name)
	return updated, nil
}

// Clean trims, truncates and case-insensitively de-duplicates a
// category list, preserving first-seen order and capping the length.
func Clean(names []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = truncateName(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
		if len(out) == maxCategories {
			break
		}
	}
	return out
}

func truncateName(name string) string {
	if len(name) <= maxNameLength {
		return name
	}
	return strings.TrimSpace(name[:maxNameLength])
}
