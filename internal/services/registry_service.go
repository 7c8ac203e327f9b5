package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// RegistryService keeps the category and payer registries consistent with the
// transactions and budgets that reference them. Names stay free text on the
// referencing side; the delete guard is the only protection against orphans,
// so it is never skipped.
type RegistryService struct {
	store RegistryStore
}

func NewRegistryService(store RegistryStore) *RegistryService {
	return &RegistryService{store: store}
}

func (s *RegistryService) Create(ctx context.Context, userID string, dim core.Dimension, name string) (core.NameRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.NameRecord{}, fmt.Errorf("%w: empty %s name", core.ErrInvalidInput, dim)
	}

	if _, exists, err := s.store.FindNameFold(ctx, dim, userID, name); err != nil {
		return core.NameRecord{}, err
	} else if exists {
		return core.NameRecord{}, fmt.Errorf("%w: %s %q already exists", core.ErrConflict, dim, name)
	}

	rec := core.NameRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	// The store's case-insensitive unique index backs this up if two creates
	// race past the lookup.
	if err := s.store.InsertName(ctx, dim, rec); err != nil {
		return core.NameRecord{}, err
	}

	slog.InfoContext(ctx, "Registry name created", "dimension", dim, "name", name)
	return rec, nil
}

func (s *RegistryService) List(ctx context.Context, userID string, dim core.Dimension) ([]core.NameRecord, error) {
	return s.store.ListNames(ctx, dim, userID)
}

// Delete removes a registry name, refusing while anything still references
// the exact stored spelling. No cascade, no rewrite of referencing rows.
func (s *RegistryService) Delete(ctx context.Context, userID string, dim core.Dimension, id string) error {
	rec, err := s.store.GetName(ctx, dim, userID, id)
	if err != nil {
		return err
	}

	refs, err := s.store.CountExpenseRefs(ctx, userID, dim, rec.Name)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: %s %q is used in transactions", core.ErrConflict, dim, rec.Name)
	}

	if dim == core.DimensionCategory {
		refs, err = s.store.CountBudgetRefs(ctx, userID, rec.Name)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: %s %q is used in budgets", core.ErrConflict, dim, rec.Name)
		}
	}

	if err := s.store.DeleteName(ctx, dim, userID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Registry name deleted", "dimension", dim, "name", rec.Name)
	return nil
}
