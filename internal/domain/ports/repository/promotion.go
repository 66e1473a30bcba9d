package repository

import (
	"context"
	"time"

	"clicks-promotions/internal/domain/model"
)

// PromotionFilter selects promotions for listing.
// With IncludeInactive false only active promotions created at or after
// CreatedSince are returned.
type PromotionFilter struct {
	IncludeInactive bool
	CreatedSince    time.Time
}

// PromotionRepository persists promotions.
//
// Insert returns domain.ErrConflict when the generated code collides and
// domain.ErrTransient when a concurrent writer already holds the venue's
// active slot.
type PromotionRepository interface {
	Insert(ctx context.Context, tx Tx, p *model.Promotion) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Promotion, error)
	// FindByIDForUpdate locks the row for the rest of tx.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.Promotion, error)
	FindViewByID(ctx context.Context, tx Tx, id string) (*model.PromotionView, error)
	List(ctx context.Context, tx Tx, f PromotionFilter) ([]*model.PromotionView, error)
	CountActiveByVenue(ctx context.Context, tx Tx, venueID int64) (int, error)

	DeactivateByVenue(ctx context.Context, tx Tx, venueID int64) (int64, error)
	SetActive(ctx context.Context, tx Tx, id string, active bool) (int64, error)
	DeactivateCreatedBefore(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
	IncrementClaims(ctx context.Context, tx Tx, id string) error
	ResetClaimCounters(ctx context.Context, tx Tx) (int64, error)
	DeleteAll(ctx context.Context, tx Tx) (int64, error)

	Summary(ctx context.Context, tx Tx) ([]*model.PromotionSummary, error)
}
