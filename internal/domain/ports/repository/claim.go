package repository

import (
	"context"
	"time"

	"clicks-promotions/internal/domain/model"
)

// ClaimRepository persists promotion claims.
type ClaimRepository interface {
	// Insert returns domain.ErrRateLimited when the user already holds a
	// claim for the promotion on the same UTC day and domain.ErrConflict
	// when the redemption code collides.
	Insert(ctx context.Context, tx Tx, c *model.Claim) error
	// LatestByUser returns the most recent claim of userID for promoID.
	LatestByUser(ctx context.Context, tx Tx, promoID, userID string) (*model.Claim, error)
	// ClaimedPromotionIDs returns the promotions userID claimed at or after since.
	ClaimedPromotionIDs(ctx context.Context, tx Tx, userID string, since time.Time) (map[string]bool, error)
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ClaimWithPromotion, error)
	// MarkRedeemed flips redeemed only if it is still false and returns the
	// number of rows changed.
	MarkRedeemed(ctx context.Context, tx Tx, code string, at time.Time) (int64, error)
	DeleteAll(ctx context.Context, tx Tx) (int64, error)
}
