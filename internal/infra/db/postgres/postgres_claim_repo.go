package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/repository"
)

var _ repository.ClaimRepository = (*claimRepo)(nil)

type claimRepo struct {
	pool *pgxpool.Pool
}

func NewClaimRepo(pool *pgxpool.Pool) repository.ClaimRepository {
	return &claimRepo{pool: pool}
}

const claimColumns = `c.id, c.promo_id, c.venue_id, c.user_id, c.claimed_at, c.claim_day, c.code, c.qr, c.redeemed, c.redeemed_at`

func claimDest(c *model.Claim) []interface{} {
	return []interface{}{
		&c.ID, &c.PromoID, &c.VenueID, &c.UserID, &c.ClaimedAt, &c.ClaimDay, &c.Code, &c.QR, &c.Redeemed, &c.RedeemedAt,
	}
}

func normalizeClaim(c *model.Claim) {
	c.ClaimedAt = c.ClaimedAt.UTC()
	c.ClaimDay = model.StartOfDayUTC(c.ClaimDay)
	if c.RedeemedAt != nil {
		at := c.RedeemedAt.UTC()
		c.RedeemedAt = &at
	}
}

// Insert relies on promotion_claims_one_per_day for the daily limit and on
// promotion_claims_code_key for code uniqueness.
func (r *claimRepo) Insert(ctx context.Context, tx repository.Tx, c *model.Claim) error {
	const q = `
INSERT INTO promotion_claims (id, promo_id, venue_id, user_id, claimed_at, claim_day, code, qr, redeemed, redeemed_at)
VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.PromoID, c.VenueID, c.UserID, c.ClaimedAt, c.ClaimDay.Format("2006-01-02"), c.Code, c.QR, c.Redeemed, c.RedeemedAt,
	)
	if err != nil {
		return fmt.Errorf("Insert claim: %w", err)
	}
	return nil
}

func (r *claimRepo) LatestByUser(ctx context.Context, tx repository.Tx, promoID, userID string) (*model.Claim, error) {
	q := `SELECT ` + claimColumns + `
  FROM promotion_claims c
 WHERE c.promo_id = $1 AND c.user_id = $2
 ORDER BY c.claimed_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, promoID, userID)
	if err != nil {
		return nil, err
	}
	var c model.Claim
	if err := row.Scan(claimDest(&c)...); err != nil {
		return nil, scanErr("LatestByUser", err)
	}
	normalizeClaim(&c)
	return &c, nil
}

func (r *claimRepo) ClaimedPromotionIDs(ctx context.Context, tx repository.Tx, userID string, since time.Time) (map[string]bool, error) {
	const q = `
SELECT DISTINCT promo_id
  FROM promotion_claims
 WHERE user_id = $1 AND claimed_at >= $2;
`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, since)
	if err != nil {
		return nil, fmt.Errorf("ClaimedPromotionIDs: %w", err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, scanErr("ClaimedPromotionIDs", err)
		}
		out[id] = true
	}
	return out, classify(rows.Err())
}

func (r *claimRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ClaimWithPromotion, error) {
	q := `SELECT ` + claimColumns + `, ` + promotionColumns + `, v.name
  FROM promotion_claims c
  JOIN promotions p ON p.id = c.promo_id
  JOIN venues v ON v.id = p.venue_id
 WHERE c.code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	var out model.ClaimWithPromotion
	p := &out.Promotion
	dest := append(claimDest(&out.Claim),
		&p.ID, &p.VenueID, &p.Title, &p.Description, &p.Image, &p.Code, &p.QR, &p.Claims, &p.Active, &p.CreatedAt,
		&out.VenueName,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, scanErr("FindByCode claim", err)
	}
	normalizeClaim(&out.Claim)
	p.CreatedAt = p.CreatedAt.UTC()
	return &out, nil
}

// MarkRedeemed is the single-use guard: concurrent callers race on the
// NOT redeemed predicate and only one sees a changed row.
func (r *claimRepo) MarkRedeemed(ctx context.Context, tx repository.Tx, code string, at time.Time) (int64, error) {
	const q = `
UPDATE promotion_claims
   SET redeemed = TRUE, redeemed_at = $2
 WHERE code = $1 AND NOT redeemed;
`
	tag, err := execSQL(ctx, r.pool, tx, q, code, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("MarkRedeemed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *claimRepo) DeleteAll(ctx context.Context, tx repository.Tx) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM promotion_claims;`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll claims: %w", err)
	}
	return tag.RowsAffected(), nil
}
