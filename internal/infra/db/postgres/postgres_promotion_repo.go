package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/repository"
)

var _ repository.PromotionRepository = (*promotionRepo)(nil)

type promotionRepo struct {
	pool *pgxpool.Pool
}

func NewPromotionRepo(pool *pgxpool.Pool) repository.PromotionRepository {
	return &promotionRepo{pool: pool}
}

const promotionColumns = `p.id, p.venue_id, p.title, p.description, p.image, p.code, p.qr, p.claims, p.active, p.created_at`

const promotionViewSelect = `
SELECT ` + promotionColumns + `, v.name, v.zone, v.image
  FROM promotions p
  JOIN venues v ON v.id = p.venue_id`

func scanPromotion(row pgx.Row, extra ...interface{}) (*model.Promotion, error) {
	var p model.Promotion
	dest := append([]interface{}{
		&p.ID, &p.VenueID, &p.Title, &p.Description, &p.Image, &p.Code, &p.QR, &p.Claims, &p.Active, &p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func scanPromotionView(row pgx.Row) (*model.PromotionView, error) {
	var v model.PromotionView
	p, err := scanPromotion(row, &v.VenueName, &v.VenueZone, &v.VenueImage)
	if err != nil {
		return nil, err
	}
	v.Promotion = *p
	return &v, nil
}

func (r *promotionRepo) Insert(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	const q = `
INSERT INTO promotions (id, venue_id, title, description, image, code, qr, claims, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.VenueID, p.Title, p.Description, p.Image, p.Code, p.QR, p.Claims, p.Active, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Insert promotion: %w", err)
	}
	return nil
}

func (r *promotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	return r.findByID(ctx, tx, id, "")
}

func (r *promotionRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	return r.findByID(ctx, tx, id, " FOR UPDATE")
}

func (r *promotionRepo) findByID(ctx context.Context, tx repository.Tx, id, lock string) (*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions p WHERE p.id = $1` + lock
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPromotion(row)
	if err != nil {
		return nil, scanErr("FindByID promotion", err)
	}
	return p, nil
}

func (r *promotionRepo) FindViewByID(ctx context.Context, tx repository.Tx, id string) (*model.PromotionView, error) {
	row, err := pickRow(ctx, r.pool, tx, promotionViewSelect+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, err
	}
	v, err := scanPromotionView(row)
	if err != nil {
		return nil, scanErr("FindViewByID promotion", err)
	}
	return v, nil
}

func (r *promotionRepo) List(ctx context.Context, tx repository.Tx, f repository.PromotionFilter) ([]*model.PromotionView, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if f.IncludeInactive {
		rows, err = queryRows(ctx, r.pool, tx, promotionViewSelect+`
 ORDER BY p.created_at DESC, p.id DESC`)
	} else {
		rows, err = queryRows(ctx, r.pool, tx, promotionViewSelect+`
 WHERE p.active AND p.created_at >= $1
 ORDER BY p.created_at DESC, p.id DESC`, f.CreatedSince)
	}
	if err != nil {
		return nil, fmt.Errorf("List promotions: %w", err)
	}
	defer rows.Close()

	out := make([]*model.PromotionView, 0)
	for rows.Next() {
		v, err := scanPromotionView(rows)
		if err != nil {
			return nil, scanErr("List promotions", err)
		}
		out = append(out, v)
	}
	return out, classify(rows.Err())
}

func (r *promotionRepo) CountActiveByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM promotions WHERE venue_id = $1 AND active;`, venueID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, scanErr("CountActiveByVenue", err)
	}
	return n, nil
}

func (r *promotionRepo) DeactivateByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE promotions SET active = FALSE WHERE venue_id = $1 AND active;`, venueID)
	if err != nil {
		return 0, fmt.Errorf("DeactivateByVenue: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *promotionRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE promotions SET active = $2 WHERE id = $1;`, id, active)
	if err != nil {
		return 0, fmt.Errorf("SetActive promotion: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *promotionRepo) DeactivateCreatedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE promotions SET active = FALSE WHERE active AND created_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeactivateCreatedBefore: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *promotionRepo) IncrementClaims(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE promotions SET claims = claims + 1 WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("IncrementClaims: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *promotionRepo) ResetClaimCounters(ctx context.Context, tx repository.Tx) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE promotions SET claims = 0;`)
	if err != nil {
		return 0, fmt.Errorf("ResetClaimCounters: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *promotionRepo) DeleteAll(ctx context.Context, tx repository.Tx) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM promotions;`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll promotions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *promotionRepo) Summary(ctx context.Context, tx repository.Tx) ([]*model.PromotionSummary, error) {
	const q = `
SELECT v.name, p.title, p.claims
  FROM promotions p
  JOIN venues v ON v.id = p.venue_id
 ORDER BY p.claims DESC, p.created_at DESC;
`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}
	defer rows.Close()
	out := make([]*model.PromotionSummary, 0)
	for rows.Next() {
		var s model.PromotionSummary
		if err := rows.Scan(&s.Venue, &s.Promotion, &s.Claims); err != nil {
			return nil, scanErr("Summary", err)
		}
		out = append(out, &s)
	}
	return out, classify(rows.Err())
}
