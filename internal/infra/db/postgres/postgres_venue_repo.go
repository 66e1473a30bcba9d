package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/repository"
)

var _ repository.VenueRepository = (*venueRepo)(nil)

type venueRepo struct {
	pool *pgxpool.Pool
}

func NewVenueRepo(pool *pgxpool.Pool) repository.VenueRepository {
	return &venueRepo{pool: pool}
}

func (r *venueRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Venue, error) {
	const q = `
SELECT id, name, zone, category, image
  FROM venues
 WHERE id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var v model.Venue
	if err := row.Scan(&v.ID, &v.Name, &v.Zone, &v.Category, &v.Image); err != nil {
		return nil, scanErr("FindByID venue", err)
	}
	return &v, nil
}

func (r *venueRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Venue, error) {
	const q = `
SELECT id, name, zone, category, image
  FROM venues
 ORDER BY name, id;
`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("List venues: %w", err)
	}
	defer rows.Close()
	var out []*model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Zone, &v.Category, &v.Image); err != nil {
			return nil, scanErr("List venues", err)
		}
		out = append(out, &v)
	}
	return out, classify(rows.Err())
}

func (r *venueRepo) Create(ctx context.Context, tx repository.Tx, v *model.Venue) error {
	const q = `
INSERT INTO venues (name, zone, category, image)
VALUES ($1, $2, $3, $4)
RETURNING id;
`
	row, err := pickRow(ctx, r.pool, tx, q, v.Name, v.Zone, v.Category, v.Image)
	if err != nil {
		return err
	}
	if err := row.Scan(&v.ID); err != nil {
		return scanErr("Create venue", err)
	}
	return nil
}

func (r *venueRepo) Update(ctx context.Context, tx repository.Tx, v *model.Venue) error {
	const q = `
UPDATE venues
   SET name = $2, zone = $3, category = $4, image = $5
 WHERE id = $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q, v.ID, v.Name, v.Zone, v.Category, v.Image)
	if err != nil {
		return fmt.Errorf("Update venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete cascades to the venue's promotions and claims.
func (r *venueRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM venues WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("Delete venue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
