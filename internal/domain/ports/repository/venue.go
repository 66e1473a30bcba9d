package repository

import (
	"context"

	"clicks-promotions/internal/domain/model"
)

// VenueRepository persists venues. The promotion core only needs FindByID.
type VenueRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Venue, error)
	List(ctx context.Context, tx Tx) ([]*model.Venue, error)
	// Create inserts v and sets v.ID.
	Create(ctx context.Context, tx Tx, v *model.Venue) error
	Update(ctx context.Context, tx Tx, v *model.Venue) error
	Delete(ctx context.Context, tx Tx, id int64) error
}
