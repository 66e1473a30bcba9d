package usecase

import (
	"context"
	"fmt"
	"strings"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// VenueUseCase is the CRUD surface over the venue directory.
type VenueUseCase interface {
	List(ctx context.Context) ([]*model.Venue, error)
	Get(ctx context.Context, id int64) (*model.Venue, error)
	Create(ctx context.Context, name, zone, category, image string) (*model.Venue, error)
	// Update changes the non-nil fields only.
	Update(ctx context.Context, id int64, name, zone, category, image *string) (*model.Venue, error)
	// Delete removes the venue together with its promotions and claims.
	Delete(ctx context.Context, id int64) error
}

var _ VenueUseCase = (*venueUC)(nil)

type venueUC struct {
	venues repository.VenueRepository
	log    *zerolog.Logger
}

func NewVenueUseCase(venues repository.VenueRepository, logger *zerolog.Logger) VenueUseCase {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "venue_uc").Logger()
	return &venueUC{venues: venues, log: &l}
}

func (v *venueUC) List(ctx context.Context) ([]*model.Venue, error) {
	return v.venues.List(ctx, repository.NoTX)
}

func (v *venueUC) Get(ctx context.Context, id int64) (*model.Venue, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return v.venues.FindByID(ctx, repository.NoTX, id)
}

func (v *venueUC) Create(ctx context.Context, name, zone, category, image string) (*model.Venue, error) {
	venue, err := model.NewVenue(name, zone, category, image)
	if err != nil {
		return nil, err
	}
	if err := v.venues.Create(ctx, repository.NoTX, venue); err != nil {
		return nil, err
	}
	v.log.Info().Int64("venue_id", venue.ID).Str("name", venue.Name).Msg("venue created")
	return venue, nil
}

func (v *venueUC) Update(ctx context.Context, id int64, name, zone, category, image *string) (*model.Venue, error) {
	venue, err := v.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		venue.Name = n
	}
	if zone != nil {
		venue.Zone = strings.TrimSpace(*zone)
	}
	if category != nil {
		venue.Category = strings.TrimSpace(*category)
	}
	if image != nil {
		venue.Image = strings.TrimSpace(*image)
	}
	if err := v.venues.Update(ctx, repository.NoTX, venue); err != nil {
		return nil, err
	}
	return venue, nil
}

func (v *venueUC) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}
	if err := v.venues.Delete(ctx, repository.NoTX, id); err != nil {
		return err
	}
	v.log.Info().Int64("venue_id", id).Msg("venue deleted")
	return nil
}
