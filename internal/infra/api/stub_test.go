//go:build !integration

package api_test

import (
	"context"
	"sync"
	"time"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/usecase"
)

// ---- stub PromotionUseCase ----

type stubPromotionUC struct {
	mu sync.Mutex

	lastCreate  usecase.CreatePromotionInput
	lastList    usecase.ListPromotionsOptions
	lastDesired *bool
	lastIsAdmin bool

	createErr  error
	claimErr   error
	verifyErr  error
	verifyResp *model.RedemptionResult
}

var _ usecase.PromotionUseCase = (*stubPromotionUC)(nil)

func (s *stubPromotionUC) CreateOrReplace(ctx context.Context, in usecase.CreatePromotionInput) (*model.PromotionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCreate = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &model.PromotionView{
		Promotion: model.Promotion{
			ID: "01PROMO", VenueID: in.VenueID, Title: in.Title, Code: "ABCD2345",
			QR: "data:image/png;base64,AA==", Active: true, CreatedAt: time.Now().UTC(),
		},
		VenueName: "Blue Bar",
	}, nil
}

func (s *stubPromotionUC) List(ctx context.Context, opts usecase.ListPromotionsOptions) ([]*model.PromotionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastList = opts
	return nil, nil
}

func (s *stubPromotionUC) DeactivateForVenue(ctx context.Context, venueID int64) error {
	if venueID == 404 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *stubPromotionUC) Toggle(ctx context.Context, promoID string, desired *bool) (*model.PromotionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDesired = desired
	return &model.PromotionView{Promotion: model.Promotion{ID: promoID}}, nil
}

func (s *stubPromotionUC) SweepExpired(ctx context.Context) int { return 0 }

func (s *stubPromotionUC) Claim(ctx context.Context, promoID, userID string) (*model.ClaimTicket, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	return &model.ClaimTicket{Code: "WXYZ6789", QR: "data:image/png;base64,BB=="}, nil
}

func (s *stubPromotionUC) VerifyAndRedeem(ctx context.Context, code string) (*model.RedemptionResult, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	if s.verifyResp != nil {
		return s.verifyResp, nil
	}
	return &model.RedemptionResult{Reason: model.ReasonInvalidCode}, nil
}

func (s *stubPromotionUC) ResetClaims(ctx context.Context) (int64, error) { return 3, nil }

func (s *stubPromotionUC) PurgeAll(ctx context.Context, isAdmin bool) error {
	s.mu.Lock()
	s.lastIsAdmin = isAdmin
	s.mu.Unlock()
	if !isAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func (s *stubPromotionUC) Summary(ctx context.Context) ([]*model.PromotionSummary, error) {
	return []*model.PromotionSummary{{Venue: "Blue Bar", Promotion: "2x1", Claims: 4}}, nil
}

// ---- stub VenueUseCase ----

type stubVenueUC struct{}

var _ usecase.VenueUseCase = stubVenueUC{}

func (stubVenueUC) List(ctx context.Context) ([]*model.Venue, error) {
	return []*model.Venue{{ID: 1, Name: "Blue Bar"}}, nil
}

func (stubVenueUC) Get(ctx context.Context, id int64) (*model.Venue, error) {
	if id != 1 {
		return nil, domain.ErrNotFound
	}
	return &model.Venue{ID: 1, Name: "Blue Bar"}, nil
}

func (stubVenueUC) Create(ctx context.Context, name, zone, category, image string) (*model.Venue, error) {
	return &model.Venue{ID: 2, Name: name, Zone: zone, Category: category, Image: image}, nil
}

func (stubVenueUC) Update(ctx context.Context, id int64, name, zone, category, image *string) (*model.Venue, error) {
	v := &model.Venue{ID: id, Name: "Blue Bar"}
	if name != nil {
		v.Name = *name
	}
	return v, nil
}

func (stubVenueUC) Delete(ctx context.Context, id int64) error { return nil }

// ---- stub Limiter ----

type countingLimiter struct {
	mu    sync.Mutex
	count map[string]int
	err   error
}

func (l *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == nil {
		l.count = map[string]int{}
	}
	l.count[key]++
	return l.count[key] <= limit, nil
}
