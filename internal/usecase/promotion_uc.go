package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/adapter"
	"clicks-promotions/internal/domain/ports/repository"
	"clicks-promotions/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// PromotionUseCase owns the promotion lifecycle: creation with venue-level
// supersession, expiry, per-day claims and single-use redemption.
type PromotionUseCase interface {
	// CreateOrReplace deactivates the venue's current promotion and inserts a
	// new active one with a fresh code and QR deep link.
	CreateOrReplace(ctx context.Context, in CreatePromotionInput) (*model.PromotionView, error)

	// List returns promotions newest first. By default only active,
	// unexpired ones.
	List(ctx context.Context, opts ListPromotionsOptions) ([]*model.PromotionView, error)

	// DeactivateForVenue is idempotent.
	DeactivateForVenue(ctx context.Context, venueID int64) error

	// Toggle flips the active flag, or sets it when desired is non-nil.
	Toggle(ctx context.Context, promoID string, desired *bool) (*model.PromotionView, error)

	// SweepExpired deactivates expired promotions and returns how many it
	// touched. Store failures are logged and reported as 0.
	SweepExpired(ctx context.Context) int

	Claim(ctx context.Context, promoID, userID string) (*model.ClaimTicket, error)

	// VerifyAndRedeem only returns an error for store failures; unknown,
	// used and expired codes are reported in the result.
	VerifyAndRedeem(ctx context.Context, code string) (*model.RedemptionResult, error)

	// ResetClaims deletes every claim and zeroes all counters.
	ResetClaims(ctx context.Context) (int64, error)

	// PurgeAll deletes all promotions and claims. Requires an admin session.
	PurgeAll(ctx context.Context, isAdmin bool) error

	Summary(ctx context.Context) ([]*model.PromotionSummary, error)
}

// CreatePromotionInput carries the fields of a new promotion. Origin is the
// scheme://host used for the QR deep link; empty falls back to the
// configured public origin.
type CreatePromotionInput struct {
	VenueID     int64
	Title       string
	Description string
	Image       string
	Origin      string
}

type ListPromotionsOptions struct {
	IncludeInactive bool
	UserID          string
}

// PromotionSettings tunes the engine.
type PromotionSettings struct {
	PublicOrigin    string
	CodeLength      int
	MaxCodeAttempts int
	Retry           RetryPolicy
}

// PromotionOption overrides a collaborator of the engine, mostly for tests.
type PromotionOption func(*promotionUC)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PromotionOption {
	return func(uc *promotionUC) { uc.now = now }
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen func(n int) (string, error)) PromotionOption {
	return func(uc *promotionUC) { uc.genCode = gen }
}

// WithIDGenerator replaces ULID generation.
func WithIDGenerator(gen func() string) PromotionOption {
	return func(uc *promotionUC) { uc.genID = gen }
}

var _ PromotionUseCase = (*promotionUC)(nil)

type promotionUC struct {
	venues repository.VenueRepository
	promos repository.PromotionRepository
	claims repository.ClaimRepository
	tx     repository.TransactionManager
	qr     adapter.QRRenderer
	cfg    PromotionSettings
	log    *zerolog.Logger

	now     func() time.Time
	genCode func(n int) (string, error)
	genID   func() string
}

// NewPromotionUseCase wires the engine to its stores and QR renderer.
func NewPromotionUseCase(
	venues repository.VenueRepository,
	promos repository.PromotionRepository,
	claims repository.ClaimRepository,
	tx repository.TransactionManager,
	qr adapter.QRRenderer,
	cfg PromotionSettings,
	logger *zerolog.Logger,
	opts ...PromotionOption,
) PromotionUseCase {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = defaultCodeLength
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = 5
	}
	cfg.PublicOrigin = strings.TrimRight(cfg.PublicOrigin, "/")
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "promotion_uc").Logger()
	uc := &promotionUC{
		venues:  venues,
		promos:  promos,
		claims:  claims,
		tx:      tx,
		qr:      qr,
		cfg:     cfg,
		log:     &l,
		now:     time.Now,
		genCode: generateShortCode,
		genID:   newULID,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *promotionUC) CreateOrReplace(ctx context.Context, in CreatePromotionInput) (*model.PromotionView, error) {
	title := strings.TrimSpace(in.Title)
	if in.VenueID <= 0 || title == "" {
		return nil, fmt.Errorf("%w: venueId and title are required", domain.ErrValidation)
	}
	if _, err := uc.venues.FindByID(ctx, repository.NoTX, in.VenueID); err != nil {
		return nil, err
	}
	origin := strings.TrimRight(strings.TrimSpace(in.Origin), "/")
	if origin == "" {
		origin = uc.cfg.PublicOrigin
	}

	var created *model.Promotion
	err := uc.withFreshCode(ctx, "create_promotion", func(ctx context.Context, code string) error {
		qr, err := uc.qr.Render(origin + "/promo/" + code)
		if err != nil {
			return fmt.Errorf("render promotion qr: %w", err)
		}
		p, err := model.NewPromotion(uc.genID(), in.VenueID, title, in.Description, in.Image, code, qr, uc.now())
		if err != nil {
			return err
		}
		err = uc.cfg.Retry.Do(ctx, "create_promotion", func(ctx context.Context) error {
			return uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
				if _, err := uc.promos.DeactivateByVenue(ctx, tx, in.VenueID); err != nil {
					return err
				}
				return uc.promos.Insert(ctx, tx, p)
			})
		})
		if err == nil {
			created = p
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPromotionCreated()
	uc.log.Info().Str("promo_id", created.ID).Int64("venue_id", created.VenueID).Msg("promotion created")
	uc.checkSingleActive(ctx, created.VenueID)

	return uc.promos.FindViewByID(ctx, repository.NoTX, created.ID)
}

func (uc *promotionUC) List(ctx context.Context, opts ListPromotionsOptions) ([]*model.PromotionView, error) {
	now := uc.now()
	filter := repository.PromotionFilter{
		IncludeInactive: opts.IncludeInactive,
		CreatedSince:    model.ExpiryCutoff(now),
	}
	var views []*model.PromotionView
	err := uc.cfg.Retry.Do(ctx, "list_promotions", func(ctx context.Context) error {
		var err error
		views, err = uc.promos.List(ctx, repository.NoTX, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Results may come from a cache that is up to a TTL old.
	if !opts.IncludeInactive {
		live := views[:0]
		for _, v := range views {
			if v.Active && !model.IsExpired(&v.Promotion, now) {
				live = append(live, v)
			}
		}
		views = live
	}

	userID := strings.TrimSpace(opts.UserID)
	if userID == "" || len(views) == 0 {
		return views, nil
	}
	claimed, err := uc.claims.ClaimedPromotionIDs(ctx, repository.NoTX, userID, model.StartOfDayUTC(now))
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		remaining := 1
		if claimed[v.ID] {
			remaining = 0
		}
		v.ClaimsRemaining = &remaining
	}
	return views, nil
}

func (uc *promotionUC) DeactivateForVenue(ctx context.Context, venueID int64) error {
	if venueID <= 0 {
		return fmt.Errorf("%w: invalid venue id", domain.ErrValidation)
	}
	return uc.cfg.Retry.Do(ctx, "deactivate_venue", func(ctx context.Context) error {
		n, err := uc.promos.DeactivateByVenue(ctx, repository.NoTX, venueID)
		if err == nil && n > 0 {
			uc.log.Info().Int64("venue_id", venueID).Int64("count", n).Msg("venue promotions deactivated")
		}
		return err
	})
}

func (uc *promotionUC) Toggle(ctx context.Context, promoID string, desired *bool) (*model.PromotionView, error) {
	promoID = strings.TrimSpace(promoID)
	if promoID == "" {
		return nil, fmt.Errorf("%w: promotion id is required", domain.ErrValidation)
	}
	var venueID int64
	err := uc.cfg.Retry.Do(ctx, "toggle_promotion", func(ctx context.Context) error {
		return uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			p, err := uc.promos.FindByIDForUpdate(ctx, tx, promoID)
			if err != nil {
				return err
			}
			venueID = p.VenueID
			next := !p.Active
			if desired != nil {
				next = *desired
			}
			if next == p.Active {
				return nil
			}
			if next {
				if _, err := uc.promos.DeactivateByVenue(ctx, tx, p.VenueID); err != nil {
					return err
				}
			}
			_, err = uc.promos.SetActive(ctx, tx, p.ID, next)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	uc.checkSingleActive(ctx, venueID)
	return uc.promos.FindViewByID(ctx, repository.NoTX, promoID)
}

func (uc *promotionUC) SweepExpired(ctx context.Context) int {
	cutoff := model.ExpiryCutoff(uc.now())
	var n int64
	err := uc.cfg.Retry.Do(ctx, "sweep_expired", func(ctx context.Context) error {
		var err error
		n, err = uc.promos.DeactivateCreatedBefore(ctx, repository.NoTX, cutoff)
		return err
	})
	if err != nil {
		uc.log.Error().Err(err).Msg("expiry sweep failed")
		return 0
	}
	metrics.AddPromotionsSwept(n)
	if n > 0 {
		uc.log.Info().Int64("count", n).Time("cutoff", cutoff).Msg("expired promotions deactivated")
	}
	return int(n)
}

func (uc *promotionUC) Claim(ctx context.Context, promoID, userID string) (*model.ClaimTicket, error) {
	promoID = strings.TrimSpace(promoID)
	userID = strings.TrimSpace(userID)
	if promoID == "" || userID == "" {
		return nil, fmt.Errorf("%w: promoId and userId are required", domain.ErrValidation)
	}

	var ticket *model.ClaimTicket
	err := uc.withFreshCode(ctx, "claim", func(ctx context.Context, code string) error {
		qr, err := uc.qr.Render(code)
		if err != nil {
			return fmt.Errorf("render claim qr: %w", err)
		}
		return uc.cfg.Retry.Do(ctx, "claim", func(ctx context.Context) error {
			return uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
				now := uc.now()
				p, err := uc.promos.FindByIDForUpdate(ctx, tx, promoID)
				if err != nil {
					return err
				}
				if !p.Claimable(now) {
					return domain.ErrGone
				}
				last, err := uc.claims.LatestByUser(ctx, tx, p.ID, userID)
				switch {
				case err == nil && !last.ClaimedAt.Before(model.StartOfDayUTC(now)):
					return domain.ErrRateLimited
				case err != nil && !errors.Is(err, domain.ErrNotFound):
					return err
				}
				c, err := model.NewClaim(uc.genID(), p, userID, code, qr, now)
				if err != nil {
					return err
				}
				if err := uc.claims.Insert(ctx, tx, c); err != nil {
					return err
				}
				if err := uc.promos.IncrementClaims(ctx, tx, p.ID); err != nil {
					return err
				}
				ticket = &model.ClaimTicket{Code: c.Code, QR: c.QR}
				return nil
			})
		})
	})
	metrics.IncClaim(claimResult(err))
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("promo_id", promoID).Str("user_id", userID).Msg("promotion claimed")
	return ticket, nil
}

func (uc *promotionUC) VerifyAndRedeem(ctx context.Context, code string) (*model.RedemptionResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		metrics.IncRedemption("invalid")
		return &model.RedemptionResult{Reason: model.ReasonInvalidCode}, nil
	}

	var res *model.RedemptionResult
	err := uc.cfg.Retry.Do(ctx, "redeem", func(ctx context.Context) error {
		now := uc.now()
		cw, err := uc.claims.FindByCode(ctx, repository.NoTX, code)
		if errors.Is(err, domain.ErrNotFound) {
			res = &model.RedemptionResult{Reason: model.ReasonInvalidCode}
			return nil
		}
		if err != nil {
			return err
		}
		if cw.Claim.Redeemed {
			res = &model.RedemptionResult{Reason: model.ReasonCodeUsed}
			return nil
		}
		if !cw.Promotion.Claimable(now) {
			res = &model.RedemptionResult{Reason: model.ReasonExpired}
			return nil
		}
		n, err := uc.claims.MarkRedeemed(ctx, repository.NoTX, code, now)
		if err != nil {
			return err
		}
		switch {
		case n == 0:
			res = &model.RedemptionResult{Reason: model.ReasonCodeUsed}
			return nil
		case n > 1:
			metrics.IncInvariantViolation("multi_row_redeem")
			uc.log.Error().Str("invariant_violation", "multi_row_redeem").
				Str("code", code).Int64("rows", n).Msg("redeem affected more than one claim")
		}
		res = &model.RedemptionResult{
			Valid:  true,
			Reason: cw.Promotion.Title + " at " + cw.VenueName,
			Promotion: &model.RedemptionSummary{
				Title:       cw.Promotion.Title,
				Description: cw.Promotion.Description,
				VenueName:   cw.VenueName,
			},
		}
		return nil
	})
	if err != nil {
		metrics.IncRedemption("error")
		return nil, err
	}
	metrics.IncRedemption(redemptionResult(res))
	return res, nil
}

func (uc *promotionUC) ResetClaims(ctx context.Context) (int64, error) {
	var updated int64
	err := uc.cfg.Retry.Do(ctx, "reset_claims", func(ctx context.Context) error {
		return uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := uc.claims.DeleteAll(ctx, tx); err != nil {
				return err
			}
			var err error
			updated, err = uc.promos.ResetClaimCounters(ctx, tx)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	uc.log.Warn().Int64("promotions_updated", updated).Msg("all claims reset")
	return updated, nil
}

func (uc *promotionUC) PurgeAll(ctx context.Context, isAdmin bool) error {
	if !isAdmin {
		return domain.ErrForbidden
	}
	var deleted int64
	err := uc.cfg.Retry.Do(ctx, "purge_all", func(ctx context.Context) error {
		return uc.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := uc.claims.DeleteAll(ctx, tx); err != nil {
				return err
			}
			var err error
			deleted, err = uc.promos.DeleteAll(ctx, tx)
			return err
		})
	})
	if err != nil {
		return err
	}
	uc.log.Warn().Int64("promotions_deleted", deleted).Msg("all promotions and claims purged")
	return nil
}

func (uc *promotionUC) Summary(ctx context.Context) ([]*model.PromotionSummary, error) {
	var rows []*model.PromotionSummary
	err := uc.cfg.Retry.Do(ctx, "summary", func(ctx context.Context) error {
		var err error
		rows, err = uc.promos.Summary(ctx, repository.NoTX)
		return err
	})
	return rows, err
}

// withFreshCode calls fn with newly generated codes until fn stops
// reporting a code collision or the attempts run out.
func (uc *promotionUC) withFreshCode(ctx context.Context, op string, fn func(ctx context.Context, code string) error) error {
	var err error
	for attempt := 0; attempt < uc.cfg.MaxCodeAttempts; attempt++ {
		code, genErr := uc.genCode(uc.cfg.CodeLength)
		if genErr != nil {
			return fmt.Errorf("generate code: %w", genErr)
		}
		err = fn(ctx, code)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		uc.log.Warn().Str("op", op).Int("attempt", attempt+1).Msg("code collision, regenerating")
	}
	return err
}

func (uc *promotionUC) checkSingleActive(ctx context.Context, venueID int64) {
	n, err := uc.promos.CountActiveByVenue(ctx, repository.NoTX, venueID)
	if err != nil {
		uc.log.Warn().Err(err).Int64("venue_id", venueID).Msg("active promotion check failed")
		return
	}
	if n > 1 {
		metrics.IncInvariantViolation("multiple_active")
		uc.log.Error().Str("invariant_violation", "multiple_active").
			Int64("venue_id", venueID).Int("active", n).Msg("venue has more than one active promotion")
	}
}

func claimResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrGone):
		return "gone"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func redemptionResult(r *model.RedemptionResult) string {
	switch {
	case r.Valid:
		return "redeemed"
	case r.Reason == model.ReasonCodeUsed:
		return "used"
	case r.Reason == model.ReasonExpired:
		return "expired"
	default:
		return "invalid"
	}
}
