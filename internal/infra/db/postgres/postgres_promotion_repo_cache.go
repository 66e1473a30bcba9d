package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/repository"
	"clicks-promotions/internal/infra/metrics"
	red "clicks-promotions/internal/infra/redis"
)

const activePromotionsKey = "promotions:active"

var _ repository.PromotionRepository = (*promotionRepoCacheDecorator)(nil)

// promotionRepoCacheDecorator caches the default (active) promotion list for
// a short TTL. Every write drops the key. Callers re-check expiry on cached
// rows, so the TTL only bounds how late a new promotion appears.
type promotionRepoCacheDecorator struct {
	inner repository.PromotionRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewPromotionRepoCacheDecorator(inner repository.PromotionRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.PromotionRepository {
	return &promotionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func (d *promotionRepoCacheDecorator) invalidate(ctx context.Context) {
	if err := d.cache.Del(ctx, activePromotionsKey); err != nil {
		d.log.Warn().Err(err).Msg("active promotion cache invalidation failed")
	}
}

func (d *promotionRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, f repository.PromotionFilter) ([]*model.PromotionView, error) {
	// inside a transaction the caller wants its own view, not the cache
	if f.IncludeInactive || tx != nil {
		return d.inner.List(ctx, tx, f)
	}

	val, err := d.cache.Get(ctx, activePromotionsKey)
	if err == nil {
		var views []*model.PromotionView
		if json.Unmarshal([]byte(val), &views) == nil {
			metrics.IncCacheRequest("active_promotions", "hit")
			return views, nil
		}
	} else if !errors.Is(err, red.Nil) {
		metrics.IncCacheRequest("active_promotions", "error")
		d.log.Warn().Err(err).Msg("active promotion cache read failed")
	}

	metrics.IncCacheRequest("active_promotions", "miss")
	views, err := d.inner.List(ctx, tx, f)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(views); err == nil {
		if err := d.cache.Set(ctx, activePromotionsKey, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("active promotion cache write failed")
		}
	}
	return views, nil
}

// ---- writes: invalidate, then delegate ----

func (d *promotionRepoCacheDecorator) Insert(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	d.invalidate(ctx)
	return d.inner.Insert(ctx, tx, p)
}

func (d *promotionRepoCacheDecorator) DeactivateByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int64, error) {
	d.invalidate(ctx)
	return d.inner.DeactivateByVenue(ctx, tx, venueID)
}

func (d *promotionRepoCacheDecorator) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) (int64, error) {
	d.invalidate(ctx)
	return d.inner.SetActive(ctx, tx, id, active)
}

func (d *promotionRepoCacheDecorator) DeactivateCreatedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	n, err := d.inner.DeactivateCreatedBefore(ctx, tx, cutoff)
	if n > 0 {
		d.invalidate(ctx)
	}
	return n, err
}

func (d *promotionRepoCacheDecorator) IncrementClaims(ctx context.Context, tx repository.Tx, id string) error {
	d.invalidate(ctx)
	return d.inner.IncrementClaims(ctx, tx, id)
}

func (d *promotionRepoCacheDecorator) ResetClaimCounters(ctx context.Context, tx repository.Tx) (int64, error) {
	d.invalidate(ctx)
	return d.inner.ResetClaimCounters(ctx, tx)
}

func (d *promotionRepoCacheDecorator) DeleteAll(ctx context.Context, tx repository.Tx) (int64, error) {
	d.invalidate(ctx)
	return d.inner.DeleteAll(ctx, tx)
}

// ---- reads that always go to the store ----

func (d *promotionRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	return d.inner.FindByID(ctx, tx, id)
}

func (d *promotionRepoCacheDecorator) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	return d.inner.FindByIDForUpdate(ctx, tx, id)
}

func (d *promotionRepoCacheDecorator) FindViewByID(ctx context.Context, tx repository.Tx, id string) (*model.PromotionView, error) {
	return d.inner.FindViewByID(ctx, tx, id)
}

func (d *promotionRepoCacheDecorator) CountActiveByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int, error) {
	return d.inner.CountActiveByVenue(ctx, tx, venueID)
}

func (d *promotionRepoCacheDecorator) Summary(ctx context.Context, tx repository.Tx) ([]*model.PromotionSummary, error) {
	return d.inner.Summary(ctx, tx)
}

// invalidatingTxManager drops the active promotion cache after every
// committed transaction, so a reader that refilled the cache from
// pre-commit data does not keep it for a full TTL.
type invalidatingTxManager struct {
	inner repository.TransactionManager
	cache red.RedisClient
	log   *zerolog.Logger
}

func NewInvalidatingTxManager(inner repository.TransactionManager, cache red.RedisClient, logger *zerolog.Logger) repository.TransactionManager {
	return &invalidatingTxManager{inner: inner, cache: cache, log: logger}
}

func (m *invalidatingTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := m.inner.WithTx(ctx, txOpt, fn); err != nil {
		return err
	}
	if err := m.cache.Del(ctx, activePromotionsKey); err != nil {
		m.log.Warn().Err(err).Msg("post-commit cache invalidation failed")
	}
	return nil
}
