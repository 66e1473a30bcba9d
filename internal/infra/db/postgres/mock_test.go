//go:build !integration

package postgres

import (
	"context"
	"time"

	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/repository"
	red "clicks-promotions/internal/infra/redis"

	"github.com/jackc/pgx/v4"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerPromotionRepo records write calls; unset funcs return zero values.
type mockInnerPromotionRepo struct {
	ListFunc  func(ctx context.Context, tx repository.Tx, f repository.PromotionFilter) ([]*model.PromotionView, error)
	SweepFunc func(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error)
	writes    []string
}

var _ repository.PromotionRepository = (*mockInnerPromotionRepo)(nil)

func (m *mockInnerPromotionRepo) List(ctx context.Context, tx repository.Tx, f repository.PromotionFilter) ([]*model.PromotionView, error) {
	return m.ListFunc(ctx, tx, f)
}
func (m *mockInnerPromotionRepo) Insert(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	m.writes = append(m.writes, "insert")
	return nil
}
func (m *mockInnerPromotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	return &model.Promotion{ID: id}, nil
}
func (m *mockInnerPromotionRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	return &model.Promotion{ID: id}, nil
}
func (m *mockInnerPromotionRepo) FindViewByID(ctx context.Context, tx repository.Tx, id string) (*model.PromotionView, error) {
	return &model.PromotionView{Promotion: model.Promotion{ID: id}}, nil
}
func (m *mockInnerPromotionRepo) CountActiveByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int, error) {
	return 1, nil
}
func (m *mockInnerPromotionRepo) DeactivateByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int64, error) {
	m.writes = append(m.writes, "deactivate_venue")
	return 1, nil
}
func (m *mockInnerPromotionRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) (int64, error) {
	m.writes = append(m.writes, "set_active")
	return 1, nil
}
func (m *mockInnerPromotionRepo) DeactivateCreatedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	m.writes = append(m.writes, "sweep")
	if m.SweepFunc != nil {
		return m.SweepFunc(ctx, tx, cutoff)
	}
	return 0, nil
}
func (m *mockInnerPromotionRepo) IncrementClaims(ctx context.Context, tx repository.Tx, id string) error {
	m.writes = append(m.writes, "increment")
	return nil
}
func (m *mockInnerPromotionRepo) ResetClaimCounters(ctx context.Context, tx repository.Tx) (int64, error) {
	m.writes = append(m.writes, "reset")
	return 0, nil
}
func (m *mockInnerPromotionRepo) DeleteAll(ctx context.Context, tx repository.Tx) (int64, error) {
	m.writes = append(m.writes, "delete_all")
	return 0, nil
}
func (m *mockInnerPromotionRepo) Summary(ctx context.Context, tx repository.Tx) ([]*model.PromotionSummary, error) {
	return nil, nil
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs succeed.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error                      { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) Close() error { return nil }

// mockTxManager runs fn directly and returns its error.
type mockTxManager struct{ calls int }

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	return fn(ctx, repository.NoTX)
}
