//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/domain/ports/adapter"
	"clicks-promotions/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// In-memory store
// =============================

// memStore backs all mock repositories. Transactions are serialized and
// rolled back by restoring a snapshot, which is close enough to Postgres
// row locks for the engine's access patterns.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	venues    map[int64]model.Venue
	nextVenue int64
	promos    map[string]model.Promotion
	claims    map[string]model.Claim

	// injected errors, consumed one per call of the named operation
	failures map[string][]error
}

func newMemStore() *memStore {
	return &memStore{
		venues:   make(map[int64]model.Venue),
		promos:   make(map[string]model.Promotion),
		claims:   make(map[string]model.Claim),
		failures: make(map[string][]error),
	}
}

// FailNext queues errs to be returned by the next calls of op.
func (s *memStore) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// must hold s.mu
func (s *memStore) popFailure(op string) error {
	q := s.failures[op]
	if len(q) == 0 {
		return nil
	}
	s.failures[op] = q[1:]
	return q[0]
}

type memSnapshot struct {
	venues    map[int64]model.Venue
	nextVenue int64
	promos    map[string]model.Promotion
	claims    map[string]model.Claim
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		venues:    make(map[int64]model.Venue, len(s.venues)),
		nextVenue: s.nextVenue,
		promos:    make(map[string]model.Promotion, len(s.promos)),
		claims:    make(map[string]model.Claim, len(s.claims)),
	}
	for k, v := range s.venues {
		snap.venues[k] = v
	}
	for k, v := range s.promos {
		snap.promos[k] = v
	}
	for k, v := range s.claims {
		snap.claims[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues, s.nextVenue, s.promos, s.claims = snap.venues, snap.nextVenue, snap.promos, snap.claims
}

// AddVenue inserts a venue directly and returns its id.
func (s *memStore) AddVenue(name, zone string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextVenue++
	s.venues[s.nextVenue] = model.Venue{ID: s.nextVenue, Name: name, Zone: zone}
	return s.nextVenue
}

func (s *memStore) Promotion(id string) (model.Promotion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[id]
	return p, ok
}

func (s *memStore) ActiveCount(venueID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.promos {
		if p.VenueID == venueID && p.Active {
			n++
		}
	}
	return n
}

func (s *memStore) ClaimCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

// ---- TransactionManager ----

type MockTxManager struct {
	store      *memStore
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager(store *memStore) *MockTxManager {
	return &MockTxManager{store: store}
}

type memTx struct{}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()
	snap := m.store.snapshot()
	if err := fn(ctx, memTx{}); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// ---- VenueRepository ----

type MockVenueRepo struct{ s *memStore }

var _ repository.VenueRepository = (*MockVenueRepo)(nil)

func (r *MockVenueRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.popFailure("venue.find"); err != nil {
		return nil, err
	}
	v, ok := r.s.venues[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (r *MockVenueRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Venue, 0, len(r.s.venues))
	for _, v := range r.s.venues {
		cp := v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MockVenueRepo) Create(ctx context.Context, tx repository.Tx, v *model.Venue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextVenue++
	v.ID = r.s.nextVenue
	r.s.venues[v.ID] = *v
	return nil
}

func (r *MockVenueRepo) Update(ctx context.Context, tx repository.Tx, v *model.Venue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.venues[v.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.venues[v.ID] = *v
	return nil
}

func (r *MockVenueRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.venues[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.venues, id)
	for pid, p := range r.s.promos {
		if p.VenueID == id {
			delete(r.s.promos, pid)
		}
	}
	for cid, c := range r.s.claims {
		if c.VenueID == id {
			delete(r.s.claims, cid)
		}
	}
	return nil
}

// ---- PromotionRepository ----

type MockPromotionRepo struct{ s *memStore }

var _ repository.PromotionRepository = (*MockPromotionRepo)(nil)

func (r *MockPromotionRepo) Insert(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.popFailure("promo.insert"); err != nil {
		return err
	}
	if _, ok := r.s.venues[p.VenueID]; !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.s.promos {
		if other.Code == p.Code {
			return fmt.Errorf("promotion code %s: %w", p.Code, domain.ErrConflict)
		}
		if p.Active && other.Active && other.VenueID == p.VenueID {
			return fmt.Errorf("venue %d already has an active promotion: %w", p.VenueID, domain.ErrTransient)
		}
	}
	r.s.promos[p.ID] = *p
	return nil
}

func (r *MockPromotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.promos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *MockPromotionRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	return r.FindByID(ctx, tx, id)
}

// must hold s.mu
func (r *MockPromotionRepo) view(p model.Promotion) *model.PromotionView {
	v := r.s.venues[p.VenueID]
	return &model.PromotionView{Promotion: p, VenueName: v.Name, VenueZone: v.Zone, VenueImage: v.Image}
}

func (r *MockPromotionRepo) FindViewByID(ctx context.Context, tx repository.Tx, id string) (*model.PromotionView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.promos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.view(p), nil
}

func (r *MockPromotionRepo) List(ctx context.Context, tx repository.Tx, f repository.PromotionFilter) ([]*model.PromotionView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.popFailure("promo.list"); err != nil {
		return nil, err
	}
	var out []*model.PromotionView
	for _, p := range r.s.promos {
		if !f.IncludeInactive && (!p.Active || p.CreatedAt.Before(f.CreatedSince)) {
			continue
		}
		out = append(out, r.view(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MockPromotionRepo) CountActiveByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.promos {
		if p.VenueID == venueID && p.Active {
			n++
		}
	}
	return n, nil
}

func (r *MockPromotionRepo) DeactivateByVenue(ctx context.Context, tx repository.Tx, venueID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.popFailure("promo.deactivate_venue"); err != nil {
		return 0, err
	}
	var n int64
	for id, p := range r.s.promos {
		if p.VenueID == venueID && p.Active {
			p.Active = false
			r.s.promos[id] = p
			n++
		}
	}
	return n, nil
}

func (r *MockPromotionRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.promos[id]
	if !ok {
		return 0, nil
	}
	if active {
		for _, other := range r.s.promos {
			if other.ID != id && other.VenueID == p.VenueID && other.Active {
				return 0, domain.ErrTransient
			}
		}
	}
	p.Active = active
	r.s.promos[id] = p
	return 1, nil
}

func (r *MockPromotionRepo) DeactivateCreatedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.popFailure("promo.sweep"); err != nil {
		return 0, err
	}
	var n int64
	for id, p := range r.s.promos {
		if p.Active && p.CreatedAt.Before(cutoff) {
			p.Active = false
			r.s.promos[id] = p
			n++
		}
	}
	return n, nil
}

func (r *MockPromotionRepo) IncrementClaims(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.promos[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Claims++
	r.s.promos[id] = p
	return nil
}

func (r *MockPromotionRepo) ResetClaimCounters(ctx context.Context, tx repository.Tx) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.promos {
		p.Claims = 0
		r.s.promos[id] = p
	}
	return int64(len(r.s.promos)), nil
}

func (r *MockPromotionRepo) DeleteAll(ctx context.Context, tx repository.Tx) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.promos))
	r.s.promos = make(map[string]model.Promotion)
	return n, nil
}

func (r *MockPromotionRepo) Summary(ctx context.Context, tx repository.Tx) ([]*model.PromotionSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ps := make([]model.Promotion, 0, len(r.s.promos))
	for _, p := range r.s.promos {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Claims != ps[j].Claims {
			return ps[i].Claims > ps[j].Claims
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
	out := make([]*model.PromotionSummary, 0, len(ps))
	for _, p := range ps {
		out = append(out, &model.PromotionSummary{Venue: r.s.venues[p.VenueID].Name, Promotion: p.Title, Claims: p.Claims})
	}
	return out, nil
}

// ---- ClaimRepository ----

type MockClaimRepo struct{ s *memStore }

var _ repository.ClaimRepository = (*MockClaimRepo)(nil)

func (r *MockClaimRepo) Insert(ctx context.Context, tx repository.Tx, c *model.Claim) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.popFailure("claim.insert"); err != nil {
		return err
	}
	for _, other := range r.s.claims {
		if other.Code == c.Code {
			return fmt.Errorf("claim code %s: %w", c.Code, domain.ErrConflict)
		}
		if other.PromoID == c.PromoID && other.UserID == c.UserID && other.ClaimDay.Equal(c.ClaimDay) {
			return domain.ErrRateLimited
		}
	}
	r.s.claims[c.ID] = *c
	return nil
}

func (r *MockClaimRepo) LatestByUser(ctx context.Context, tx repository.Tx, promoID, userID string) (*model.Claim, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *model.Claim
	for _, c := range r.s.claims {
		if c.PromoID != promoID || c.UserID != userID {
			continue
		}
		if latest == nil || c.ClaimedAt.After(latest.ClaimedAt) {
			cp := c
			latest = &cp
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (r *MockClaimRepo) ClaimedPromotionIDs(ctx context.Context, tx repository.Tx, userID string, since time.Time) (map[string]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]bool)
	for _, c := range r.s.claims {
		if c.UserID == userID && !c.ClaimedAt.Before(since) {
			out[c.PromoID] = true
		}
	}
	return out, nil
}

func (r *MockClaimRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ClaimWithPromotion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.claims {
		if c.Code != code {
			continue
		}
		p, ok := r.s.promos[c.PromoID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		return &model.ClaimWithPromotion{Claim: c, Promotion: p, VenueName: r.s.venues[p.VenueID].Name}, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockClaimRepo) MarkRedeemed(ctx context.Context, tx repository.Tx, code string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.claims {
		if c.Code == code && !c.Redeemed {
			c.Redeem(at)
			r.s.claims[id] = c
			return 1, nil
		}
	}
	return 0, nil
}

func (r *MockClaimRepo) DeleteAll(ctx context.Context, tx repository.Tx) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.claims))
	r.s.claims = make(map[string]model.Claim)
	return n, nil
}

// =============================
// Adapters
// =============================

// MockQR encodes the payload verbatim so tests can assert on it.
type MockQR struct{}

var _ adapter.QRRenderer = MockQR{}

func (MockQR) Render(payload string) (string, error) {
	return "data:text/plain," + payload, nil
}

// =============================
// Clock and generators
// =============================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// seqCodes hands out the given codes in order, then unique fallbacks.
type seqCodes struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *seqCodes) Next(n int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.codes) > 0 {
		c := g.codes[0]
		g.codes = g.codes[1:]
		return c, nil
	}
	return fmt.Sprintf("Z%07d", g.calls), nil
}

func (g *seqCodes) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%06d", g.n)
}
