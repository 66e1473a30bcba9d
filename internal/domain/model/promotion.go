package model

import (
	"strings"
	"time"

	"clicks-promotions/internal/domain"
)

// PromotionLifetime is how long a promotion stays claimable after creation.
const PromotionLifetime = 7 * 24 * time.Hour

// Promotion is a time-boxed offer tied to one venue.
type Promotion struct {
	ID          string    `json:"id"`
	VenueID     int64     `json:"venueId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Code        string    `json:"code"`
	QR          string    `json:"qr"`
	Claims      int64     `json:"claims"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PromotionView is a promotion joined with the venue fields callers display.
type PromotionView struct {
	Promotion
	VenueName  string `json:"venueName"`
	VenueZone  string `json:"venueZone"`
	VenueImage string `json:"venueImage,omitempty"`

	// ClaimsRemaining is only set when the list was requested for a user.
	ClaimsRemaining *int `json:"claimsRemaining,omitempty"`
}

// PromotionSummary is one row of the admin analytics table.
type PromotionSummary struct {
	Venue     string `json:"venue"`
	Promotion string `json:"promotion"`
	Claims    int64  `json:"claims"`
}

// NewPromotion builds an active promotion with zero claims.
// id, code and qr are produced by the caller.
func NewPromotion(id string, venueID int64, title, description, image, code, qr string, now time.Time) (*Promotion, error) {
	title = strings.TrimSpace(title)
	if id == "" || venueID <= 0 || title == "" || code == "" {
		return nil, domain.ErrValidation
	}
	return &Promotion{
		ID:          id,
		VenueID:     venueID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Image:       strings.TrimSpace(image),
		Code:        code,
		QR:          qr,
		Active:      true,
		CreatedAt:   now.UTC(),
	}, nil
}

// IsExpired reports whether p is past its lifetime at now. It ignores the
// Active flag: an unswept promotion is still expired.
func IsExpired(p *Promotion, now time.Time) bool {
	return now.Sub(p.CreatedAt) > PromotionLifetime
}

// ExpiryCutoff returns the creation time before which promotions are expired.
func ExpiryCutoff(now time.Time) time.Time {
	return now.Add(-PromotionLifetime)
}

// Claimable reports whether p is active and not expired at now.
func (p *Promotion) Claimable(now time.Time) bool {
	return p.Active && !IsExpired(p, now)
}
