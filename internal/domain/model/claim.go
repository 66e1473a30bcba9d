package model

import (
	"strings"
	"time"

	"clicks-promotions/internal/domain"
)

// Claim is one user's reservation of a promotion on a given UTC day.
type Claim struct {
	ID         string     `json:"id"`
	PromoID    string     `json:"promoId"`
	UserID     string     `json:"userId"`
	VenueID    int64      `json:"venueId"`
	ClaimedAt  time.Time  `json:"claimedAt"`
	ClaimDay   time.Time  `json:"claimDay"`
	Code       string     `json:"code"`
	QR         string     `json:"qr"`
	Redeemed   bool       `json:"redeemed"`
	RedeemedAt *time.Time `json:"redeemedAt,omitempty"`
}

// ClaimTicket is what the claiming user gets back, the only time the raw
// redemption code is exposed.
type ClaimTicket struct {
	Code string `json:"code"`
	QR   string `json:"qr"`
}

// ClaimWithPromotion is a claim looked up by code together with the parent
// promotion and venue name needed for redemption.
type ClaimWithPromotion struct {
	Claim     Claim
	Promotion Promotion
	VenueName string
}

// RedemptionSummary describes what staff should honour for a valid code.
type RedemptionSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VenueName   string `json:"venueName"`
}

// RedemptionResult is the outcome of a verify-and-redeem call.
type RedemptionResult struct {
	Valid     bool               `json:"valid"`
	Reason    string             `json:"reason,omitempty"`
	Promotion *RedemptionSummary `json:"promotion,omitempty"`
}

const (
	ReasonInvalidCode = "Invalid code"
	ReasonCodeUsed    = "Code already used"
	ReasonExpired     = "Promotion expired or inactive"
)

// StartOfDayUTC truncates t to midnight UTC.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewClaim builds an unredeemed claim for promo by userID at now.
func NewClaim(id string, promo *Promotion, userID, code, qr string, now time.Time) (*Claim, error) {
	userID = strings.TrimSpace(userID)
	if id == "" || promo == nil || userID == "" || code == "" {
		return nil, domain.ErrValidation
	}
	return &Claim{
		ID:        id,
		PromoID:   promo.ID,
		UserID:    userID,
		VenueID:   promo.VenueID,
		ClaimedAt: now.UTC(),
		ClaimDay:  StartOfDayUTC(now),
		Code:      code,
		QR:        qr,
	}, nil
}

// Redeem marks c redeemed at now. It returns false if c was already redeemed.
func (c *Claim) Redeem(now time.Time) bool {
	if c.Redeemed {
		return false
	}
	at := now.UTC()
	c.Redeemed = true
	c.RedeemedAt = &at
	return true
}
