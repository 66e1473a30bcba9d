package model

import (
	"strings"

	"clicks-promotions/internal/domain"
)

// Venue is a bar or club listed in the directory. The promotion core only
// reads it, to validate references and enrich promotion views.
type Venue struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Zone     string `json:"zone"`
	Category string `json:"category,omitempty"`
	Image    string `json:"image,omitempty"`
}

// NewVenue trims and validates the user supplied fields.
func NewVenue(name, zone, category, image string) (*Venue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrValidation
	}
	return &Venue{
		Name:     name,
		Zone:     strings.TrimSpace(zone),
		Category: strings.TrimSpace(category),
		Image:    strings.TrimSpace(image),
	}, nil
}
