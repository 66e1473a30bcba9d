package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"clicks-promotions/internal/domain"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct flattens validator errors into "field tag; field tag".
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(parts, "; "))
}

// bind decodes a JSON body into v and validates it. Decode failures are
// reported as validation errors.
func bind(r *http.Request, v render.Binder) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
	}
	return v.Bind(r)
}

// bindOptional is bind for endpoints whose body may be empty.
func bindOptional(r *http.Request, v render.Binder) error {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrValidation)
	}
	return v.Bind(r)
}

type createPromotionRequest struct {
	VenueID     int64  `json:"venueId" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image" validate:"omitempty,max=2048"`
}

func (p *createPromotionRequest) Bind(r *http.Request) error {
	p.Title = strings.TrimSpace(p.Title)
	return validateStruct(p)
}

type claimRequest struct {
	PromoID string `json:"promoId" validate:"required"`
	UserID  string `json:"userId" validate:"required,max=128"`
}

func (c *claimRequest) Bind(r *http.Request) error {
	c.PromoID = strings.TrimSpace(c.PromoID)
	c.UserID = strings.TrimSpace(c.UserID)
	return validateStruct(c)
}

type toggleRequest struct {
	Active *bool `json:"active"`
}

func (t *toggleRequest) Bind(r *http.Request) error { return nil }

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

func (l *loginRequest) Bind(r *http.Request) error { return validateStruct(l) }

type createVenueRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Zone     string `json:"zone" validate:"max=100"`
	Category string `json:"category" validate:"max=100"`
	Image    string `json:"image" validate:"omitempty,max=2048"`
}

func (v *createVenueRequest) Bind(r *http.Request) error {
	v.Name = strings.TrimSpace(v.Name)
	return validateStruct(v)
}

type updateVenueRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Zone     *string `json:"zone" validate:"omitempty,max=100"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Image    *string `json:"image" validate:"omitempty,max=2048"`
}

func (v *updateVenueRequest) Bind(r *http.Request) error { return validateStruct(v) }
