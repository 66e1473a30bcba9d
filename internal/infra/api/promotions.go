package api

import (
	"net/http"
	"strconv"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"
	"clicks-promotions/internal/infra/logging"
	"clicks-promotions/internal/infra/web"
	"clicks-promotions/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (s *Server) handleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if err := bind(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.promos.CreateOrReplace(r.Context(), usecase.CreatePromotionInput{
		VenueID:     req.VenueID,
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Origin:      s.requestOrigin(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (s *Server) handleListPromotions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := usecase.ListPromotionsOptions{
		IncludeInactive: truthy(q.Get("includeInactive")),
		UserID:          q.Get("userId"),
	}
	if opts.IncludeInactive && !web.IsAdmin(r.Context()) {
		s.writeError(w, r, domain.ErrForbidden)
		return
	}
	views, err := s.promos.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if views == nil {
		views = []*model.PromotionView{}
	}
	render.JSON(w, r, views)
}

func (s *Server) handleDeactivateVenue(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil || venueID <= 0 {
		s.writeError(w, r, domain.ErrValidation)
		return
	}
	if err := s.promos.DeactivateForVenue(r.Context(), venueID); err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"deactivated": true})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := bindOptional(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.promos.Toggle(r.Context(), chi.URLParam(r, "promoID"), req.Active)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, struct {
		Updated bool                 `json:"updated"`
		Promo   *model.PromotionView `json:"promo"`
	}{true, view})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := bind(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	r = r.WithContext(logging.WithUserID(r.Context(), req.UserID))
	ticket, err := s.promos.Claim(r.Context(), req.PromoID, req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, struct {
		Claimed bool   `json:"claimed"`
		QR      string `json:"qr"`
		Code    string `json:"code"`
	}{true, ticket.QR, ticket.Code})
}

// handleVerify answers 200 for every outcome staff can act on.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	res, err := s.promos.VerifyAndRedeem(r.Context(), code)
	if err != nil {
		status := statusFor(err)
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("code", logging.Redact(code, s.dev)).Int("status", status).Msg("verify failed")
		render.Status(r, status)
		render.JSON(w, r, model.RedemptionResult{Reason: "Server error"})
		return
	}
	render.JSON(w, r, res)
}

func (s *Server) handleResetClaims(w http.ResponseWriter, r *http.Request) {
	n, err := s.promos.ResetClaims(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, struct {
		Reset             bool  `json:"reset"`
		PromotionsUpdated int64 `json:"promotionsUpdated"`
	}{true, n})
}

func (s *Server) handlePurgeAll(w http.ResponseWriter, r *http.Request) {
	if err := s.promos.PurgeAll(r.Context(), web.IsAdmin(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"ok": true})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.promos.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*model.PromotionSummary{}
	}
	render.JSON(w, r, rows)
}

// requestOrigin is scheme://host as the client addressed us. Forwarded
// headers are honoured only behind a trusted proxy.
func (s *Server) requestOrigin(r *http.Request) string {
	if r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if s.httpCfg.TrustProxy {
		if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
			scheme = p
		}
		if h := r.Header.Get("X-Forwarded-Host"); h != "" {
			return scheme + "://" + h
		}
	}
	return scheme + "://" + r.Host
}

func truthy(v string) bool { return v == "1" || v == "true" }
