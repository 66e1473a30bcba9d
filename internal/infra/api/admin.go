package api

import (
	"net/http"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/infra/logging"
	"clicks-promotions/internal/infra/metrics"

	"github.com/go-chi/render"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	l := logging.With(r.Context(), s.log)

	var req loginRequest
	if err := bind(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.auth.CheckPassword(req.Password) {
		metrics.IncAdminLogin("unauthorized")
		l.Warn().Str("ip", clientIP(r)).Msg("admin login rejected")
		s.writeError(w, r, domain.ErrForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncAdminLogin("authorized")
	l.Info().Str("ip", clientIP(r)).Str("user_agent", r.UserAgent()).Msg("admin login")
	render.JSON(w, r, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	render.JSON(w, r, map[string]bool{"ok": true})
}
