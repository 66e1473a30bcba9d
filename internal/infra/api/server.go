package api

import (
	"context"
	"net/http"
	"time"

	"clicks-promotions/internal/config"
	"clicks-promotions/internal/infra/web"
	"clicks-promotions/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const claimRoute = "promotions_claim"

// Server exposes the promotion engine and venue directory over HTTP.
type Server struct {
	promos  usecase.PromotionUseCase
	venues  usecase.VenueUseCase
	auth    *web.AuthManager
	limiter Limiter
	httpCfg config.HTTPConfig
	rateCfg config.RateLimitConfig
	health  func(ctx context.Context) error
	dev     bool
	log     *zerolog.Logger
}

type ServerOption func(*Server)

// WithLimiter enables the per-IP claim limit.
func WithLimiter(l Limiter, cfg config.RateLimitConfig) ServerOption {
	return func(s *Server) {
		s.limiter = l
		s.rateCfg = cfg
	}
}

// WithHealthCheck makes /health report 503 when check fails.
func WithHealthCheck(check func(ctx context.Context) error) ServerOption {
	return func(s *Server) { s.health = check }
}

// WithDevMode logs redemption codes unredacted.
func WithDevMode(dev bool) ServerOption {
	return func(s *Server) { s.dev = dev }
}

func NewServer(
	promos usecase.PromotionUseCase,
	venues usecase.VenueUseCase,
	auth *web.AuthManager,
	httpCfg config.HTTPConfig,
	logger *zerolog.Logger,
	opts ...ServerOption,
) *Server {
	apiLog := logger.With().Str("component", "api").Logger()
	s := &Server{
		promos:  promos,
		venues:  venues,
		auth:    auth,
		httpCfg: httpCfg,
		log:     &apiLog,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes builds the chi router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	if s.httpCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(
		TraceID(s.log),
		RequestLog(s.log),
		Recover(s.log),
	)
	if s.httpCfg.RequestTimeout > 0 {
		r.Use(Timeout(s.httpCfg.RequestTimeout))
	}
	r.Use(s.auth.Session)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", s.handleListPromotions)
			r.With(RateLimit(s.limiter, claimRoute, s.rateCfg.ClaimsPerWindow, s.rateCfg.Window, s.log)).
				Post("/claim", s.handleClaim)
			r.Get("/verify/{code}", s.handleVerify)
			// Purge checks the session itself.
			r.Delete("/all-reset", s.handlePurgeAll)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", s.handleCreatePromotion)
				r.Get("/summary", s.handleSummary)
				r.Delete("/by-venue/{venueID}", s.handleDeactivateVenue)
				r.Put("/toggle/{promoID}", s.handleToggle)
				r.Delete("/reset", s.handleResetClaims)
			})
		})

		r.Route("/venues", func(r chi.Router) {
			r.Get("/", s.handleListVenues)
			r.Get("/{id}", s.handleGetVenue)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", s.handleCreateVenue)
				r.Put("/{id}", s.handleUpdateVenue)
				r.Delete("/{id}", s.handleDeleteVenue)
			})
		})
	})
	return r
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !web.IsAdmin(r.Context()) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, errorBody{Error: "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNAVAILABLE"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
