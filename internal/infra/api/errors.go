package api

import (
	"errors"
	"net/http"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/infra/logging"

	"github.com/go-chi/render"
)

type errorBody struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrGone):
		return http.StatusGone
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor keeps store internals out of responses.
func messageFor(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusServiceUnavailable:
		return "temporarily unavailable, retry"
	case http.StatusBadRequest:
		return err.Error()
	}
	return rootKind(err).Error()
}

func rootKind(err error) error {
	for _, k := range []error{
		domain.ErrNotFound, domain.ErrConflict, domain.ErrRateLimited,
		domain.ErrGone, domain.ErrForbidden,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return err
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	render.Status(r, status)
	render.JSON(w, r, errorBody{Error: messageFor(status, err)})
}
