package api

import (
	"net/http"
	"strconv"

	"clicks-promotions/internal/domain"
	"clicks-promotions/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func venueIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation
	}
	return id, nil
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.venues.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if venues == nil {
		venues = []*model.Venue{}
	}
	render.JSON(w, r, venues)
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.venues.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, v)
}

func (s *Server) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	var req createVenueRequest
	if err := bind(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.venues.Create(r.Context(), req.Name, req.Zone, req.Category, req.Image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}

func (s *Server) handleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateVenueRequest
	if err := bind(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.venues.Update(r.Context(), id, req.Name, req.Zone, req.Category, req.Image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, v)
}

func (s *Server) handleDeleteVenue(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.venues.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"deleted": true})
}
