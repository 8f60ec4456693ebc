package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"slydes/viewer/internal/domain"
	"slydes/viewer/internal/service"
	"slydes/viewer/internal/viewer"
)

type openRequest struct {
	Organization string                  `json:"organization"`
	Referrer     string                  `json:"referrer,omitempty"`
	State        *domain.NavigationState `json:"state,omitempty"`
}

type openResponse struct {
	ID   string      `json:"id"`
	View viewer.View `json:"view"`
}

type actionResponse struct {
	Outcome viewer.Outcome `json:"outcome"`
	View    viewer.View    `json:"view"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Viewers int    `json:"viewers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Viewers: s.viewers.Live()})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Organization == "" {
		writeError(w, http.StatusBadRequest, "organization is required")
		return
	}

	id, view, err := s.viewers.Open(r.Context(), service.OpenRequest{
		OrganizationSlug: req.Organization,
		Referrer:         req.Referrer,
		Initial:          req.State,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Location", "/viewers/"+id)
	writeJSON(w, http.StatusCreated, openResponse{ID: id, View: view})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := s.viewers.View(r.Context(), chi.URLParam(r, "viewerID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var action viewer.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid action")
		return
	}

	outcome, view, err := s.viewers.Dispatch(r.Context(), chi.URLParam(r, "viewerID"), action)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Outcome: outcome, View: view})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.viewers.Close(r.Context(), chi.URLParam(r, "viewerID")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.mediaTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.mediaTimeout)
		defer cancel()
	}

	src, ok, err := s.viewers.Media(ctx, chi.URLParam(r, "viewerID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrViewerNotFound),
		errors.Is(err, domain.ErrContentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, viewer.ErrUnknownAction),
		errors.Is(err, viewer.ErrItemNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidGraph):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Errorf("❌ Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("⚠️ Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
