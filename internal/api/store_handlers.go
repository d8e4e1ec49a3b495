package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/ghostnote/internal/db"
	"github.com/banshee-data/ghostnote/internal/httputil"
	"github.com/banshee-data/ghostnote/internal/monitoring"
)

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "lag map store not configured")
		return false
	}
	return true
}

// handleLagMaps lists stored maps (GET) or computes and stores one (POST).
func (s *Server) handleLagMaps(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.listLagMaps(w, r)
	case http.MethodPost:
		s.createLagMap(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listLagMaps(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	recs, err := s.store.List(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if recs == nil {
		recs = []*db.LagMapRecord{}
	}
	httputil.WriteJSONOK(w, recs)
}

// createLagMap returns the cached map for identical parameters (200) or
// computes and stores a new one (201).
func (s *Server) createLagMap(w http.ResponseWriter, r *http.Request) {
	p, err := s.paramsFromRequest(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	rec, err := s.store.FindByParams(p)
	switch {
	case err == nil:
		monitoring.Logf("lagmap cache hit %s", rec.ID)
		httputil.WriteJSONOK(w, newLagMapResponse(rec.ID, rec.Params, rec.Map))
		return
	case !errors.Is(err, db.ErrNotFound):
		httputil.InternalServerError(w, err.Error())
		return
	}

	rec = db.NewLagMapRecord(p, s.compute(p))
	if err := s.store.Insert(rec); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to store lag map: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newLagMapResponse(rec.ID, rec.Params, rec.Map))
}

// handleLagMapByID serves GET and DELETE on /api/lagmaps/{id}.
func (s *Server) handleLagMapByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/lagmaps/")
	if id == "" || strings.Contains(id, "/") {
		httputil.NotFound(w, "lag map not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.store.Get(id)
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, newLagMapResponse(rec.ID, rec.Params, rec.Map))
	case http.MethodDelete:
		err := s.store.Delete(id)
		if errors.Is(err, db.ErrNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.NoContent(w)
	default:
		httputil.MethodNotAllowed(w)
	}
}
