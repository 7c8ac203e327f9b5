package http

import (
	"net/http"

	"fintrack/internal/core"
)

type nameCreateRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListNames(dim core.Dimension) func(http.ResponseWriter, *http.Request, core.User) {
	return func(w http.ResponseWriter, r *http.Request, user core.User) {
		records, err := s.registry.List(r.Context(), user.ID, dim)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if records == nil {
			records = []core.NameRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) handleCreateName(dim core.Dimension) func(http.ResponseWriter, *http.Request, core.User) {
	return func(w http.ResponseWriter, r *http.Request, user core.User) {
		var req nameCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		record, err := s.registry.Create(r.Context(), user.ID, dim, req.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleDeleteName(dim core.Dimension) func(http.ResponseWriter, *http.Request, core.User) {
	return func(w http.ResponseWriter, r *http.Request, user core.User) {
		if err := s.registry.Delete(r.Context(), user.ID, dim, r.PathValue("id")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Deleted successfully"})
	}
}
