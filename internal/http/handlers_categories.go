package http

import (
	"net/http"

	"finboard/internal/log"
	"finboard/internal/services"
)

// handleListCategories returns every category in definition order with its
// current spend. Income is always present.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	aggs, err := svc.Categories(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	out := make([]categoryDTO, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, categoryDTO{Label: a.Label, Color: a.Color, Value: a.Value})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := svc.AddCategory(r.Context(), sanitizeInput(req.Label), sanitizeInput(req.Color))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	s.changed(r, svc, log.OpCreate)
	writeJSON(w, http.StatusCreated, categoryDTO{Label: c.Label, Color: c.Color})
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	label := sanitizeInput(req.Label)
	if err := svc.RenameCategory(r.Context(), r.PathValue("label"), label); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.changed(r, svc, log.OpUpdate)
	writeJSON(w, http.StatusOK, map[string]string{"label": label})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	if err := svc.DeleteCategory(r.Context(), r.PathValue("label")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	s.changed(r, svc, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
