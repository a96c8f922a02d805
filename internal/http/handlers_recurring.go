package http

import (
	"net/http"

	"finboard/internal/log"
	"finboard/internal/services"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	list, err := svc.Recurring(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	out := make([]ruleDTO, 0, len(list))
	for _, st := range list {
		out = append(out, toRecurringDTO(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	rule, err := svc.AddRule(r.Context(), req.rule(""))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Recurring rule created",
		log.FieldBook, svc.Book(), log.FieldRuleID, rule.ID, log.FieldAmountCents, rule.Amount.Cents)
	writeJSON(w, http.StatusCreated, toRuleDTO(rule))
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	rule := req.rule(r.PathValue("id"))
	if err := svc.UpdateRule(r.Context(), rule); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.changed(r, svc, log.OpUpdate)
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	if err := svc.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	s.changed(r, svc, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	b, err := svc.SetBudget(r.Context(), r.PathValue("category"), req.Limit)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.changed(r, svc, log.OpUpdate)
	writeJSON(w, http.StatusOK, budgetDTO{Category: b.Category, Limit: b.Limit})
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	g, err := svc.ContributeToGoal(r.Context(), r.PathValue("id"), req.Amount)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.changed(r, svc, log.OpUpdate)
	writeJSON(w, http.StatusOK, goalDTO{ID: g.ID, Name: g.Name, Target: g.Target, Current: g.Current})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	posted, err := svc.Sync(r.Context())
	if err != nil {
		writeError(w, r, log.OpSync, err)
		return
	}
	sl := log.NewStructuredLogger(log.FromContext(r.Context()))
	sl.LogBookChanged(r.Context(), string(svc.Book()), log.OpSync, posted)
	writeJSON(w, http.StatusOK, map[string]any{"book": svc.Book(), "posted": posted})
}
