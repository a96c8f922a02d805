package http

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/services"
)

var csvHeader = []string{"ID", "Description", "Date", "Amount", "Status", "Category"}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	page, size, err := ParsePage(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	p, err := svc.Transactions(r.Context(), f, page-1, size)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageDTO(p))
}

// handleExportCSV writes every transaction matching the filter.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	txs, err := svc.Filtered(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-transactions.csv"`, svc.Book()))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	for _, t := range txs {
		_ = cw.Write([]string{t.ID, t.Description, t.Date.String(), t.Amount.String(), string(t.Status), t.Category})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.FieldBook, svc.Book(), log.FieldError, err)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = svc.Today()
	}
	t, err := svc.AddExpense(r.Context(), services.ExpenseInput{
		Description: sanitizeInput(req.Description),
		Date:        req.Date,
		Amount:      req.Amount,
		Category:    sanitizeInput(req.Category),
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense recorded",
		log.FieldBook, svc.Book(), log.FieldTxID, t.ID, log.FieldCategory, t.Category, log.FieldAmountCents, t.Amount.Cents)
	writeJSON(w, http.StatusCreated, toTransactionDTO(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	t := core.Transaction{
		ID:          r.PathValue("id"),
		Description: sanitizeInput(req.Description),
		Date:        req.Date,
		Amount:      req.Amount,
		Status:      req.Status,
		Category:    sanitizeInput(req.Category),
	}
	if t.Status == "" {
		t.Status = core.Completed
	}
	stored, err := svc.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.changed(r, svc, log.OpUpdate)
	writeJSON(w, http.StatusOK, toTransactionDTO(stored))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	if err := svc.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	s.changed(r, svc, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShareTransaction(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	text, err := svc.ShareText(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeText(w, http.StatusOK, text)
}

// changed logs a successful mutation with the request logger.
func (s *Server) changed(r *http.Request, svc *services.BookService, op string) {
	sl := log.NewStructuredLogger(log.FromContext(r.Context()))
	sl.LogBookChanged(r.Context(), string(svc.Book()), op, 0)
}
