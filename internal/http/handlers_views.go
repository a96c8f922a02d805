package http

import (
	"net/http"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/services"
)

type summaryDTO struct {
	Book     core.Book   `json:"book"`
	Today    core.Date   `json:"today"`
	Balance  core.Money  `json:"balance"`
	Income   core.Money  `json:"income"`
	Expenses core.Money  `json:"expenses"`
	Budgets  []budgetDTO `json:"budgets"`
	Bills    []billDTO   `json:"bills"`
	Goals    []goalDTO   `json:"goals"`
}

type billDTO struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	DueDate core.Date  `json:"due_date"`
	Amount  core.Money `json:"amount"`
}

// handleSummary returns the headline figures of a book together with its
// budgets, bills and goals.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	snap, err := svc.View(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}

	out := summaryDTO{
		Book:    svc.Book(),
		Today:   svc.Today(),
		Balance: core.Sum(snap.Transactions),
		Budgets: make([]budgetDTO, 0, len(snap.Budgets)),
		Bills:   make([]billDTO, 0, len(snap.Bills)),
		Goals:   make([]goalDTO, 0, len(snap.Goals)),
	}
	for _, t := range snap.Transactions {
		switch {
		case t.IsIncome():
			out.Income = out.Income.Add(t.Amount)
		case t.IsExpense():
			out.Expenses = out.Expenses.Add(t.Amount.Abs())
		}
	}
	for _, b := range snap.Budgets {
		out.Budgets = append(out.Budgets, budgetDTO{Category: b.Category, Limit: b.Limit})
	}
	for _, b := range snap.Bills {
		out.Bills = append(out.Bills, billDTO{ID: b.ID, Name: b.Name, DueDate: b.DueDate, Amount: b.Amount})
	}
	for _, g := range snap.Goals {
		out.Goals = append(out.Goals, goalDTO{ID: g.ID, Name: g.Name, Target: g.Target, Current: g.Current})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	points, err := svc.Series(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	out := make([]monthDTO, 0, len(points))
	for _, p := range points {
		out = append(out, monthDTO{Month: p.Label, Income: p.Income, Expense: p.Expense})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	insights, err := svc.Insights(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	out := make([]insightDTO, 0, len(insights))
	for _, in := range insights {
		out = append(out, insightDTO{ID: in.ID, Kind: in.Kind, Message: in.Message})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request, svc *services.BookService) {
	points, err := svc.Forecast(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	out := make([]forecastDTO, 0, len(points))
	for _, p := range points {
		out = append(out, forecastDTO{Date: p.Date, Balance: p.Balance})
	}
	writeJSON(w, http.StatusOK, out)
}
