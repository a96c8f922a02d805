package http

import (
	"finboard/internal/aggregate"
	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/services"
)

type transactionDTO struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Date        core.Date   `json:"date"`
	Amount      core.Money  `json:"amount"`
	Status      core.Status `json:"status"`
	Category    string      `json:"category"`
	Recurring   bool        `json:"recurring"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Description: t.Description,
		Date:        t.Date,
		Amount:      t.Amount,
		Status:      t.Status,
		Category:    t.Category,
		Recurring:   ledger.IsRecurring(t),
	}
}

type pageDTO struct {
	Items []transactionDTO `json:"items"`
	Page  int              `json:"page"` // 1 based
	Size  int              `json:"size"`
	Total int              `json:"total"`
	Pages int              `json:"pages"`
}

func toPageDTO(p aggregate.Page) pageDTO {
	items := make([]transactionDTO, 0, len(p.Items))
	for _, t := range p.Items {
		items = append(items, toTransactionDTO(t))
	}
	return pageDTO{Items: items, Page: p.Index + 1, Size: p.Size, Total: p.Total, Pages: p.Pages}
}

type categoryDTO struct {
	Label string     `json:"label"`
	Color string     `json:"color"`
	Value core.Money `json:"value"`
}

type monthDTO struct {
	Month   string     `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

type insightDTO struct {
	ID      string           `json:"id"`
	Kind    core.InsightKind `json:"kind"`
	Message string           `json:"message"`
}

type forecastDTO struct {
	Date    core.Date  `json:"date"`
	Balance core.Money `json:"balance"`
}

type ruleDTO struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Amount      core.Money     `json:"amount"`
	Type        core.TxType    `json:"type"`
	Category    string         `json:"category"`
	Frequency   core.Frequency `json:"frequency"`
	StartDate   core.Date      `json:"start_date"`
	EndDate     core.Date      `json:"end_date"`
	Next        core.Date      `json:"next"`
	Expired     bool           `json:"expired"`
	DueToday    bool           `json:"due_today"`
}

func toRuleDTO(r core.RecurringRule) ruleDTO {
	return ruleDTO{
		ID:          r.ID,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        r.Type,
		Category:    r.Category,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

func toRecurringDTO(st services.RecurringStatus) ruleDTO {
	dto := toRuleDTO(st.Rule)
	dto.Next = st.Next
	dto.Expired = st.Expired
	dto.DueToday = st.DueToday
	if st.Expired {
		dto.Next = core.Date{}
	}
	return dto
}

type budgetDTO struct {
	Category string     `json:"category"`
	Limit    core.Money `json:"limit"`
}

type goalDTO struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Target  core.Money `json:"target"`
	Current core.Money `json:"current"`
}

// Request bodies.

type expenseRequest struct {
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
}

type transactionRequest struct {
	Description string      `json:"description"`
	Date        core.Date   `json:"date"`
	Amount      core.Money  `json:"amount"` // signed
	Status      core.Status `json:"status"`
	Category    string      `json:"category"`
}

type ruleRequest struct {
	Description string         `json:"description"`
	Amount      core.Money     `json:"amount"`
	Type        core.TxType    `json:"type"`
	Category    string         `json:"category"`
	Frequency   core.Frequency `json:"frequency"`
	StartDate   core.Date      `json:"start_date"`
	EndDate     core.Date      `json:"end_date"`
}

func (r ruleRequest) rule(id string) core.RecurringRule {
	return core.RecurringRule{
		ID:          id,
		Description: sanitizeInput(r.Description),
		Amount:      r.Amount,
		Type:        r.Type,
		Category:    sanitizeInput(r.Category),
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

type categoryRequest struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type amountRequest struct {
	Amount core.Money `json:"amount"`
}

type budgetRequest struct {
	Limit core.Money `json:"limit"`
}
