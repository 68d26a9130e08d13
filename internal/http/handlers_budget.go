package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"nummus/internal/core"
)

// handleBudget renders the month's budget table on GET and upserts an
// assignment on POST. The month defaults to the current one.
func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderBudgetMonth(w, r)
	case http.MethodPost:
		s.assignBudget(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderBudgetMonth(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = core.Today().MonthKey()
	}

	rows, err := s.budget.Month(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget month error", "error", err, "month", month)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<table class="budget" data-month="%s"><tbody>`, template.HTMLEscapeString(month))
	for _, row := range rows {
		remaining := row.Assigned.Add(row.Activity)
		fmt.Fprintf(&b, `<tr data-category="%d"><td>%s</td><td class="assigned">%s</td><td class="activity">%s</td><td class="remaining">%s</td></tr>`,
			row.Category.ID,
			template.HTMLEscapeString(row.Category.Name),
			formatDollars(row.Assigned.Cents),
			formatDollars(row.Activity.Cents),
			formatDollars(remaining.Cents))
	}
	b.WriteString(`</tbody></table>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

func (s *Server) assignBudget(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	categoryID, err := parseID(r.Form.Get("category"))
	if err != nil {
		BadRequestError("Missing category id").Write(w)
		return
	}
	assigned, err := core.ParseMoney(r.Form.Get("assigned"))
	if err != nil {
		UnprocessableEntityError("Invalid assigned amount").Write(w)
		return
	}

	assignment := core.BudgetAssignment{
		CategoryID: categoryID,
		Month:      strings.TrimSpace(r.Form.Get("month")),
		Assigned:   assigned,
	}

	if err := s.budget.Assign(r.Context(), assignment); err != nil {
		slog.ErrorContext(r.Context(), "Failed to assign budget",
			"error", err, "category_id", categoryID, "month", assignment.Month)
		errorToResponse(err).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Budget assigned",
		"category_id", categoryID, "month", assignment.Month, "assigned_cents", assigned.Cents)

	NewHTMXResponse().
		TriggerBudgetChanged(assignment.Month).
		TriggerSuccessNotification("Budget updated").
		Write(w)
}
