package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"nummus/internal/core"
)

// handleTransactions lists transactions on GET (with optional filters) and
// creates a split transaction on POST.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderTransactionList(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderTransactionList(w http.ResponseWriter, r *http.Request) {
	filter, resp := parseTransactionFilter(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	txns, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list error", "error", err)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	b.WriteString(`<table class="transactions"><tbody>`)
	for _, t := range txns {
		linked := ""
		if t.Linked {
			linked = ` class="linked"`
		}
		fmt.Fprintf(&b, `<tr data-id="%d" data-version="%d"%s><td>%s</td><td>%s</td><td class="amount">%s</td><td>%d splits</td></tr>`,
			t.ID, t.Version, linked,
			t.Date.String(),
			template.HTMLEscapeString(t.Statement),
			formatDollars(t.Amount.Cents),
			len(t.Splits))
	}
	b.WriteString(`</tbody></table>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

// parseTransactionFilter builds a filter from query parameters. Bad values
// fail fast instead of silently matching everything.
func parseTransactionFilter(r *http.Request) (core.TransactionFilter, *HTMXResponseBuilder) {
	var filter core.TransactionFilter
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("account")); v != "" {
		id, err := parseID(v)
		if err != nil {
			return filter, BadRequestError("Invalid account filter")
		}
		filter.AccountID = id
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		id, err := parseID(v)
		if err != nil {
			return filter, BadRequestError("Invalid category filter")
		}
		filter.CategoryID = id
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return filter, BadRequestError("Invalid from date")
		}
		filter.Start = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return filter, BadRequestError("Invalid to date")
		}
		filter.End = d
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	return filter, nil
}

// parseTransactionForm reads the shared transaction fields plus the split
// arrays. Used by both create and update.
func parseTransactionForm(r *http.Request) (core.Transaction, *HTMXResponseBuilder) {
	var txn core.Transaction

	accountID, err := parseID(r.Form.Get("account"))
	if err != nil {
		return txn, BadRequestError("Missing account")
	}
	date, err := core.ParseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		return txn, UnprocessableEntityError("Date must be formatted YYYY-MM-DD")
	}
	amount, err := core.ParseMoney(r.Form.Get("amount"))
	if err != nil {
		return txn, UnprocessableEntityError("Invalid amount")
	}
	splits, resp := parseSplits(r)
	if resp != nil {
		return txn, resp
	}

	txn.AccountID = accountID
	txn.Date = date
	txn.Amount = amount
	txn.Statement = sanitizeInput(r.Form.Get("statement"))
	txn.Splits = splits
	return txn, nil
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	txn, resp := parseTransactionForm(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	id, err := s.transactions.Create(r.Context(), txn)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create transaction",
			"error", err, "account_id", txn.AccountID, "amount_cents", txn.Amount.Cents)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", id,
		"account_id", txn.AccountID,
		"amount_cents", txn.Amount.Cents,
		"splits", len(txn.Splits))

	NewHTMXResponse().
		TriggerTransactionChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Transaction recorded: " + formatDollars(txn.Amount.Cents)).
		Write(w)
}

// handleUpdateTransaction replaces a transaction and its splits. The form
// must carry the version the client last saw; a stale version is rejected.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, err := parseID(r.Form.Get("id"))
	if err != nil {
		BadRequestError("Missing transaction id").Write(w)
		return
	}
	version, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("version")), 10, 64)
	if err != nil || version <= 0 {
		BadRequestError("Missing transaction version").Write(w)
		return
	}

	txn, resp := parseTransactionForm(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	txn.ID = id
	txn.Version = version

	if err := s.transactions.Update(r.Context(), txn); err != nil {
		slog.ErrorContext(r.Context(), "Failed to update transaction",
			"error", err, "transaction_id", id, "version", version)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Transaction updated",
		"transaction_id", id, "version", version, "splits", len(txn.Splits))

	NewHTMXResponse().
		TriggerTransactionChanged().
		TriggerSuccessNotification("Transaction updated").
		Write(w)
}

// handleDeleteTransaction removes a transaction. Linked (imported)
// transactions refuse deletion with a 403.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, err := parseID(r.Form.Get("id"))
	if err != nil {
		BadRequestError("Missing transaction id").Write(w)
		return
	}

	if err := s.transactions.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "error", err, "transaction_id", id)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Transaction deleted", "transaction_id", id)

	NewHTMXResponse().
		TriggerTransactionChanged().
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}
