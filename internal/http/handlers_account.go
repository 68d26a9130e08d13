package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"nummus/internal/core"
)

// handleAccounts lists accounts on GET and creates one on POST.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderAccountList(w, r)
	case http.MethodPost:
		s.createAccount(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderAccountList(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Account list error", "error", err)
		errorToResponse(err).Write(w)
		return
	}

	balances, err := s.reports.Balances(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance report error", "error", err)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	b.WriteString(`<ul class="accounts">`)
	for _, a := range accounts {
		state := ""
		if a.Closed {
			state = ` <span class="closed">closed</span>`
		}
		fmt.Fprintf(&b, `<li data-id="%d"><span class="name">%s</span> <span class="institution">%s</span> <span class="balance">%s</span>%s</li>`,
			a.ID,
			template.HTMLEscapeString(a.Name),
			template.HTMLEscapeString(a.Institution),
			formatDollars(balances[a.ID].Cents),
			state)
	}
	b.WriteString(`</ul>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	account := core.Account{
		Name:        sanitizeInput(r.Form.Get("name")),
		Institution: sanitizeInput(r.Form.Get("institution")),
		Category:    core.AccountCategory(sanitizeInput(r.Form.Get("category"))),
	}

	id, err := s.accounts.Create(r.Context(), account)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create account",
			"error", err, "account_name", account.Name)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Account created",
		"account_id", id, "account_name", account.Name, "account_category", account.Category)

	NewHTMXResponse().
		TriggerAccountChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Account created: " + account.Name).
		Write(w)
}

// handleUpdateAccount renames an account or moves it to another institution.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing account id").Write(w)
		return
	}
	name := sanitizeInput(r.Form.Get("name"))
	institution := sanitizeInput(r.Form.Get("institution"))

	if err := s.accounts.Update(r.Context(), id, name, institution); err != nil {
		slog.ErrorContext(r.Context(), "Failed to update account", "error", err, "account_id", id)
		errorToResponse(err).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Account updated", "account_id", id, "account_name", name)

	NewHTMXResponse().
		TriggerAccountChanged().
		TriggerSuccessNotification("Account updated").
		Write(w)
}

// handleCloseAccount closes an account. Accounts with a non-zero balance
// refuse to close.
func (s *Server) handleCloseAccount(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing account id").Write(w)
		return
	}

	if err := s.accounts.Close(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to close account", "error", err, "account_id", id)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Account closed", "account_id", id)

	NewHTMXResponse().
		TriggerAccountChanged().
		TriggerSuccessNotification("Account closed").
		Write(w)
}

func (s *Server) handleReopenAccount(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing account id").Write(w)
		return
	}

	if err := s.accounts.Reopen(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to reopen account", "error", err, "account_id", id)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Account reopened", "account_id", id)

	NewHTMXResponse().
		TriggerAccountChanged().
		TriggerSuccessNotification("Account reopened").
		Write(w)
}
