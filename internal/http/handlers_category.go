package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"nummus/internal/core"
)

// handleCategories lists the catalog on GET and creates a user category on
// POST. Locked catalog entries cannot be created through the form.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderCategoryList(w, r)
	case http.MethodPost:
		s.createCategory(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderCategoryList(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	b.WriteString(`<ul class="categories">`)
	for _, c := range cats {
		var marks []string
		if c.Locked {
			marks = append(marks, "locked")
		}
		if c.Essential {
			marks = append(marks, "essential")
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = ` <span class="marks">` + strings.Join(marks, ", ") + `</span>`
		}
		fmt.Fprintf(&b, `<li data-id="%d" data-group="%s">%s%s</li>`,
			c.ID, c.Group, template.HTMLEscapeString(c.Name), suffix)
	}
	b.WriteString(`</ul>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	cat := core.TransactionCategory{
		Name:      sanitizeInput(r.Form.Get("name")),
		Group:     core.CategoryGroup(sanitizeInput(r.Form.Get("group"))),
		Essential: r.Form.Get("essential") == "on" || r.Form.Get("essential") == "true",
	}

	id, err := s.categories.Create(r.Context(), cat)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create category", "error", err, "category_name", cat.Name)
		errorToResponse(err).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Category created",
		"category_id", id, "category_name", cat.Name, "essential", cat.Essential)

	NewHTMXResponse().
		TriggerCategoryChanged().
		TriggerFormReset().
		TriggerSuccessNotification("Category created: " + cat.Name).
		Write(w)
}

// handleRenameCategory renames a category and updates its essential flag.
// Locked categories refuse with a 403.
func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing category id").Write(w)
		return
	}
	name := sanitizeInput(r.Form.Get("name"))
	essential := r.Form.Get("essential") == "on" || r.Form.Get("essential") == "true"

	if err := s.categories.Rename(r.Context(), id, name, essential); err != nil {
		slog.ErrorContext(r.Context(), "Failed to rename category", "error", err, "category_id", id)
		errorToResponse(err).Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Category renamed", "category_id", id, "category_name", name)

	NewHTMXResponse().
		TriggerCategoryChanged().
		TriggerSuccessNotification("Category updated").
		Write(w)
}

// handleDeleteCategory removes a category; its splits move to Uncategorized.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Missing category id").Write(w)
		return
	}

	if err := s.categories.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete category", "error", err, "category_id", id)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Category deleted", "category_id", id)

	NewHTMXResponse().
		TriggerCategoryChanged().
		TriggerTransactionChanged().
		TriggerSuccessNotification("Category deleted").
		Write(w)
}
