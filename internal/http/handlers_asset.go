package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"nummus/internal/core"
)

// handleAssets lists assets on GET and creates one on POST. The create form
// may carry parallel sector/weight arrays for the sector breakdown.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderAssetList(w, r)
	case http.MethodPost:
		s.createAsset(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderAssetList(w http.ResponseWriter, r *http.Request) {
	assets, err := s.assets.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Asset list error", "error", err)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	b.WriteString(`<ul class="assets">`)
	for _, a := range assets {
		ticker := ""
		if a.Ticker != "" {
			ticker = ` <span class="ticker">` + template.HTMLEscapeString(a.Ticker) + `</span>`
		}
		fmt.Fprintf(&b, `<li data-id="%d" data-category="%s">%s%s</li>`,
			a.ID, a.Category, template.HTMLEscapeString(a.Name), ticker)
	}
	b.WriteString(`</ul>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	asset := core.Asset{
		Name:     sanitizeInput(r.Form.Get("name")),
		Category: core.AssetCategory(sanitizeInput(r.Form.Get("category"))),
		Ticker:   sanitizeInput(r.Form.Get("ticker")),
	}

	sectors := r.Form["sector"]
	weights := r.Form["weight"]
	if len(weights) != len(sectors) {
		BadRequestError("Sector rows are incomplete").Write(w)
		return
	}
	for i, name := range sectors {
		name = sanitizeInput(name)
		if name == "" {
			continue
		}
		weight, err := decimal.NewFromString(strings.TrimSpace(weights[i]))
		if err != nil {
			UnprocessableEntityError("Invalid sector weight").Write(w)
			return
		}
		asset.Sectors = append(asset.Sectors, core.SectorWeight{Sector: name, Weight: weight})
	}

	id, err := s.assets.Create(r.Context(), asset)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create asset", "error", err, "asset_name", asset.Name)
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Asset created",
		"asset_id", id, "asset_name", asset.Name, "asset_category", asset.Category)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification("Asset created: " + asset.Name).
		Write(w)
}

// handleRecordValuation upserts a point value for (asset, date).
func (s *Server) handleRecordValuation(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	assetID, err := parseID(r.Form.Get("asset"))
	if err != nil {
		BadRequestError("Missing asset id").Write(w)
		return
	}
	date, err := core.ParseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		UnprocessableEntityError("Date must be formatted YYYY-MM-DD").Write(w)
		return
	}
	value, err := core.ParseMoney(r.Form.Get("value"))
	if err != nil {
		UnprocessableEntityError("Invalid value").Write(w)
		return
	}

	valuation := core.AssetValuation{AssetID: assetID, Date: date, Value: value}
	if err := s.assets.RecordValuation(r.Context(), valuation); err != nil {
		slog.ErrorContext(r.Context(), "Failed to record valuation",
			"error", err, "asset_id", assetID, "date", date.String())
		errorToResponse(err).Write(w)
		return
	}

	s.reports.Invalidate()
	slog.InfoContext(r.Context(), "Valuation recorded",
		"asset_id", assetID, "date", date.String(), "value_cents", value.Cents)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification("Valuation recorded").
		Write(w)
}
