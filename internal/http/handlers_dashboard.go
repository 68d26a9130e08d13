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

// Report sizing limits. The series emits one point per day and the spend
// history one row per month, so unbounded parameters would let a single
// unauthenticated GET allocate without limit.
const (
	maxSeriesDays   = 3660 // ten years of daily points
	maxReportMonths = 120
)

// handleNetWorth renders the net-worth series over [from, to]. The window
// defaults to the trailing 90 days.
func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	to := core.Today()
	from := to.AddDays(-90)
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			BadRequestError("Invalid from date").Write(w)
			return
		}
		from = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			BadRequestError("Invalid to date").Write(w)
			return
		}
		to = d
	}
	if from.DaysUntil(to) > maxSeriesDays {
		BadRequestError("Date range too large").Write(w)
		return
	}

	series, err := s.reports.NetWorthSeries(r.Context(), from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Net worth series error",
			"error", err, "from", from.String(), "to", to.String())
		errorToResponse(err).Write(w)
		return
	}

	var current core.Money
	if len(series) > 0 {
		current = series[len(series)-1].Total
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<section class="net-worth"><div class="total">%s</div><ol class="series">`,
		formatDollars(current.Cents))
	for _, p := range series {
		fmt.Fprintf(&b, `<li data-date="%s" data-cents="%d">%s</li>`,
			p.Date.String(), p.Total.Cents, formatDollars(p.Total.Cents))
	}
	b.WriteString(`</ol></section>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

// handleEmergencyFund renders coverage of the fund against the target months
// of essential spending. The configured target can be overridden per request.
func (s *Server) handleEmergencyFund(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	months := s.emergencyFundMonths
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxReportMonths {
			BadRequestError("Invalid months parameter").Write(w)
			return
		}
		months = n
	}

	cov, err := s.reports.EmergencyFund(r.Context(), months)
	if err != nil {
		slog.ErrorContext(r.Context(), "Emergency fund error", "error", err, "months", months)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	b.WriteString(`<section class="emergency-fund">`)
	fmt.Fprintf(&b, `<div class="row"><span>Fund balance</span><span>%s</span></div>`, formatDollars(cov.Balance.Cents))
	fmt.Fprintf(&b, `<div class="row"><span>Monthly essential spend</span><span>%s</span></div>`, formatDollars(cov.MonthlySpend.Cents))
	fmt.Fprintf(&b, `<div class="row"><span>Target (%d months)</span><span>%s</span></div>`, months, formatDollars(cov.Target.Cents))
	fmt.Fprintf(&b, `<div class="row"><span>Still to save</span><span>%s</span></div>`, formatDollars(cov.Additional.Cents))
	fmt.Fprintf(&b, `<div class="row"><span>Months covered</span><span>%s</span></div>`, cov.Months.StringFixed(2))
	b.WriteString(`</section>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

// handleEssentialSpend renders essential spending bucketed into the trailing
// months, oldest first.
func (s *Server) handleEssentialSpend(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	monthsBack := 12
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxReportMonths {
			BadRequestError("Invalid months parameter").Write(w)
			return
		}
		monthsBack = n
	}

	spend, err := s.reports.EssentialSpendByMonth(r.Context(), monthsBack)
	if err != nil {
		slog.ErrorContext(r.Context(), "Essential spend error", "error", err, "months_back", monthsBack)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	b.WriteString(`<ol class="essential-spend">`)
	for _, m := range spend {
		fmt.Fprintf(&b, `<li data-month="%s"><span>%s</span><span>%s</span></li>`,
			m.Month, m.Month, formatDollars(m.Spend.Cents))
	}
	b.WriteString(`</ol>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}

// handleAllocation renders the portfolio breakdown by asset category and
// by sector.
func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	report, err := s.reports.Allocation(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Allocation report error", "error", err)
		errorToResponse(err).Write(w)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<section class="allocation"><div class="total">%s</div>`, formatDollars(report.Total.Cents))

	b.WriteString(`<ul class="by-category">`)
	for _, slice := range report.ByCategory {
		fmt.Fprintf(&b, `<li><span>%s</span><span>%s</span><span>%s%%</span></li>`,
			template.HTMLEscapeString(slice.Label),
			formatDollars(slice.Value.Cents),
			slice.Percent.StringFixed(2))
	}
	b.WriteString(`</ul>`)

	b.WriteString(`<ul class="by-sector">`)
	for _, slice := range report.BySector {
		fmt.Fprintf(&b, `<li><span>%s</span><span>%s</span><span>%s%%</span></li>`,
			template.HTMLEscapeString(slice.Label),
			formatDollars(slice.Value.Cents),
			slice.Percent.StringFixed(2))
	}
	b.WriteString(`</ul></section>`)

	NewHTMXResponse().BodyHTML(b.String()).Write(w)
}
