// This file implements utilities for parsing and validating HTTP request
// data: method guards, form parsing, and split-array extraction.

package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"nummus/internal/core"
)

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on
// failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// parseSplits reads the parallel split_* form arrays into splits. Rows where
// both amount and category are blank are skipped so trailing empty form rows
// don't fail validation.
func parseSplits(r *http.Request) ([]core.TransactionSplit, *HTMXResponseBuilder) {
	amounts := r.Form["split_amount"]
	categories := r.Form["split_category"]
	payees := r.Form["split_payee"]
	memos := r.Form["split_memo"]
	tags := r.Form["split_tag"]
	assetIDs := r.Form["split_asset"]
	quantities := r.Form["split_quantity"]

	if len(categories) != len(amounts) {
		return nil, BadRequestError("Split rows are incomplete")
	}

	at := func(vals []string, i int) string {
		if i < len(vals) {
			return sanitizeInput(vals[i])
		}
		return ""
	}

	var splits []core.TransactionSplit
	for i := range amounts {
		amountStr := strings.TrimSpace(amounts[i])
		categoryStr := strings.TrimSpace(categories[i])
		if amountStr == "" && categoryStr == "" {
			continue
		}

		amount, err := core.ParseMoney(amountStr)
		if err != nil {
			return nil, UnprocessableEntityError("Invalid split amount")
		}
		categoryID, err := parseID(categoryStr)
		if err != nil {
			return nil, UnprocessableEntityError("Invalid split category")
		}

		split := core.TransactionSplit{
			CategoryID: categoryID,
			Amount:     amount,
			Payee:      at(payees, i),
			Memo:       at(memos, i),
			Tag:        at(tags, i),
		}

		if v := at(assetIDs, i); v != "" {
			assetID, err := parseID(v)
			if err != nil {
				return nil, UnprocessableEntityError("Invalid split asset")
			}
			split.AssetID = assetID
			if q := at(quantities, i); q != "" {
				qty, err := decimal.NewFromString(q)
				if err != nil {
					return nil, UnprocessableEntityError("Invalid asset quantity")
				}
				split.AssetQuantity = qty
			}
		}

		splits = append(splits, split)
	}
	return splits, nil
}
