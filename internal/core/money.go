// Package core holds the ledger domain model: accounts, transactions with
// splits, the category catalog, assets with valuations, and the validation
// rules shared by every entry point (HTTP forms and the import worker).
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a signed amount in cents. Deposits are positive, purchases
// negative. Cents keep ledger arithmetic exact.
type Money struct {
	Cents int64
}

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// ParseMoney converts a signed decimal string to cents. Both dot and comma
// decimal separators are accepted; the third decimal digit rounds half-up.
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("-12,34") -> -1234
//	ParseMoney("12.346") -> 1235
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// iv*100 must leave room for up to 99 fractional cents.
	if iv > (math.MaxInt64-99)/100 {
		return Money{}, ErrInvalidAmount
	}

	// First two fractional digits are cents; the third rounds half-up.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

// Dollars returns the dollar value as a float64 for display purposes only.
// Calculations must stay in cents.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}
