// Package importer defines the port for external transaction sources.
// Adapters (Google Sheets today) produce rows; the worker publishes them to
// the import queue and the consumer writes them to the ledger.
package importer

import "context"

// Row is one external transaction in wire form. Values stay as strings
// until the import service validates and parses them.
type Row struct {
	ImportID  string
	Account   string
	Date      string // YYYY-MM-DD
	Amount    string // signed decimal
	Payee     string
	Category  string
	Statement string
}

// Source fetches up to limit rows from an external system. ImportIDs must
// be stable across calls so replays stay idempotent.
type Source interface {
	Fetch(ctx context.Context, limit int) ([]Row, error)
}
