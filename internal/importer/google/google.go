// Package google reads transaction rows from a Google Sheets spreadsheet
// using service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"nummus/internal/importer"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ importer.Source = (*Client)(nil)

// NewClient creates a Sheets source. Exactly one of credentialsFile or
// credentialsJSON must be set.
func NewClient(ctx context.Context, spreadsheetID, sheetName, credentialsFile, credentialsJSON string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	creds := []byte(credentialsJSON)
	if len(creds) == 0 {
		if credentialsFile == "" {
			return nil, errors.New("missing service account credentials")
		}
		var err error
		creds, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets source ready",
		"spreadsheet_id", spreadsheetID, "sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// Fetch reads up to limit data rows. Row one is a header; data starts at
// row two. Columns are Account, Date, Amount, Payee, Category, Statement.
func (c *Client) Fetch(ctx context.Context, limit int) ([]importer.Row, error) {
	rng := fmt.Sprintf("%s!A2:F%d", c.sheetName, limit+1)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}

	rows := parseRows(resp.Values, c.spreadsheetID+":"+c.sheetName, 2)
	slog.InfoContext(ctx, "Fetched spreadsheet rows",
		"sheet", c.sheetName, "rows", len(rows))
	return rows, nil
}
