package google

import (
	"fmt"
	"strings"

	"nummus/internal/importer"
)

// parseRows converts a Sheets values matrix into import rows. The ImportID
// is derived from the sheet key and absolute row number, so the same cell
// always maps to the same ID. Rows missing an account or date are skipped.
func parseRows(values [][]interface{}, sheetKey string, startRow int) []importer.Row {
	rows := make([]importer.Row, 0, len(values))
	for i, raw := range values {
		cells := toStrings(raw)
		row := importer.Row{
			ImportID:  fmt.Sprintf("%s:%d", sheetKey, startRow+i),
			Account:   safeGet(cells, 0),
			Date:      safeGet(cells, 1),
			Amount:    safeGet(cells, 2),
			Payee:     safeGet(cells, 3),
			Category:  safeGet(cells, 4),
			Statement: safeGet(cells, 5),
		}
		if row.Account == "" || row.Date == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func toStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
