package sheets

import (
	"fmt"
	"regexp"
	"strings"

	"tpcollect/pkg/store"
)

var spreadsheetURL = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// SpreadsheetID extracts the spreadsheet key from a sharing URL. A bare key
// is returned unchanged.
func SpreadsheetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if m := spreadsheetURL.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if ref != "" && !strings.ContainsAny(ref, "/:?# ") {
		return ref, nil
	}
	return "", fmt.Errorf("%q is not a spreadsheet url", ref)
}

// quoteSheet quotes a sheet title for use in an A1 range.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case string, float64, nil, bool:
		return store.FormatCell(x)
	default:
		return fmt.Sprint(x)
	}
}

func toTable(values [][]interface{}) store.Table {
	raw := make([][]string, len(values))
	for i, row := range values {
		raw[i] = make([]string, len(row))
		for j, v := range row {
			raw[i][j] = cellString(v)
		}
	}
	return store.NewTable(raw)
}
