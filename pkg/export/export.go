// Package export encodes a loaded table for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tpcollect/pkg/store"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// bom lets spreadsheet applications detect UTF-8 and show accents.
var bom = []byte{0xEF, 0xBB, 0xBF}

// CSV writes the header and every row, prefixed with a byte-order mark.
func CSV(w io.Writer, t store.Table) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// XLSX writes the table to a single-sheet workbook. Cells that parse as
// numbers are stored as numbers.
func XLSX(w io.Writer, t store.Table, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = sheetName(sheet)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

// sheetName makes label usable as a worksheet name: no reserved characters,
// at most 31 characters.
func sheetName(label string) string {
	name := []rune(sheetNameReplacer.Replace(label))
	if len(name) == 0 {
		return "Sheet1"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return string(name)
}

func cellValue(v string) interface{} {
	if x, err := strconv.ParseFloat(v, 64); err == nil && !strings.ContainsAny(v, "eEnN") {
		return x
	}
	return v
}

// FileName is export_<label>_<dd_mm_yyyy>.<ext>, label lower-cased with
// spaces replaced by underscores.
func FileName(label, ext string, now time.Time) string {
	name := strings.ToLower(strings.ReplaceAll(label, " ", "_"))
	return fmt.Sprintf("export_%s_%s.%s", name, now.Format("02_01_2006"), ext)
}

func ContentType(format string) string {
	if format == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}
