package store

import (
	"context"
	"strconv"
)

// Column is one cell of a Record: the header it is meant for and its value.
type Column struct {
	Name  string
	Value interface{}
}

// Record is one measurement submission. Values are appended positionally,
// so the order must match the header of the target resource.
type Record []Column

func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// Values returns the cells in column order, nil becoming an empty cell.
func (r Record) Values() []interface{} {
	values := make([]interface{}, len(r))
	for i, c := range r {
		if c.Value == nil {
			values[i] = ""
			continue
		}
		values[i] = c.Value
	}
	return values
}

// Strings returns the cells as they read back from a resource.
func (r Record) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = FormatCell(c.Value)
	}
	return out
}

// Table is the content of one resource: its header row and every data row.
type Table struct {
	Header []string
	Rows   [][]string
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Tail returns a table with only the last n rows.
func (t Table) Tail(n int) Table {
	if n < 0 || len(t.Rows) <= n {
		return t
	}
	return Table{Header: t.Header, Rows: t.Rows[len(t.Rows)-n:]}
}

// Column returns every value of the named column, or nil when the
// header does not contain it.
func (t Table) Column(name string) []string {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, row[idx])
	}
	return out
}

// NewTable builds a Table from raw rows, the first one being the header.
// Short rows are padded to the header width.
func NewTable(raw [][]string) Table {
	if len(raw) == 0 {
		return Table{}
	}
	header := raw[0]
	rows := make([][]string, 0, len(raw)-1)
	for _, r := range raw[1:] {
		row := make([]string, len(header))
		copy(row, r)
		if len(r) > len(header) {
			row = append(row, r[len(header):]...)
		}
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}
}

type Appender interface {
	Append(ctx context.Context, resource string, rec Record) error
}

type Reader interface {
	ReadAll(ctx context.Context, resource string) (Table, error)
}

// Store is a row store: append one record, read everything back.
type Store interface {
	Appender
	Reader
}

// FormatCell renders a record value the way a spreadsheet shows it.
func FormatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}
