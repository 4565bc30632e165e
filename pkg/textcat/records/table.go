package records

import "strings"

// Table is an in-memory tabular source: a header plus string rows.
type Table interface {
	Columns() []string
	Rows() [][]string
}

// MemTable is the Table every reader in this package produces.
type MemTable struct {
	columns []string
	rows    [][]string
}

// NewMemTable builds a table from a header and rows. Rows shorter than the
// header are padded with empty cells; longer rows are kept as-is.
func NewMemTable(columns []string, rows [][]string) *MemTable {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = normalizeColumnName(c)
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, len(row), max(len(row), len(cols)))
		copy(r, row)
		for len(r) < len(cols) {
			r = append(r, "")
		}
		out[i] = r
	}
	return &MemTable{columns: cols, rows: out}
}

// Columns returns the header.
func (t *MemTable) Columns() []string {
	return t.columns
}

// Rows returns the data rows.
func (t *MemTable) Rows() [][]string {
	return t.rows
}

// Len returns the number of data rows.
func (t *MemTable) Len() int {
	return len(t.rows)
}

// ColumnIndex returns the position of a column, or -1.
func ColumnIndex(t Table, name string) int {
	name = normalizeColumnName(name)
	for i, c := range t.Columns() {
		if c == name {
			return i
		}
	}
	return -1
}

// normalizeColumnName trims whitespace and a leading UTF-8 BOM.
// Case and inner spacing are preserved: "Consumer complaint narrative" stays.
func normalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.TrimSpace(name)
}
