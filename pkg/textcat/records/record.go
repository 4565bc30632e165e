package records

import (
	"fmt"
	"strings"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
)

// Column names used by the consumer complaints export.
const (
	DefaultLabelColumn = "Product"
	DefaultTextColumn  = "Consumer complaint narrative"
)

// Record is one complaint narrowed to the two fields the pipeline uses.
type Record struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Options selects the columns to keep and how text cells are cleaned.
type Options struct {
	LabelColumn string
	TextColumn  string
	StripMarkup bool // remove HTML tags and entities before the empty check
}

func (o Options) withDefaults() Options {
	if o.LabelColumn == "" {
		o.LabelColumn = DefaultLabelColumn
	}
	if o.TextColumn == "" {
		o.TextColumn = DefaultTextColumn
	}
	return o
}

// SchemaError reports a required column missing from the source table.
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not found (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, internalerr.ErrSchema) hold.
func (e *SchemaError) Is(target error) bool {
	return target == internalerr.ErrSchema
}

// EmptyInputError reports that no row survived the missing-text filter.
type EmptyInputError struct {
	Column    string
	TotalRows int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no records with non-empty %q among %d rows", e.Column, e.TotalRows)
}

// Is makes errors.Is(err, internalerr.ErrEmptyInput) hold.
func (e *EmptyInputError) Is(target error) bool {
	return target == internalerr.ErrEmptyInput
}

// naValues are the cell values pandas reads as missing by default. Matching
// is exact and case-sensitive, so "NONE" or "Nan" stay text.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Load narrows t to (label, text) records, dropping rows whose text is
// missing, empty or whitespace-only. Rows without a label are dropped too,
// since every record needs a category. Cells are kept as read, untrimmed.
// Rows are returned in source order; duplicates are kept.
func Load(t Table, opts Options) ([]Record, error) {
	opts = opts.withDefaults()

	labelIdx := ColumnIndex(t, opts.LabelColumn)
	if labelIdx < 0 {
		return nil, &SchemaError{Column: opts.LabelColumn, Available: t.Columns()}
	}
	textIdx := ColumnIndex(t, opts.TextColumn)
	if textIdx < 0 {
		return nil, &SchemaError{Column: opts.TextColumn, Available: t.Columns()}
	}

	rows := t.Rows()
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		text := cell(row, textIdx)
		if opts.StripMarkup {
			text = StripMarkup(text)
		}
		if isMissing(text) || strings.TrimSpace(text) == "" {
			continue
		}
		label := cell(row, labelIdx)
		if isMissing(label) {
			continue
		}
		out = append(out, Record{Label: label, Text: text})
	}

	if len(out) == 0 {
		return nil, &EmptyInputError{Column: opts.TextColumn, TotalRows: len(rows)}
	}
	return out, nil
}

// Head returns a copy of the first n records.
func Head(recs []Record, n int) []Record {
	if n < 0 {
		n = 0
	}
	if n > len(recs) {
		n = len(recs)
	}
	out := make([]Record, n)
	copy(out, recs[:n])
	return out
}

// Texts returns the text field of every record, in order.
func Texts(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Text
	}
	return out
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isMissing(v string) bool {
	_, ok := naValues[v]
	return ok
}
