package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	Comma    rune   // field separator, ',' when zero
	Encoding string // charset label, UTF-8 when empty
}

// ReadCSV reads a delimited file whose first row is the header.
func ReadCSV(r io.Reader, opts CSVOptions) (*MemTable, error) {
	decoded, err := DecodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	var rows [][]string
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return NewMemTable(header, rows), nil
}
