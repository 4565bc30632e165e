package records

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names that hold notes about the export rather than rows.
var metadataSheets = map[string]bool{
	"info":     true,
	"metadata": true,
	"about":    true,
	"readme":   true,
	"notes":    true,
}

// ReadXLSX reads a workbook sheet whose first row is the header. With an
// empty sheet name the first non-metadata sheet is used.
func ReadXLSX(r io.Reader, sheet string) (*MemTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	if sheet == "" {
		for _, s := range sheets {
			if !metadataSheets[strings.ToLower(s)] {
				sheet = s
				break
			}
		}
		if sheet == "" {
			sheet = sheets[len(sheets)-1]
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	return NewMemTable(rows[0], rows[1:]), nil
}
