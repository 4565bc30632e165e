package records

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileOptions configures OpenFile.
type FileOptions struct {
	Encoding string // charset for CSV/TSV; JSONL is always UTF-8
	Sheet    string // workbook sheet for XLSX
}

// OpenFile reads a table from disk, choosing the reader by extension:
// .csv, .tsv, .xlsx, .jsonl or .ndjson.
func OpenFile(path string, opts FileOptions) (*MemTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var t *MemTable
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		t, err = ReadCSV(f, CSVOptions{Encoding: opts.Encoding})
	case ".tsv":
		t, err = ReadCSV(f, CSVOptions{Comma: '\t', Encoding: opts.Encoding})
	case ".xlsx":
		t, err = ReadXLSX(f, opts.Sheet)
	case ".jsonl", ".ndjson":
		t, err = ReadJSONL(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q: %s", ext, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
