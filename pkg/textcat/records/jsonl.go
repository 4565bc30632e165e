package records

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxJSONLLine = 16 << 20

// ReadJSONL reads one JSON object per line. Columns are the union of object
// keys in first-seen order; malformed lines are skipped with a warning.
// JSON text is always UTF-8, so no charset applies; a leading byte order
// mark is dropped.
func ReadJSONL(r io.Reader) (*MemTable, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLLine)

	var (
		columns []string
		colIdx  = make(map[string]int)
		objects []map[string]any
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		obj, keys, err := decodeObject(line)
		if err != nil {
			log.Warn().Int("line", lineNo).Err(err).Msg("skipping malformed JSON line")
			continue
		}
		for _, k := range keys {
			if _, ok := colIdx[k]; !ok {
				colIdx[k] = len(columns)
				columns = append(columns, k)
			}
		}
		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read JSONL line %d: %w", lineNo+1, err)
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("no valid JSON objects found in %d lines", lineNo)
	}

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(columns))
		for k, v := range obj {
			row[colIdx[k]] = stringify(v)
		}
		rows[i] = row
	}
	return NewMemTable(columns, rows), nil
}

// decodeObject parses one object and returns its keys in document order.
func decodeObject(line string) (map[string]any, []string, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	obj := make(map[string]any)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", key, err)
		}
		if _, seen := obj[key]; !seen {
			keys = append(keys, key)
		}
		obj[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return obj, keys, nil
}

// stringify renders a JSON value as a cell. null becomes the empty cell.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
