package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates the bookkeeping tables. Imported tables are created
// on demand with a "src_" prefix.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS imports (
	name TEXT PRIMARY KEY,
	columns TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	imported_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stoplist (
	token TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT,
	started_at TEXT NOT NULL,
	records INTEGER NOT NULL,
	categories INTEGER NOT NULL,
	terms INTEGER NOT NULL,
	counts_json TEXT
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// ImportTable replaces the staged table called name with the contents of t.
// Every column is stored as TEXT in source order.
func (s *sqliteStore) ImportTable(ctx context.Context, name string, t records.Table) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: table name is empty", internalerr.ErrInvalidInput)
	}
	cols := t.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("%w: table %q has no columns", internalerr.ErrInvalidInput, name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ident := tableIdent(name)
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+ident); err != nil {
		return err
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (%s)`, ident, strings.Join(defs, ", "))); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, ident, placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	rows := t.Rows()
	args := make([]interface{}, len(cols))
	for _, row := range rows {
		for i := range args {
			if i < len(row) {
				args[i] = row[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	colsJSON, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	const meta = `
INSERT INTO imports (name, columns, row_count, imported_at) VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	columns=excluded.columns,
	row_count=excluded.row_count,
	imported_at=excluded.imported_at;
`
	if _, err := tx.ExecContext(ctx, meta, name, string(colsJSON), len(rows), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

// ReadTable loads a staged table. NULL cells read as empty strings.
func (s *sqliteStore) ReadTable(ctx context.Context, name string) (*records.MemTable, error) {
	var colsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT columns FROM imports WHERE name=?`, name).Scan(&colsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table %q", internalerr.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	var cols []string
	if err := json.Unmarshal([]byte(colsJSON), &cols); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s ORDER BY rowid`, tableIdent(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var data [][]string
	cells := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records.NewMemTable(cols, data), nil
}

// Tables lists staged table names in order.
func (s *sqliteStore) Tables(ctx context.Context) ([]string, error) {
	return s.loadStringColumn(ctx, `SELECT name FROM imports ORDER BY name`)
}

// UpsertStoplist replaces the stopword set in a single transaction.
func (s *sqliteStore) UpsertStoplist(ctx context.Context, terms []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stoplist`); err != nil {
		return err
	}

	if len(terms) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO stoplist (token) VALUES (?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, tok := range terms {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, tok); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Stoplist returns the stored stop words, sorted.
func (s *sqliteStore) Stoplist(ctx context.Context) ([]string, error) {
	return s.loadStringColumn(ctx, `SELECT token FROM stoplist ORDER BY token`)
}

// SaveRun records a run summary, replacing one with the same id.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run id is empty", internalerr.ErrInvalidInput)
	}
	counts, err := json.Marshal(r.Counts)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, source, started_at, records, categories, terms, counts_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	source=excluded.source,
	started_at=excluded.started_at,
	records=excluded.records,
	categories=excluded.categories,
	terms=excluded.terms,
	counts_json=excluded.counts_json;
`, r.ID, r.Source, r.StartedAt.UTC().Format(time.RFC3339Nano), r.Records, r.Categories, r.Terms, string(counts))
	return err
}

// Runs returns the most recent runs first. ULIDs sort by time, so the id
// order is the start order.
func (s *sqliteStore) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source, started_at, records, categories, terms, counts_json
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var (
			r       store.Run
			source  sql.NullString
			started string
			counts  sql.NullString
		)
		if err := rows.Scan(&r.ID, &source, &started, &r.Records, &r.Categories, &r.Terms, &counts); err != nil {
			return nil, err
		}
		r.Source = source.String
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			r.StartedAt = t
		}
		if counts.Valid && counts.String != "" {
			if err := json.Unmarshal([]byte(counts.String), &r.Counts); err != nil {
				return nil, err
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, rows.Err()
}

func tableIdent(name string) string {
	return quoteIdent("src_" + name)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
