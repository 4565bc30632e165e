package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu       sync.RWMutex
	tables   map[string]*records.MemTable
	stoplist map[string]struct{}
	runs     map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		tables:   make(map[string]*records.MemTable),
		stoplist: make(map[string]struct{}),
		runs:     make(map[string]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ImportTable stores a copy of t under name.
func (s *Store) ImportTable(ctx context.Context, name string, t records.Table) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: table name is empty", internalerr.ErrInvalidInput)
	}
	if len(t.Columns()) == 0 {
		return fmt.Errorf("%w: table %q has no columns", internalerr.ErrInvalidInput, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = copyTable(t)
	return nil
}

// ReadTable returns a copy of the table stored under name.
func (s *Store) ReadTable(ctx context.Context, name string) (*records.MemTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %q", internalerr.ErrNotFound, name)
	}
	return copyTable(t), nil
}

// Tables lists table names in order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// UpsertStoplist replaces the stop word set.
func (s *Store) UpsertStoplist(ctx context.Context, terms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stoplist = make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			s.stoplist[t] = struct{}{}
		}
	}
	return nil
}

// Stoplist returns the stop words, sorted.
func (s *Store) Stoplist(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.stoplist))
	for t := range s.stoplist {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// SaveRun records a run summary.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run id is empty", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return nil
}

// Runs returns up to limit runs, newest id first.
func (s *Store) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, copyRun(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// copyTable relies on NewMemTable copying every row.
func copyTable(t records.Table) *records.MemTable {
	return records.NewMemTable(t.Columns(), t.Rows())
}

func copyRun(r store.Run) store.Run {
	if r.Counts != nil {
		counts := make(map[string]int, len(r.Counts))
		for k, v := range r.Counts {
			counts[k] = v
		}
		r.Counts = counts
	}
	return r
}
