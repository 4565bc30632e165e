package store

import (
	"context"
	"time"

	"github.com/cognicore/textcat/pkg/textcat/records"
)

// Store stages source tables and keeps pipeline bookkeeping between runs.
type Store interface {
	Close() error

	// Staged tables
	ImportTable(ctx context.Context, name string, t records.Table) error
	ReadTable(ctx context.Context, name string) (*records.MemTable, error)
	Tables(ctx context.Context) ([]string, error)

	// Extra stop words merged into the feature extractor's list
	UpsertStoplist(ctx context.Context, terms []string) error
	Stoplist(ctx context.Context) ([]string, error)

	// Run history
	SaveRun(ctx context.Context, r Run) error
	Runs(ctx context.Context, limit int) ([]Run, error)
}

// Run summarises one pipeline run.
type Run struct {
	ID         string // ULID
	Source     string
	StartedAt  time.Time
	Records    int
	Categories int
	Terms      int
	Counts     map[string]int // records per category label
}
