package textcat

import (
	"context"
	"fmt"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/store"
)

// Source yields the raw complaints table.
type Source interface {
	Name() string
	Table(ctx context.Context) (records.Table, error)
}

// FileSource reads a CSV, TSV, XLSX or JSONL file.
type FileSource struct {
	Path    string
	Options records.FileOptions
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Table(ctx context.Context) (records.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records.OpenFile(s.Path, s.Options)
}

// StoreSource reads a table previously staged with ImportTable.
type StoreSource struct {
	Store     store.Store
	TableName string
}

func (s StoreSource) Name() string { return "store:" + s.TableName }

func (s StoreSource) Table(ctx context.Context) (records.Table, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("%w: no store configured", internalerr.ErrStoreUnavailable)
	}
	return s.Store.ReadTable(ctx, s.TableName)
}

// TableSource wraps a table already in memory.
type TableSource struct {
	Label string
	T     records.Table
}

func (s TableSource) Name() string {
	if s.Label == "" {
		return "memory"
	}
	return s.Label
}

func (s TableSource) Table(ctx context.Context) (records.Table, error) {
	if s.T == nil {
		return nil, fmt.Errorf("%w: nil table", internalerr.ErrInvalidInput)
	}
	return s.T, nil
}
