package textcat

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/cognicore/textcat/pkg/textcat/features"
	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/stem"
	"github.com/cognicore/textcat/pkg/textcat/store/memstore"
)

func billingLoans() *records.MemTable {
	return records.NewMemTable(
		[]string{"Product", "Consumer complaint narrative"},
		[][]string{
			{"Billing", "late fee charged twice"},
			{"Billing", "late fee charged twice"},
			{"Loans", "interest rate too high"},
			{"Loans", ""},
		},
	)
}

func newExtractor(t *testing.T) *features.Extractor {
	t.Helper()
	cfg := features.DefaultConfig()
	cfg.StopWords = features.English()
	cfg.NGramRange = features.NGramRange{Min: 1, Max: 2}
	cfg.SublinearTF = true
	ex, err := features.New(cfg)
	if err != nil {
		t.Fatalf("features.New: %v", err)
	}
	return ex
}

func TestRunBillingLoans(t *testing.T) {
	st := memstore.New()
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	p, err := New(Options{
		Source:     TableSource{Label: "fixture", T: billingLoans()},
		Features:   newExtractor(t),
		Stemmer:    stem.Porter(),
		StemSample: 2,
		Store:      st,
		Logger:     &logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := ulid.ParseStrict(res.RunID); err != nil {
		t.Errorf("RunID %q is not a ULID: %v", res.RunID, err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(res.Records))
	}

	catToID := res.Index.CategoryToID()
	if catToID["Billing"] != 0 || catToID["Loans"] != 1 {
		t.Errorf("category_to_id = %v", catToID)
	}
	counts := res.Distribution.Counts()
	if counts["Billing"] != 2 || counts["Loans"] != 1 {
		t.Errorf("distribution = %v", counts)
	}

	m := res.Features.Matrix
	if m.Rows() != 3 {
		t.Fatalf("matrix rows = %d, want 3", m.Rows())
	}
	for i := 0; i < m.Rows(); i++ {
		if n := m.RowNorm(i, features.NormL2); math.Abs(n-1) > 1e-9 {
			t.Errorf("row %d norm = %v", i, n)
		}
	}
	if _, ok := res.Features.Vocabulary.Index("late fee"); !ok {
		t.Errorf("bigram missing from %v", res.Features.Vocabulary.Terms())
	}

	if len(res.StemmedSample) != 2 || res.StemmedSample[0].Text != "late fee charg twice" {
		t.Errorf("stemmed sample = %+v", res.StemmedSample)
	}
	if res.Records[0].Text != "late fee charged twice" {
		t.Error("stemming must not touch the pipeline records")
	}

	runs, _ := st.Runs(context.Background(), 5)
	if len(runs) != 1 || runs[0].ID != res.RunID || runs[0].Counts["Billing"] != 2 {
		t.Errorf("stored runs = %+v", runs)
	}
	if !strings.Contains(logs.String(), res.RunID) {
		t.Error("log lines should carry the run id")
	}
}

func TestRunAbortsOnSchemaError(t *testing.T) {
	tbl := records.NewMemTable([]string{"Product", "Issue"}, [][]string{{"Mortgage", "late"}})
	st := memstore.New()
	p, err := New(Options{Source: TableSource{T: tbl}, Features: newExtractor(t), Store: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := p.Run(context.Background())
	if !errors.Is(err, internalerr.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if res != nil {
		t.Error("no partial result on failure")
	}
	if runs, _ := st.Runs(context.Background(), 5); len(runs) != 0 {
		t.Error("failed runs should not be recorded")
	}
}

func TestRunAbortsOnEmptyVocabulary(t *testing.T) {
	tbl := records.NewMemTable([]string{"Product", "Consumer complaint narrative"}, [][]string{
		{"Billing", "the and of"},
		{"Loans", "it is"},
	})
	p, err := New(Options{Source: TableSource{T: tbl}, Features: newExtractor(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Run(context.Background()); !errors.Is(err, internalerr.ErrEmptyVocabulary) {
		t.Errorf("expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := New(Options{Source: TableSource{T: billingLoans()}, Features: newExtractor(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunIDsAreOrdered(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p, err := New(Options{
		Source:   TableSource{T: billingLoans()},
		Features: newExtractor(t),
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.RunID >= second.RunID {
		t.Errorf("run ids should increase: %s then %s", first.RunID, second.RunID)
	}
	if first.StartedAt != now {
		t.Errorf("StartedAt = %v", first.StartedAt)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{Features: newExtractor(t)}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("missing source: got %v", err)
	}
	if _, err := New(Options{Source: TableSource{T: billingLoans()}}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("missing extractor: got %v", err)
	}
}

func TestStoreSourceWithoutStore(t *testing.T) {
	_, err := StoreSource{TableName: "complaints"}.Table(context.Background())
	if !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
