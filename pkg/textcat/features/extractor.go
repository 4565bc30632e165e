// Package features turns complaint text into TF-IDF weighted n-gram vectors.
//
// Fitting learns a sorted vocabulary and per-term idf from a corpus; the
// same corpus and configuration always produce the same vocabulary and
// bit-identical weights.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
)

// Result is the output of FitTransform.
type Result struct {
	Matrix     *Matrix
	Vocabulary *Vocabulary
	Pruned     []string // terms dropped by the df thresholds or MaxFeatures, sorted
}

// EmptyVocabularyError reports that no term is available for the matrix.
type EmptyVocabularyError struct {
	Documents     int
	MinDF, MaxDF  DocFreq
	BeforePruning bool // the corpus held no terms at all, e.g. only stop words
}

func (e *EmptyVocabularyError) Error() string {
	if e.BeforePruning {
		return fmt.Sprintf("empty vocabulary: %d documents contain only stop words or short tokens", e.Documents)
	}
	return fmt.Sprintf("empty vocabulary: no terms remain after pruning %d documents with min_df=%s max_df=%s",
		e.Documents, e.MinDF, e.MaxDF)
}

// Is makes errors.Is(err, internalerr.ErrEmptyVocabulary) hold.
func (e *EmptyVocabularyError) Is(target error) bool {
	return target == internalerr.ErrEmptyVocabulary
}

// Extractor fits a vocabulary and weights documents against it.
type Extractor struct {
	cfg    Config
	tok    *Tokenizer
	logger zerolog.Logger

	vocab  *Vocabulary
	idf    []float64
	pruned []string
}

// New validates cfg and returns an unfitted extractor.
func New(cfg Config) (*Extractor, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stops, err := cfg.StopWords.Resolve()
	if err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:    cfg,
		tok:    NewTokenizer(stops, *cfg.Lowercase),
		logger: zerolog.Nop(),
	}, nil
}

// SetLogger assigns the logger used for fit summaries.
func (e *Extractor) SetLogger(l zerolog.Logger) {
	e.logger = l
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Fitted reports whether Fit has succeeded.
func (e *Extractor) Fitted() bool { return e.vocab != nil }

// Vocabulary returns the fitted vocabulary, nil before Fit.
func (e *Extractor) Vocabulary() *Vocabulary { return e.vocab }

// IDF returns a copy of the per-column idf weights.
func (e *Extractor) IDF() []float64 {
	out := make([]float64, len(e.idf))
	copy(out, e.idf)
	return out
}

// Analyze returns the terms of one document as the extractor sees them.
func (e *Extractor) Analyze(doc string) []string {
	return e.tok.Terms(doc, e.cfg.NGramRange.Min, e.cfg.NGramRange.Max)
}

// Fit learns the vocabulary and idf weights from docs. A failed Fit leaves
// a previously fitted state untouched.
func (e *Extractor) Fit(docs []string) error {
	_, err := e.fit(docs)
	return err
}

// FitTransform fits on docs and returns their weighted matrix.
func (e *Extractor) FitTransform(docs []string) (*Result, error) {
	analyzed, err := e.fit(docs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Matrix:     e.weigh(analyzed),
		Vocabulary: e.vocab,
		Pruned:     append([]string(nil), e.pruned...),
	}, nil
}

// FitTransformRaw decodes raw documents with the configured text encoding
// and then behaves like FitTransform.
func (e *Extractor) FitTransformRaw(docs [][]byte) (*Result, error) {
	texts := make([]string, len(docs))
	for i, b := range docs {
		s, err := records.DecodeBytes(b, e.cfg.Encoding)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		texts[i] = s
	}
	return e.FitTransform(texts)
}

// Transform weighs docs against the fitted vocabulary. Terms outside the
// vocabulary are ignored.
func (e *Extractor) Transform(docs []string) (*Matrix, error) {
	if !e.Fitted() {
		return nil, fmt.Errorf("%w: extractor is not fitted", internalerr.ErrInvalidInput)
	}
	analyzed := make([][]string, len(docs))
	for i, d := range docs {
		analyzed[i] = e.Analyze(d)
	}
	return e.weigh(analyzed), nil
}

func (e *Extractor) fit(docs []string) ([][]string, error) {
	n := len(docs)
	if n == 0 {
		return nil, fmt.Errorf("%w: no documents to fit", internalerr.ErrEmptyInput)
	}

	analyzed := make([][]string, n)
	df := make(map[string]int)
	tf := make(map[string]int)
	for i, d := range docs {
		terms := e.Analyze(d)
		analyzed[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			tf[t]++
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	if len(df) == 0 {
		return nil, &EmptyVocabularyError{Documents: n, MinDF: e.cfg.MinDF, MaxDF: e.cfg.MaxDF, BeforePruning: true}
	}

	minCount, maxCount := e.cfg.MinDF.Bound(n), e.cfg.MaxDF.Bound(n)
	if maxCount < minCount {
		return nil, fmt.Errorf("%w: max_df %s corresponds to fewer documents than min_df %s",
			internalerr.ErrInvalidConfig, e.cfg.MaxDF, e.cfg.MinDF)
	}

	var kept, pruned []string
	for t, c := range df {
		if float64(c) >= minCount && float64(c) <= maxCount {
			kept = append(kept, t)
		} else {
			pruned = append(pruned, t)
		}
	}

	if limit := e.cfg.MaxFeatures; limit > 0 && len(kept) > limit {
		sort.Slice(kept, func(i, j int) bool {
			if tf[kept[i]] != tf[kept[j]] {
				return tf[kept[i]] > tf[kept[j]]
			}
			return kept[i] < kept[j]
		})
		pruned = append(pruned, kept[limit:]...)
		kept = kept[:limit]
	}

	if len(kept) == 0 {
		return nil, &EmptyVocabularyError{Documents: n, MinDF: e.cfg.MinDF, MaxDF: e.cfg.MaxDF}
	}

	sort.Strings(kept)
	sort.Strings(pruned)

	idf := make([]float64, len(kept))
	for i, t := range kept {
		idf[i] = e.idfWeight(n, df[t])
	}

	e.vocab = newVocabulary(kept)
	e.idf = idf
	e.pruned = pruned

	e.logger.Debug().
		Int("documents", n).
		Int("terms", len(kept)).
		Int("pruned", len(pruned)).
		Msg("vocabulary fitted")

	return analyzed, nil
}

func (e *Extractor) idfWeight(n, df int) float64 {
	if !*e.cfg.UseIDF {
		return 1
	}
	if *e.cfg.SmoothIDF {
		return math.Log(float64(1+n)/float64(1+df)) + 1
	}
	return math.Log(float64(n)/float64(df)) + 1
}

func (e *Extractor) weigh(analyzed [][]string) *Matrix {
	m := newMatrix(e.vocab.Len())
	for _, terms := range analyzed {
		counts := make(map[int]float64)
		for _, t := range terms {
			if col, ok := e.vocab.Index(t); ok {
				counts[col]++
			}
		}
		for col, c := range counts {
			if e.cfg.SublinearTF {
				c = 1 + math.Log(c)
			}
			counts[col] = c * e.idf[col]
		}
		if e.cfg.Norm != NormNone {
			normalize(counts, e.cfg.Norm)
		}
		m.appendRow(counts)
	}
	return m
}

// normalize scales row to unit norm in place. Zero rows stay zero.
func normalize(row map[int]float64, norm Norm) {
	cols := make([]int, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	vals := make([]float64, len(cols))
	for i, c := range cols {
		vals[i] = row[c]
	}

	z := vectorNorm(vals, norm)
	if z == 0 {
		return
	}
	for _, c := range cols {
		row[c] /= z
	}
}
