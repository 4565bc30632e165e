package textcat

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/cognicore/textcat/pkg/textcat/categories"
	"github.com/cognicore/textcat/pkg/textcat/distribution"
	"github.com/cognicore/textcat/pkg/textcat/features"
	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/stem"
	"github.com/cognicore/textcat/pkg/textcat/store"
)

// Pipeline runs load, index, summarise and extract as one explicit chain.
type Pipeline struct {
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures a Pipeline
type Options struct {
	Source     Source
	Records    records.Options
	Features   *features.Extractor
	Stemmer    stem.Stemmer // nil skips the stemmed sample
	StemSample int
	Store      store.Store     // optional run history
	Logger     *zerolog.Logger // nil discards logs
	Now        func() time.Time
}

// Result is everything one run produced.
type Result struct {
	RunID         string
	Source        string
	StartedAt     time.Time
	Records       []records.Record
	Index         *categories.Index
	Labeled       []categories.Labeled
	Distribution  distribution.Summary
	Features      *features.Result
	StemmedSample []records.Record
}

// New creates a Pipeline with the given dependencies
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: pipeline needs a source", internalerr.ErrInvalidConfig)
	}
	if opts.Features == nil {
		return nil, fmt.Errorf("%w: pipeline needs a feature extractor", internalerr.ErrInvalidConfig)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	opts.Features.SetLogger(logger)

	return &Pipeline{
		opts:    opts,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (p *Pipeline) newRunID(t time.Time) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), p.entropy).String()
}

// LoadRecords reads the source and narrows it to records.
func (p *Pipeline) LoadRecords(ctx context.Context) ([]records.Record, error) {
	tbl, err := p.opts.Source.Table(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.opts.Source.Name(), err)
	}
	recs, err := records.Load(tbl, p.opts.Records)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.opts.Source.Name(), err)
	}
	return recs, nil
}

// Run executes every stage in order and stops at the first error. No
// partial result is returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.opts.Now()
	res := &Result{
		RunID:     p.newRunID(started),
		Source:    p.opts.Source.Name(),
		StartedAt: started,
	}
	log := p.logger.With().Str("run_id", res.RunID).Logger()
	log.Info().Str("source", res.Source).Msg("run started")

	recs, err := p.LoadRecords(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load failed")
		return nil, err
	}
	res.Records = recs
	log.Debug().Int("rows", len(recs)).Msg("records loaded")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Index, res.Labeled = categories.Factorize(recs)
	res.Distribution = distribution.Summarize(res.Labeled, res.Index)
	log.Debug().Int("categories", res.Index.Len()).Msg("categories indexed")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feats, err := p.opts.Features.FitTransform(records.Texts(recs))
	if err != nil {
		log.Error().Err(err).Msg("feature extraction failed")
		return nil, fmt.Errorf("features: %w", err)
	}
	res.Features = feats
	log.Debug().
		Int("rows", feats.Matrix.Rows()).
		Int("terms", feats.Vocabulary.Len()).
		Int("pruned", len(feats.Pruned)).
		Msg("features extracted")

	if p.opts.Stemmer != nil && p.opts.StemSample > 0 {
		res.StemmedSample = stem.Sample(recs, p.opts.StemSample, p.opts.Stemmer)
	}

	if p.opts.Store != nil {
		run := store.Run{
			ID:         res.RunID,
			Source:     res.Source,
			StartedAt:  started,
			Records:    len(recs),
			Categories: res.Index.Len(),
			Terms:      feats.Vocabulary.Len(),
			Counts:     res.Distribution.Counts(),
		}
		if err := p.opts.Store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	log.Info().
		Int("records", len(recs)).
		Int("categories", res.Index.Len()).
		Int("terms", feats.Vocabulary.Len()).
		Dur("elapsed", p.opts.Now().Sub(started)).
		Msg("run finished")
	return res, nil
}
