package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cognicore/textcat/pkg/textcat"
	"github.com/cognicore/textcat/pkg/textcat/config"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/store"
	"github.com/cognicore/textcat/pkg/textcat/store/sqlite"
)

var errNoSource = errors.New("no input: pass --input FILE, --db FILE --table NAME, or set input in --config")

// session is a loaded configuration plus the resources it opened.
type session struct {
	cfg      *config.Config
	comp     *config.Components
	store    store.Store
	pipeline *textcat.Pipeline
}

func (s *session) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// loadConfig reads --config (or the defaults) and applies flag and
// environment overrides.
func (a *app) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if path := a.v.GetString("config"); path != "" {
		c, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		c := config.Default()
		cfg = &c
	}

	if p := a.v.GetString("input"); p != "" {
		cfg.Input.Path = p
		cfg.Input.Table = ""
	}
	if db := a.v.GetString("db"); db != "" {
		cfg.Input.SQLite = db
	}
	if tbl := a.v.GetString("table"); tbl != "" {
		cfg.Input.Table = tbl
		cfg.Input.Path = ""
	}
	if enc := a.v.GetString("encoding"); enc != "" {
		cfg.Input.Encoding = enc
	}
	if col := a.v.GetString("label-column"); col != "" {
		cfg.Input.LabelColumn = col
	}
	if col := a.v.GetString("text-column"); col != "" {
		cfg.Input.TextColumn = col
	}
	return cfg, nil
}

// openSession builds the components and the pipeline for cfg.
func (a *app) openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	s := &session{cfg: cfg}

	var extraStops []string
	if cfg.Input.SQLite != "" {
		st, err := sqlite.OpenSQLite(ctx, cfg.Input.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Input.SQLite, err)
		}
		s.store = st
		extraStops, err = st.Stoplist(ctx)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("read stoplist: %w", err)
		}
	}

	comp, err := config.Build(cfg, "", extraStops)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.comp = comp

	var src textcat.Source
	switch {
	case cfg.Input.Table != "":
		src = textcat.StoreSource{Store: s.store, TableName: cfg.Input.Table}
	case cfg.Input.Path != "":
		src = textcat.FileSource{Path: cfg.Input.Path, Options: comp.Files}
	default:
		s.Close()
		return nil, errNoSource
	}

	logger := a.logger
	p, err := textcat.New(textcat.Options{
		Source:     src,
		Records:    comp.Records,
		Features:   comp.Extractor,
		Stemmer:    comp.Stemmer,
		StemSample: cfg.Stem.Sample,
		Store:      s.store,
		Logger:     &logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.pipeline = p
	return s, nil
}

func (a *app) session(ctx context.Context) (*session, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return a.openSession(ctx, cfg)
}

// logPreview writes the first records at debug level, like a table head.
func logPreview(logger zerolog.Logger, recs []records.Record, n int) {
	for i, r := range records.Head(recs, n) {
		logger.Debug().Int("row", i).Str("label", r.Label).Str("text", truncateText(r.Text, 80)).Msg("record")
	}
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
