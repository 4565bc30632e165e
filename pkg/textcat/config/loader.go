package config

import (
	"fmt"

	"github.com/cognicore/textcat/pkg/textcat/features"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/stem"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath   string   // empty means Default()
	StoplistPath string   // overrides the config's stoplist entry
	ExtraStops   []string // e.g. terms kept in the SQLite store
}

// Components holds all loaded configuration components
type Components struct {
	Config    *Config
	Extractor *features.Extractor
	Stemmer   stem.Stemmer // nil when stemming is disabled
	Records   records.Options
	Files     records.FileOptions
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	var cfg *Config
	if l.ConfigPath != "" {
		c, err := LoadConfig(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	} else {
		c := Default()
		cfg = &c
	}
	return Build(cfg, l.StoplistPath, l.ExtraStops)
}

// Build validates cfg and constructs the components it describes.
func Build(cfg *Config, stoplistPath string, extraStops []string) (*Components, error) {
	if stoplistPath == "" {
		stoplistPath = cfg.Stoplist
	}
	if stoplistPath != "" {
		sl, err := LoadStoplist(stoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		cfg.Features.StopWords.Terms = append(cfg.Features.StopWords.Terms, sl.Terms...)
	}
	cfg.Features.StopWords.Terms = append(cfg.Features.StopWords.Terms, extraStops...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ex, err := features.New(cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	comp := &Components{
		Config:    cfg,
		Extractor: ex,
		Records:   cfg.RecordOptions(),
		Files:     cfg.FileOptions(),
	}
	if cfg.Stem.Enabled {
		s, err := stem.ByName(cfg.Stem.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("stem: %w", err)
		}
		comp.Stemmer = s
	}
	return comp, nil
}
