package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textcat/pkg/textcat/features"
	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/stem"
)

// Config is the pipeline configuration file.
type Config struct {
	Input    Input           `yaml:"input"`
	Features features.Config `yaml:"features"`
	Stem     Stem            `yaml:"stem"`
	Report   Report          `yaml:"report"`
	Stoplist string          `yaml:"stoplist"` // optional YAML file with extra stop words
}

// Input selects the source table and the two columns the pipeline keeps.
// The source is either Path or Table, a table staged in the SQLite file.
// SQLite alone keeps run history and stored stop words next to a file source.
type Input struct {
	Path        string `yaml:"path"`
	Encoding    string `yaml:"encoding"` // defaults to features.text_encoding
	Sheet       string `yaml:"sheet"`
	SQLite      string `yaml:"sqlite"`
	Table       string `yaml:"table"`
	LabelColumn string `yaml:"label_column"`
	TextColumn  string `yaml:"text_column"`
	StripMarkup bool   `yaml:"strip_markup"`
	Preview     int    `yaml:"preview"` // records logged after loading
}

// Stem controls the stemmed preview sample.
type Stem struct {
	Enabled   bool   `yaml:"enabled"`
	Algorithm string `yaml:"algorithm"` // porter, snowball-<lang>
	Sample    int    `yaml:"sample"`
}

// Report controls how the distribution chart is rendered.
type Report struct {
	Format string `yaml:"format"` // text, json, svg
	Width  int    `yaml:"width"`  // text: longest bar in characters; svg: canvas pixels; 0 picks the renderer default
	Height int    `yaml:"height"` // svg canvas pixels; 0 picks the renderer default
	Color  bool   `yaml:"color"`
	Title  string `yaml:"title"`
}

// Default mirrors the complaints notebook: unigrams and bigrams, sublinear
// tf, terms in at least 10% of documents, English stop words, latin-1 text.
func Default() Config {
	fc := features.DefaultConfig()
	fc.SublinearTF = true
	fc.MinDF = features.Fraction(0.1)
	fc.NGramRange = features.NGramRange{Min: 1, Max: 2}
	fc.StopWords = features.English()
	fc.Encoding = "latin-1"

	return Config{
		Input: Input{
			LabelColumn: records.DefaultLabelColumn,
			TextColumn:  records.DefaultTextColumn,
			Preview:     5,
		},
		Features: fc,
		Stem:     Stem{Enabled: true, Algorithm: "porter", Sample: 5},
		Report:   Report{Format: "text", Title: "Complaints per product"},
	}
}

// Parse decodes YAML on top of Default, so absent keys keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// LoadConfig reads a configuration file. Relative input and stoplist paths
// are resolved against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.Input.Path = resolve(dir, cfg.Input.Path)
	cfg.Input.SQLite = resolve(dir, cfg.Input.SQLite)
	cfg.Stoplist = resolve(dir, cfg.Stoplist)
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks settings across sections.
func (c *Config) Validate() error {
	if c.Input.Path != "" && c.Input.Table != "" {
		return fmt.Errorf("%w: input.path and input.table are mutually exclusive", internalerr.ErrInvalidConfig)
	}
	if c.Input.Table != "" && c.Input.SQLite == "" {
		return fmt.Errorf("%w: input.table needs input.sqlite", internalerr.ErrInvalidConfig)
	}
	if _, err := records.LookupEncoding(c.InputEncoding()); err != nil {
		return err
	}
	if err := c.Features.Validate(); err != nil {
		return err
	}
	if c.Stem.Enabled {
		if c.Stem.Sample < 0 {
			return fmt.Errorf("%w: stem.sample %d is negative", internalerr.ErrInvalidConfig, c.Stem.Sample)
		}
		if _, err := stem.ByName(c.Stem.Algorithm); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.Report.Format) {
	case "", "text", "json", "svg":
	default:
		return fmt.Errorf("%w: report.format %q (want text, json or svg)", internalerr.ErrInvalidConfig, c.Report.Format)
	}
	return nil
}

// InputEncoding is the charset used to read CSV and TSV sources.
func (c *Config) InputEncoding() string {
	if c.Input.Encoding != "" {
		return c.Input.Encoding
	}
	return c.Features.Encoding
}

// RecordOptions returns the loader options for the input section.
func (c *Config) RecordOptions() records.Options {
	return records.Options{
		LabelColumn: c.Input.LabelColumn,
		TextColumn:  c.Input.TextColumn,
		StripMarkup: c.Input.StripMarkup,
	}
}

// FileOptions returns the reader options for the input section.
func (c *Config) FileOptions() records.FileOptions {
	return records.FileOptions{Encoding: c.InputEncoding(), Sheet: c.Input.Sheet}
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}

	return &sl, nil
}
