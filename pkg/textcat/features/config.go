package features

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
)

// DocFreq is a document-frequency threshold: either an absolute document
// count or a fraction of the corpus. The zero value means "unset".
type DocFreq struct {
	count    int
	fraction float64
	isFrac   bool
}

// Count is a threshold of n documents.
func Count(n int) DocFreq {
	return DocFreq{count: n}
}

// Fraction is a threshold of f times the number of documents.
func Fraction(f float64) DocFreq {
	return DocFreq{fraction: f, isFrac: true}
}

// ParseDocFreq reads "5" as a count and "0.1" or "1.0" as a fraction.
func ParseDocFreq(s string) (DocFreq, error) {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return DocFreq{}, fmt.Errorf("%w: document frequency %q", internalerr.ErrInvalidConfig, s)
		}
		return Count(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return DocFreq{}, fmt.Errorf("%w: document frequency %q", internalerr.ErrInvalidConfig, s)
	}
	return Fraction(f), nil
}

// IsFraction reports whether the threshold is relative to corpus size.
func (d DocFreq) IsFraction() bool { return d.isFrac }

// IsZero reports whether the threshold was never set.
func (d DocFreq) IsZero() bool { return d == DocFreq{} }

// Bound returns the threshold in documents for a corpus of n documents.
func (d DocFreq) Bound(n int) float64 {
	if d.isFrac {
		return d.fraction * float64(n)
	}
	return float64(d.count)
}

func (d DocFreq) validate(name string) error {
	if d.isFrac {
		if d.fraction < 0 || d.fraction > 1 {
			return fmt.Errorf("%w: %s fraction %v outside [0, 1]", internalerr.ErrInvalidConfig, name, d.fraction)
		}
		return nil
	}
	if d.count < 0 {
		return fmt.Errorf("%w: %s count %d is negative", internalerr.ErrInvalidConfig, name, d.count)
	}
	return nil
}

func (d DocFreq) String() string {
	if d.isFrac {
		return strconv.FormatFloat(d.fraction, 'g', -1, 64)
	}
	return strconv.Itoa(d.count)
}

// UnmarshalYAML decodes an int scalar as a count and a float as a fraction.
func (d *DocFreq) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: document frequency must be a number (line %d)", internalerr.ErrInvalidConfig, node.Line)
	}
	switch node.Tag {
	case "!!int":
		var n int
		if err := node.Decode(&n); err != nil {
			return err
		}
		*d = Count(n)
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*d = Fraction(f)
	default:
		v, err := ParseDocFreq(node.Value)
		if err != nil {
			return err
		}
		*d = v
	}
	return nil
}

// MarshalYAML keeps a fraction recognisable as a float.
func (d DocFreq) MarshalYAML() (interface{}, error) {
	if d.isFrac {
		s := d.String()
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}, nil
	}
	return d.count, nil
}

// Norm selects the per-row normalisation.
type Norm string

const (
	NormL2   Norm = "l2"
	NormL1   Norm = "l1"
	NormNone Norm = "none"
)

// NGramRange is the inclusive range of n-gram lengths. YAML form: [1, 2].
type NGramRange struct {
	Min, Max int
}

// UnmarshalYAML decodes a two-element sequence.
func (r *NGramRange) UnmarshalYAML(node *yaml.Node) error {
	var pair []int
	if err := node.Decode(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: ngram_range needs two values, got %d (line %d)", internalerr.ErrInvalidConfig, len(pair), node.Line)
	}
	r.Min, r.Max = pair[0], pair[1]
	return nil
}

// MarshalYAML writes the range as a flow sequence.
func (r NGramRange) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(r.Min)},
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(r.Max)},
		},
	}, nil
}

// UnmarshalYAML accepts a language tag ("english"), a list of terms, or a
// mapping with language and terms keys.
func (s *StopWords) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = StopWords{Language: node.Value}
		return nil
	case yaml.SequenceNode:
		var terms []string
		if err := node.Decode(&terms); err != nil {
			return err
		}
		*s = StopWords{Terms: terms}
		return nil
	}
	type plain StopWords
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = StopWords(p)
	return nil
}

// Config controls vocabulary construction and weighting.
type Config struct {
	Lowercase   *bool      `yaml:"lowercase,omitempty"` // nil means true
	StopWords   StopWords  `yaml:"stop_words"`
	NGramRange  NGramRange `yaml:"ngram_range"`
	MinDF       DocFreq    `yaml:"min_df"`
	MaxDF       DocFreq    `yaml:"max_df"`
	MaxFeatures int        `yaml:"max_features"`
	SublinearTF bool       `yaml:"sublinear_tf"`
	UseIDF      *bool      `yaml:"use_idf,omitempty"`    // nil means true
	SmoothIDF   *bool      `yaml:"smooth_idf,omitempty"` // nil means true
	Norm        Norm       `yaml:"norm"`
	Encoding    string     `yaml:"text_encoding"` // charset of FitTransformRaw input
}

// DefaultConfig returns unigram TF-IDF with smoothed idf and l2 rows.
func DefaultConfig() Config {
	return Config{
		Lowercase:  Bool(true),
		NGramRange: NGramRange{Min: 1, Max: 1},
		MinDF:      Count(1),
		MaxDF:      Fraction(1.0),
		UseIDF:     Bool(true),
		SmoothIDF:  Bool(true),
		Norm:       NormL2,
		Encoding:   "utf-8",
	}
}

// Bool returns a pointer to b, for the optional switches in Config.
func Bool(b bool) *bool { return &b }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// withDefaults fills every unset field, so a zero Config means DefaultConfig.
func (c Config) withDefaults() Config {
	c.Lowercase = Bool(boolOr(c.Lowercase, true))
	c.UseIDF = Bool(boolOr(c.UseIDF, true))
	c.SmoothIDF = Bool(boolOr(c.SmoothIDF, true))
	if c.Encoding == "" {
		c.Encoding = "utf-8"
	}
	if c.NGramRange == (NGramRange{}) {
		c.NGramRange = NGramRange{Min: 1, Max: 1}
	}
	if c.MinDF.IsZero() {
		c.MinDF = Count(1)
	}
	if c.MaxDF.IsZero() {
		c.MaxDF = Fraction(1.0)
	}
	if c.Norm == "" {
		c.Norm = NormL2
	}
	return c
}

// Validate checks the settings that do not depend on corpus size.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.NGramRange.Min < 1 || c.NGramRange.Max < c.NGramRange.Min {
		return fmt.Errorf("%w: ngram_range (%d, %d) must satisfy 1 <= min <= max",
			internalerr.ErrInvalidConfig, c.NGramRange.Min, c.NGramRange.Max)
	}
	if err := c.MinDF.validate("min_df"); err != nil {
		return err
	}
	if err := c.MaxDF.validate("max_df"); err != nil {
		return err
	}
	if c.MinDF.isFrac == c.MaxDF.isFrac && c.MaxDF.Bound(1) < c.MinDF.Bound(1) {
		return fmt.Errorf("%w: max_df %s is below min_df %s", internalerr.ErrInvalidConfig, c.MaxDF, c.MinDF)
	}
	if c.MaxFeatures < 0 {
		return fmt.Errorf("%w: max_features %d is negative", internalerr.ErrInvalidConfig, c.MaxFeatures)
	}
	switch c.Norm {
	case NormL2, NormL1, NormNone:
	default:
		return fmt.Errorf("%w: unknown norm %q", internalerr.ErrInvalidConfig, c.Norm)
	}
	if _, err := StopWordsFor(c.StopWords.Language); err != nil {
		return err
	}
	if _, err := records.LookupEncoding(c.Encoding); err != nil {
		return err
	}
	return nil
}
