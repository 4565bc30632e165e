// Package stem reduces words to root forms for previewing normalised text.
package stem

import (
	"fmt"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/kljensen/snowball"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
)

// Stemmer maps a word to its stem.
type Stemmer interface {
	Stem(word string) string
}

type porter struct{}

// Porter returns the original Porter stemmer. Input is lowercased first.
func Porter() Stemmer { return porter{} }

func (porter) Stem(word string) string {
	return porterstemmer.StemString(strings.ToLower(word))
}

// SnowballLanguages lists the languages Snowball accepts.
var SnowballLanguages = []string{"english", "spanish", "french", "russian", "swedish", "norwegian", "hungarian"}

type snowballStemmer struct {
	lang string
}

// Snowball returns a Snowball stemmer for lang.
func Snowball(lang string) (Stemmer, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range SnowballLanguages {
		if l == lang {
			return snowballStemmer{lang: lang}, nil
		}
	}
	return nil, fmt.Errorf("%w: snowball has no %q stemmer", internalerr.ErrInvalidConfig, lang)
}

func (s snowballStemmer) Stem(word string) string {
	out, err := snowball.Stem(word, s.lang, true)
	if err != nil {
		return strings.ToLower(word)
	}
	return out
}

// ByName resolves "porter" or "snowball-<lang>" (plain "snowball" is English).
func ByName(name string) (Stemmer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case name == "" || name == "porter":
		return Porter(), nil
	case name == "snowball":
		return Snowball("english")
	case strings.HasPrefix(name, "snowball-"):
		return Snowball(strings.TrimPrefix(name, "snowball-"))
	}
	return nil, fmt.Errorf("%w: unknown stemmer %q", internalerr.ErrInvalidConfig, name)
}

// Text stems every whitespace-separated token of text and joins the
// results with single spaces.
func Text(s Stemmer, text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = s.Stem(f)
	}
	return strings.Join(fields, " ")
}

// Sample returns copies of the first n records with stemmed text. recs is
// not modified.
func Sample(recs []records.Record, n int, s Stemmer) []records.Record {
	out := records.Head(recs, n)
	for i := range out {
		out[i].Text = Text(s, out[i].Text)
	}
	return out
}
