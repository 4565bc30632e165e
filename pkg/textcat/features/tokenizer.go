package features

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits text into word tokens and drops stop words.
// A token is a run of letters, digits or underscores at least two runes long.
type Tokenizer struct {
	stopwords map[string]struct{}
	lowercase bool
}

// NewTokenizer creates a tokenizer with the given stop word set.
func NewTokenizer(stopwords []string, lowercase bool) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		if lowercase {
			w = strings.ToLower(w)
		}
		stops[w] = struct{}{}
	}
	return &Tokenizer{stopwords: stops, lowercase: lowercase}
}

// Tokenize returns the tokens of text in order, stop words removed.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := current.String(); t.keep(word) {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if isWordRune(r) {
			if t.lowercase {
				r = unicode.ToLower(r)
			}
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// Terms returns the n-grams of text for every n in [lo, hi], joined with a
// single space. Stop words are removed before n-grams are formed.
func (t *Tokenizer) Terms(text string, lo, hi int) []string {
	tokens := t.Tokenize(text)
	if hi <= 1 {
		return tokens
	}

	var terms []string
	if lo == 1 {
		terms = append(terms, tokens...)
		lo = 2
	}
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func (t *Tokenizer) keep(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	_, stop := t.stopwords[word]
	return !stop
}

// IsStopword reports whether word is in the tokenizer's stop set.
func (t *Tokenizer) IsStopword(word string) bool {
	if t.lowercase {
		word = strings.ToLower(word)
	}
	_, ok := t.stopwords[word]
	return ok
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}
