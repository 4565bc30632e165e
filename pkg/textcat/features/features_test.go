package features

import (
	"errors"
	"math"
	"sort"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
)

const eps = 1e-9

func complaints() []string {
	return []string{
		"I was charged a late fee twice on my credit card",
		"The late fee was charged again after I paid",
		"My mortgage servicer lost the payment",
		"Debt collector keeps calling about a debt I paid",
		"The mortgage payment was applied late",
	}
}

func newExtractor(t *testing.T, mutate func(*Config)) *Extractor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StopWords = English()
	if mutate != nil {
		mutate(&cfg)
	}
	ex, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ex
}

func TestTokenizer(t *testing.T) {
	tok := NewTokenizer(EnglishStopWords(), true)

	got := tok.Tokenize("I was CHARGED a fee_twice, (again) on 03/15!")
	want := []string{"charged", "fee_twice", "03", "15"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTermsBigramsSkipStopWords(t *testing.T) {
	tok := NewTokenizer(EnglishStopWords(), true)

	got := tok.Terms("late fee on the card", 1, 2)
	want := []string{"late", "fee", "card", "late fee", "fee card"}
	if len(got) != len(want) {
		t.Fatalf("Terms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("term %d = %q, want %q", i, got[i], want[i])
		}
	}

	if bigrams := tok.Terms("late fee", 2, 2); len(bigrams) != 1 || bigrams[0] != "late fee" {
		t.Errorf("bigrams only = %v", bigrams)
	}
}

func TestFitTransformShapeAndNorm(t *testing.T) {
	docs := complaints()
	ex := newExtractor(t, func(c *Config) {
		c.NGramRange = NGramRange{Min: 1, Max: 2}
		c.SublinearTF = true
	})

	res, err := ex.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if res.Matrix.Rows() != len(docs) {
		t.Fatalf("Rows = %d, want %d", res.Matrix.Rows(), len(docs))
	}
	if res.Matrix.Cols() != res.Vocabulary.Len() {
		t.Errorf("Cols = %d, vocabulary = %d", res.Matrix.Cols(), res.Vocabulary.Len())
	}
	for i := 0; i < res.Matrix.Rows(); i++ {
		if n := res.Matrix.RowNorm(i, NormL2); math.Abs(n-1) > eps {
			t.Errorf("row %d l2 norm = %v, want 1", i, n)
		}
	}

	terms := res.Vocabulary.Terms()
	if !sort.StringsAreSorted(terms) {
		t.Error("vocabulary should be sorted")
	}
	for _, want := range []string{"late fee", "mortgage", "payment"} {
		if _, ok := res.Vocabulary.Index(want); !ok {
			t.Errorf("vocabulary lacks %q", want)
		}
	}
	for _, stop := range []string{"the", "was", "my"} {
		if _, ok := res.Vocabulary.Index(stop); ok {
			t.Errorf("stop word %q in vocabulary", stop)
		}
	}
}

func TestCSRColumnsSorted(t *testing.T) {
	ex := newExtractor(t, func(c *Config) { c.NGramRange = NGramRange{Min: 1, Max: 2} })
	res, err := ex.FitTransform(complaints())
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	dense := res.Matrix.Dense()
	nnz := 0
	for i := 0; i < res.Matrix.Rows(); i++ {
		cols, vals := res.Matrix.Row(i)
		if !sort.IntsAreSorted(cols) {
			t.Errorf("row %d columns not sorted: %v", i, cols)
		}
		for k, c := range cols {
			if dense[i][c] != vals[k] || res.Matrix.At(i, c) != vals[k] {
				t.Errorf("(%d,%d) mismatch between Row, At and Dense", i, c)
			}
		}
		nnz += len(cols)
	}
	if nnz != res.Matrix.NNZ() {
		t.Errorf("NNZ = %d, counted %d", res.Matrix.NNZ(), nnz)
	}
}

func TestMinDFThreshold(t *testing.T) {
	docs := complaints()
	cases := []struct {
		name  string
		minDF DocFreq
		min   int
	}{
		{"count", Count(2), 2},
		{"fraction", Fraction(0.4), 2},
		{"fraction rounds up", Fraction(0.3), 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := newExtractor(t, func(c *Config) {
				c.NGramRange = NGramRange{Min: 1, Max: 2}
				c.MinDF = tc.minDF
			})
			res, err := ex.FitTransform(docs)
			if err != nil {
				t.Fatalf("FitTransform: %v", err)
			}

			for col, term := range res.Vocabulary.Terms() {
				df := 0
				for i := 0; i < res.Matrix.Rows(); i++ {
					if res.Matrix.At(i, col) != 0 {
						df++
					}
				}
				if df < tc.min {
					t.Errorf("term %q appears in %d documents, below %d", term, df, tc.min)
				}
			}
			if len(res.Pruned) == 0 {
				t.Error("expected rare terms to be pruned")
			}
			for _, p := range res.Pruned {
				if _, ok := res.Vocabulary.Index(p); ok {
					t.Errorf("pruned term %q still in vocabulary", p)
				}
			}
		})
	}
}

func TestMaxDFDropsCommonTerms(t *testing.T) {
	docs := []string{"fee charged", "fee refunded", "fee waived", "mortgage lost"}
	ex := newExtractor(t, func(c *Config) { c.MaxDF = Fraction(0.5) })

	res, err := ex.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if _, ok := res.Vocabulary.Index("fee"); ok {
		t.Error("fee is in 3 of 4 documents and should exceed max_df 0.5")
	}
}

func TestMaxFeatures(t *testing.T) {
	docs := []string{"fee fee fee rate", "fee rate card", "fee loan"}
	ex := newExtractor(t, func(c *Config) { c.MaxFeatures = 2 })

	res, err := ex.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	got := res.Vocabulary.Terms()
	if len(got) != 2 || got[0] != "fee" || got[1] != "rate" {
		t.Errorf("vocabulary = %v, want [fee rate]", got)
	}
	if len(res.Pruned) != 2 || res.Pruned[0] != "card" || res.Pruned[1] != "loan" {
		t.Errorf("pruned = %v, want [card loan]", res.Pruned)
	}
}

func TestSmoothIDFWeights(t *testing.T) {
	ex := newExtractor(t, func(c *Config) { c.Norm = NormNone })

	res, err := ex.FitTransform([]string{"apple banana", "apple cherry"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	apple, _ := res.Vocabulary.Index("apple")
	banana, _ := res.Vocabulary.Index("banana")

	if got := res.Matrix.At(0, apple); math.Abs(got-1) > eps {
		t.Errorf("apple weight = %v, want 1", got)
	}
	want := math.Log(3.0/2.0) + 1
	if got := res.Matrix.At(0, banana); math.Abs(got-want) > eps {
		t.Errorf("banana weight = %v, want %v", got, want)
	}
	if got := res.Matrix.At(1, banana); got != 0 {
		t.Errorf("banana weight in doc 1 = %v, want 0", got)
	}
}

func TestRawIDFWeights(t *testing.T) {
	ex := newExtractor(t, func(c *Config) {
		c.Norm = NormNone
		c.SmoothIDF = Bool(false)
	})

	res, err := ex.FitTransform([]string{"apple banana", "apple cherry"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	banana, _ := res.Vocabulary.Index("banana")
	want := math.Log(2.0) + 1
	if got := res.Matrix.At(0, banana); math.Abs(got-want) > eps {
		t.Errorf("banana weight = %v, want %v", got, want)
	}
}

func TestSublinearTF(t *testing.T) {
	ex := newExtractor(t, func(c *Config) {
		c.Norm = NormNone
		c.UseIDF = Bool(false)
		c.SublinearTF = true
	})

	res, err := ex.FitTransform([]string{"fee fee fee rate"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	fee, _ := res.Vocabulary.Index("fee")
	rate, _ := res.Vocabulary.Index("rate")
	if got, want := res.Matrix.At(0, fee), 1+math.Log(3); math.Abs(got-want) > eps {
		t.Errorf("fee weight = %v, want %v", got, want)
	}
	if got := res.Matrix.At(0, rate); math.Abs(got-1) > eps {
		t.Errorf("rate weight = %v, want 1", got)
	}
}

func TestL1Norm(t *testing.T) {
	ex := newExtractor(t, func(c *Config) { c.Norm = NormL1 })
	res, err := ex.FitTransform(complaints())
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	for i := 0; i < res.Matrix.Rows(); i++ {
		if n := res.Matrix.RowNorm(i, NormL1); math.Abs(n-1) > eps {
			t.Errorf("row %d l1 norm = %v", i, n)
		}
	}
}

func TestZeroRowStaysZero(t *testing.T) {
	ex := newExtractor(t, nil)
	res, err := ex.FitTransform([]string{"late fee charged", "the and of"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if cols, _ := res.Matrix.Row(1); len(cols) != 0 {
		t.Errorf("stop-word-only document should be a zero row, got %v", cols)
	}
	if n := res.Matrix.RowNorm(1, NormL2); n != 0 {
		t.Errorf("zero row norm = %v", n)
	}
}

func TestFitTransformIdempotent(t *testing.T) {
	docs := complaints()
	mutate := func(c *Config) {
		c.NGramRange = NGramRange{Min: 1, Max: 2}
		c.SublinearTF = true
		c.MinDF = Count(1)
	}

	first, err := newExtractor(t, mutate).FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	second, err := newExtractor(t, mutate).FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	a, b := first.Vocabulary.Terms(), second.Vocabulary.Terms()
	if len(a) != len(b) {
		t.Fatalf("vocabulary sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vocabulary differs at %d: %q vs %q", i, a[i], b[i])
		}
	}
	da, db := first.Matrix.Dense(), second.Matrix.Dense()
	for i := range da {
		for j := range da[i] {
			if da[i][j] != db[i][j] {
				t.Fatalf("weight (%d,%d) differs: %v vs %v", i, j, da[i][j], db[i][j])
			}
		}
	}
}

func TestEmptyVocabulary(t *testing.T) {
	t.Run("only stop words", func(t *testing.T) {
		ex := newExtractor(t, nil)
		_, err := ex.FitTransform([]string{"the and of", "a an"})
		if !errors.Is(err, internalerr.ErrEmptyVocabulary) {
			t.Fatalf("expected ErrEmptyVocabulary, got %v", err)
		}
		var ev *EmptyVocabularyError
		if !errors.As(err, &ev) || !ev.BeforePruning {
			t.Errorf("expected BeforePruning EmptyVocabularyError, got %#v", err)
		}
	})

	t.Run("after pruning", func(t *testing.T) {
		ex := newExtractor(t, func(c *Config) { c.MinDF = Count(3) })
		_, err := ex.FitTransform([]string{"late fee", "late rate", "high rate"})
		var ev *EmptyVocabularyError
		if !errors.As(err, &ev) || ev.BeforePruning {
			t.Fatalf("expected post-pruning EmptyVocabularyError, got %v", err)
		}
		if ev.MinDF != Count(3) {
			t.Errorf("error should carry min_df, got %s", ev.MinDF)
		}
	})
}

func TestFitNoDocuments(t *testing.T) {
	ex := newExtractor(t, nil)
	if _, err := ex.FitTransform(nil); !errors.Is(err, internalerr.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestMaxDFBelowMinDFAtFit(t *testing.T) {
	ex := newExtractor(t, func(c *Config) {
		c.MinDF = Count(3)
		c.MaxDF = Fraction(0.5)
	})
	_, err := ex.FitTransform([]string{"late fee", "late fee", "late fee", "late fee"})
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestTransform(t *testing.T) {
	ex := newExtractor(t, nil)
	if _, err := ex.Transform([]string{"late fee"}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("unfitted Transform should fail, got %v", err)
	}

	docs := complaints()
	res, err := ex.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	m, err := ex.Transform(docs)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	da, db := res.Matrix.Dense(), m.Dense()
	for i := range da {
		for j := range da[i] {
			if da[i][j] != db[i][j] {
				t.Fatalf("Transform differs from FitTransform at (%d,%d)", i, j)
			}
		}
	}

	unseen, err := ex.Transform([]string{"zebra quartz"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if unseen.NNZ() != 0 || unseen.Cols() != res.Vocabulary.Len() {
		t.Errorf("unseen terms should give an empty row of width %d", res.Vocabulary.Len())
	}
}

func TestFitTransformRawLatin1(t *testing.T) {
	ex := newExtractor(t, func(c *Config) { c.Encoding = "latin-1" })

	res, err := ex.FitTransformRaw([][]byte{[]byte("caf\xe9 cr\xe8me"), []byte("caf\xe9 noir")})
	if err != nil {
		t.Fatalf("FitTransformRaw: %v", err)
	}
	if _, ok := res.Vocabulary.Index("café"); !ok {
		t.Errorf("decoded term missing from %v", res.Vocabulary.Terms())
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ngram min zero", func(c *Config) { c.NGramRange = NGramRange{Min: 0, Max: 2} }},
		{"ngram inverted", func(c *Config) { c.NGramRange = NGramRange{Min: 2, Max: 1} }},
		{"max below min", func(c *Config) { c.MinDF, c.MaxDF = Count(5), Count(2) }},
		{"fraction above one", func(c *Config) { c.MinDF = Fraction(1.5) }},
		{"negative count", func(c *Config) { c.MinDF = Count(-1) }},
		{"unknown norm", func(c *Config) { c.Norm = "l3" }},
		{"unknown language", func(c *Config) { c.StopWords = StopWords{Language: "klingon"} }},
		{"unknown encoding", func(c *Config) { c.Encoding = "no-such-charset" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfigYAML(t *testing.T) {
	src := `
sublinear_tf: true
min_df: 5
max_df: 1.0
norm: l2
ngram_range: [1, 2]
stop_words: english
text_encoding: latin-1
`
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(src), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.MinDF != Count(5) || cfg.MinDF.IsFraction() {
		t.Errorf("min_df = %s, want count 5", cfg.MinDF)
	}
	if cfg.MaxDF != Fraction(1.0) {
		t.Errorf("max_df = %s, want fraction 1.0", cfg.MaxDF)
	}
	if cfg.NGramRange != (NGramRange{Min: 1, Max: 2}) {
		t.Errorf("ngram_range = %+v", cfg.NGramRange)
	}
	if cfg.StopWords.Language != "english" || !cfg.SublinearTF || cfg.Encoding != "latin-1" {
		t.Errorf("decoded config = %+v", cfg)
	}
	if !*cfg.UseIDF || !*cfg.Lowercase {
		t.Error("keys absent from YAML should keep their defaults")
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if back.MaxDF != Fraction(1.0) || back.MinDF != Count(5) {
		t.Errorf("thresholds lost their kind: min %s max %s\n%s", back.MinDF, back.MaxDF, out)
	}
}

func TestStopWordsYAML(t *testing.T) {
	var list struct {
		StopWords StopWords `yaml:"stop_words"`
	}
	if err := yaml.Unmarshal([]byte("stop_words: [xxxx, redacted]"), &list); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if list.StopWords.Language != "" || len(list.StopWords.Terms) != 2 {
		t.Errorf("list form = %+v", list.StopWords)
	}

	if err := yaml.Unmarshal([]byte("stop_words: {language: english, terms: [xxxx]}"), &list); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	words, err := list.StopWords.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(words) != len(englishStopWords)+1 || !sort.StringsAreSorted(words) {
		t.Errorf("merged stop words: %d terms", len(words))
	}
}

func TestParseDocFreq(t *testing.T) {
	cases := []struct {
		in   string
		want DocFreq
	}{
		{"5", Count(5)},
		{"0.1", Fraction(0.1)},
		{"1.0", Fraction(1.0)},
	}
	for _, tc := range cases {
		got, err := ParseDocFreq(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseDocFreq(%q) = %s, %v", tc.in, got, err)
		}
	}
	if _, err := ParseDocFreq("often"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestZeroConfigMeansDefaults(t *testing.T) {
	ex, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := ex.FitTransform([]string{"Late fee late", "fee charged", "charged twice"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	want := []string{"charged", "fee", "late", "twice"}
	terms := res.Vocabulary.Terms()
	if len(terms) != len(want) {
		t.Fatalf("vocabulary = %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term %d = %q, want %q", i, terms[i], want[i])
		}
	}

	idf := ex.IDF()
	fee, _ := res.Vocabulary.Index("fee")
	if wantIDF := math.Log(4.0/3.0) + 1; math.Abs(idf[fee]-wantIDF) > eps {
		t.Errorf("idf(fee) = %v, want smoothed %v", idf[fee], wantIDF)
	}

	cfg := ex.Config()
	if !*cfg.Lowercase || !*cfg.UseIDF || !*cfg.SmoothIDF {
		t.Errorf("unset switches should default to true: %+v", cfg)
	}
	if got := res.Matrix.RowNorm(0, NormL2); math.Abs(got-1) > eps {
		t.Errorf("row norm = %v, want 1", got)
	}
}

func TestExplicitFalseSwitchesKept(t *testing.T) {
	ex, err := New(Config{Lowercase: Bool(false), UseIDF: Bool(false)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := ex.FitTransform([]string{"Late late"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if res.Vocabulary.Len() != 2 {
		t.Errorf("case should be kept: %v", res.Vocabulary.Terms())
	}
	for _, w := range ex.IDF() {
		if w != 1 {
			t.Errorf("idf disabled, got weight %v", w)
		}
	}
}
