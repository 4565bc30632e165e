package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/textcat/pkg/textcat"
	"github.com/cognicore/textcat/pkg/textcat/config"
	"github.com/cognicore/textcat/pkg/textcat/distribution"
	"github.com/cognicore/textcat/pkg/textcat/features"
	"github.com/cognicore/textcat/pkg/textcat/records"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline and print a summary",
		Long: `Load records, index categories, summarise the distribution, build the
TF-IDF matrix and stem a preview sample, stopping at the first error.

Examples:
  textcat run --input Consumer_Complaints.csv
  textcat run --config textcat.yaml --output json
  textcat run --db textcat.db --table complaints --min-df 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := applyFeatureFlags(cmd, cfg); err != nil {
				return err
			}
			s, err := a.openSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			logPreview(a.logger, res.Records, cfg.Input.Preview)

			if a.output() == "json" {
				return writeJSON(cmd.OutOrStdout(), summarizeRun(res))
			}
			return printRun(cmd.OutOrStdout(), res, cfg)
		},
	}
	addFeatureFlags(cmd)
	return cmd
}

type featureSummary struct {
	Rows       int      `json:"rows"`
	Cols       int      `json:"cols"`
	NNZ        int      `json:"nnz"`
	Pruned     int      `json:"pruned"`
	Vocabulary []string `json:"vocabulary,omitempty"`
}

type runSummary struct {
	RunID         string               `json:"run_id"`
	Source        string               `json:"source"`
	Records       int                  `json:"records"`
	CategoryToID  map[string]int       `json:"category_to_id"`
	Distribution  distribution.Summary `json:"distribution"`
	Features      featureSummary       `json:"features"`
	StemmedSample []records.Record     `json:"stemmed_sample,omitempty"`
}

func summarizeRun(res *textcat.Result) runSummary {
	return runSummary{
		RunID:         res.RunID,
		Source:        res.Source,
		Records:       len(res.Records),
		CategoryToID:  res.Index.CategoryToID(),
		Distribution:  res.Distribution,
		Features:      summarizeFeatures(res.Features, 0),
		StemmedSample: res.StemmedSample,
	}
}

func summarizeFeatures(r *features.Result, top int) featureSummary {
	fs := featureSummary{
		Rows:   r.Matrix.Rows(),
		Cols:   r.Matrix.Cols(),
		NNZ:    r.Matrix.NNZ(),
		Pruned: len(r.Pruned),
	}
	if top > 0 {
		terms := r.Vocabulary.Terms()
		if len(terms) > top {
			terms = terms[:top]
		}
		fs.Vocabulary = terms
	}
	return fs
}

func printRun(w io.Writer, res *textcat.Result, cfg *config.Config) error {
	fmt.Fprintf(w, "run %s\nsource %s\n", res.RunID, res.Source)
	fmt.Fprintf(w, "records %d, categories %d, features %dx%d (nnz %d, pruned %d)\n\n",
		len(res.Records), res.Index.Len(),
		res.Features.Matrix.Rows(), res.Features.Matrix.Cols(), res.Features.Matrix.NNZ(), len(res.Features.Pruned))

	if err := distribution.RenderText(w, res.Distribution, distribution.TextOptions{
		Width: cfg.Report.Width,
		Color: cfg.Report.Color,
	}); err != nil {
		return err
	}

	if len(res.StemmedSample) > 0 {
		fmt.Fprintln(w, "\nstemmed sample:")
		for _, r := range res.StemmedSample {
			fmt.Fprintf(w, "  [%s] %s\n", r.Label, truncateText(r.Text, 100))
		}
	}
	return nil
}

func addFeatureFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("min-df", "", "minimum document frequency: count (5) or fraction (0.1)")
	f.String("max-df", "", "maximum document frequency: count or fraction")
	f.Int("max-features", 0, "keep only the most frequent terms")
	f.String("ngram", "", "n-gram range as MIN,MAX (e.g. 1,2)")
}

// applyFeatureFlags copies explicitly set feature flags into cfg.
func applyFeatureFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("min-df") {
		s, _ := f.GetString("min-df")
		d, err := features.ParseDocFreq(s)
		if err != nil {
			return err
		}
		cfg.Features.MinDF = d
	}
	if f.Changed("max-df") {
		s, _ := f.GetString("max-df")
		d, err := features.ParseDocFreq(s)
		if err != nil {
			return err
		}
		cfg.Features.MaxDF = d
	}
	if f.Changed("max-features") {
		n, _ := f.GetInt("max-features")
		cfg.Features.MaxFeatures = n
	}
	if f.Changed("ngram") {
		s, _ := f.GetString("ngram")
		r, err := parseNGram(s)
		if err != nil {
			return err
		}
		cfg.Features.NGramRange = r
	}
	return nil
}

func parseNGram(s string) (features.NGramRange, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return features.NGramRange{}, fmt.Errorf("--ngram wants MIN,MAX, got %q", s)
	}
	lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return features.NGramRange{}, fmt.Errorf("--ngram wants MIN,MAX, got %q", s)
	}
	return features.NGramRange{Min: lo, Max: hi}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
