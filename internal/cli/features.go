package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/textcat/pkg/textcat/records"
)

func newFeaturesCmd(a *app) *cobra.Command {
	var (
		top        int
		showPruned bool
	)

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Build the TF-IDF matrix and describe it",
		Long: `Fit the TF-IDF vocabulary over the complaint narratives and print the
matrix shape, the first vocabulary terms and, on request, the pruned terms.

Examples:
  textcat features --input Consumer_Complaints.csv --top 30
  textcat features --input Consumer_Complaints.csv --min-df 5 --ngram 1,2 --show-pruned`,
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

			recs, err := s.pipeline.LoadRecords(cmd.Context())
			if err != nil {
				return err
			}
			res, err := s.comp.Extractor.FitTransform(records.Texts(recs))
			if err != nil {
				return fmt.Errorf("features: %w", err)
			}

			summary := summarizeFeatures(res, top)
			w := cmd.OutOrStdout()
			if a.output() == "json" {
				out := struct {
					featureSummary
					PrunedTerms []string `json:"pruned_terms,omitempty"`
				}{featureSummary: summary}
				if showPruned {
					out.PrunedTerms = res.Pruned
				}
				return writeJSON(w, out)
			}

			fmt.Fprintf(w, "matrix %dx%d, nnz %d, min_df %s, max_df %s\n",
				summary.Rows, summary.Cols, summary.NNZ, s.cfg.Features.MinDF, s.cfg.Features.MaxDF)
			fmt.Fprintf(w, "vocabulary (%d terms): %s\n", summary.Cols, strings.Join(summary.Vocabulary, ", "))
			fmt.Fprintf(w, "pruned %d terms\n", summary.Pruned)
			if showPruned {
				for _, t := range res.Pruned {
					fmt.Fprintf(w, "  %s\n", t)
				}
			}
			return nil
		},
	}

	addFeatureFlags(cmd)
	cmd.Flags().IntVar(&top, "top", 20, "vocabulary terms to list")
	cmd.Flags().BoolVar(&showPruned, "show-pruned", false, "list terms removed by the df thresholds")
	return cmd
}
