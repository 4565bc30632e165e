package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/textcat/pkg/textcat/stem"
)

func newStemCmd(a *app) *cobra.Command {
	var (
		n         int
		algorithm string
	)

	cmd := &cobra.Command{
		Use:   "stem",
		Short: "Stem the first records as a preview",
		Long: `Rewrite the text of the first N records with every whitespace-separated
token replaced by its stem. The sample is only printed; it is not fed into
the feature extractor.

Examples:
  textcat stem --input Consumer_Complaints.csv -n 5
  textcat stem --input Consumer_Complaints.csv --algorithm snowball-english`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if !cmd.Flags().Changed("count") {
				n = s.cfg.Stem.Sample
			}
			name := s.cfg.Stem.Algorithm
			if cmd.Flags().Changed("algorithm") {
				name = algorithm
			}
			stemmer, err := stem.ByName(name)
			if err != nil {
				return err
			}

			recs, err := s.pipeline.LoadRecords(cmd.Context())
			if err != nil {
				return err
			}
			sample := stem.Sample(recs, n, stemmer)

			w := cmd.OutOrStdout()
			if a.output() == "json" {
				return writeJSON(w, sample)
			}
			for _, r := range sample {
				fmt.Fprintf(w, "%s\t%s\n", r.Label, r.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 5, "number of records to stem")
	cmd.Flags().StringVar(&algorithm, "algorithm", "porter", "stemmer: porter or snowball-<language>")
	return cmd
}
