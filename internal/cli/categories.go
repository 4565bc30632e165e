package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/textcat/pkg/textcat/categories"
)

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the category index (label <-> id)",
		Long: `Assign dense ids to category labels in first-seen order and print both
lookup directions.

Examples:
  textcat categories --input Consumer_Complaints.csv
  textcat categories --input complaints.jsonl --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.pipeline.LoadRecords(cmd.Context())
			if err != nil {
				return err
			}
			idx := categories.Build(recs)

			w := cmd.OutOrStdout()
			if a.output() == "json" {
				return writeJSON(w, struct {
					CategoryToID map[string]int `json:"category_to_id"`
					IDToCategory map[int]string `json:"id_to_category"`
				}{idx.CategoryToID(), idx.IDToCategory()})
			}
			for id, label := range idx.Labels() {
				fmt.Fprintf(w, "%d\t%s\n", id, label)
			}
			return nil
		},
	}
}
