package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/textcat/pkg/textcat/store/sqlite"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs recorded in the store",
		Long: `Show the runs recorded in the --db store, newest first, with their record,
category and vocabulary counts.

Examples:
  textcat runs --db textcat.db
  textcat runs --db textcat.db --limit 5 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Input.SQLite == "" {
				return errNoDB
			}

			ctx := cmd.Context()
			st, err := sqlite.OpenSQLite(ctx, cfg.Input.SQLite)
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Input.SQLite, err)
			}
			defer st.Close()

			runs, err := st.Runs(ctx, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if a.output() == "json" {
				type runJSON struct {
					ID         string         `json:"id"`
					Source     string         `json:"source"`
					StartedAt  time.Time      `json:"started_at"`
					Records    int            `json:"records"`
					Categories int            `json:"categories"`
					Terms      int            `json:"terms"`
					Counts     map[string]int `json:"counts"`
				}
				out := make([]runJSON, 0, len(runs))
				for _, r := range runs {
					out = append(out, runJSON(r))
				}
				return writeJSON(w, out)
			}

			if len(runs) == 0 {
				fmt.Fprintln(w, "no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  %s  records=%d categories=%d terms=%d\n",
					r.ID, r.StartedAt.Local().Format(time.RFC3339), r.Source, r.Records, r.Categories, r.Terms)
				labels := make([]string, 0, len(r.Counts))
				for l := range r.Counts {
					labels = append(labels, l)
				}
				sort.Strings(labels)
				for _, l := range labels {
					fmt.Fprintf(w, "    %-40s %d\n", l, r.Counts[l])
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
