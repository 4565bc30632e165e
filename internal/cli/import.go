package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/textcat/pkg/textcat/config"
	"github.com/cognicore/textcat/pkg/textcat/records"
	"github.com/cognicore/textcat/pkg/textcat/store/sqlite"
)

var errNoDB = errors.New("--db is required")

func newImportCmd(a *app) *cobra.Command {
	var (
		name     string
		stoplist string
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Stage a source table in the SQLite store",
		Long: `Read a CSV, TSV, XLSX or JSONL file and copy it into the --db store so
later runs can use --table instead of re-parsing the file. An existing table
with the same name is replaced. --stoplist adds the terms of a YAML stoplist
to the stored stop words that every run against this store uses; terms
stored by earlier imports are kept.

Examples:
  textcat import Consumer_Complaints.csv --db textcat.db
  textcat import complaints.xlsx --db textcat.db --name complaints --stoplist stoplist.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Input.SQLite == "" {
				return errNoDB
			}

			path := args[0]
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			t, err := records.OpenFile(path, cfg.FileOptions())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := sqlite.OpenSQLite(ctx, cfg.Input.SQLite)
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Input.SQLite, err)
			}
			defer st.Close()

			if err := st.ImportTable(ctx, name, t); err != nil {
				return fmt.Errorf("import %s: %w", name, err)
			}
			a.logger.Info().Str("table", name).Int("rows", t.Len()).Str("db", cfg.Input.SQLite).Msg("table imported")

			var stops int
			if stoplist != "" {
				sl, err := config.LoadStoplist(stoplist)
				if err != nil {
					return fmt.Errorf("load stoplist: %w", err)
				}
				existing, err := st.Stoplist(ctx)
				if err != nil {
					return fmt.Errorf("read stoplist: %w", err)
				}
				merged := mergeTerms(existing, sl.Terms)
				if err := st.UpsertStoplist(ctx, merged); err != nil {
					return fmt.Errorf("save stoplist: %w", err)
				}
				stops = len(merged) - len(existing)
			}

			w := cmd.OutOrStdout()
			if a.output() == "json" {
				return writeJSON(w, struct {
					Table     string   `json:"table"`
					Columns   []string `json:"columns"`
					Rows      int      `json:"rows"`
					Stopwords int      `json:"stopwords,omitempty"`
				}{name, t.Columns(), t.Len(), stops})
			}
			fmt.Fprintf(w, "imported %d rows into table %q (%d columns)\n", t.Len(), name, len(t.Columns()))
			if stops > 0 {
				fmt.Fprintf(w, "added %d stop words\n", stops)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "table name (default: file name without extension)")
	cmd.Flags().StringVar(&stoplist, "stoplist", "", "YAML stoplist to store alongside the table")
	return cmd
}

// mergeTerms returns the union of a and b, trimmed and without empties.
func mergeTerms(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
