package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables
var (
	Version = "dev"
	Commit  = "unknown"
)

// app carries per-invocation settings so commands can be built fresh in tests.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger
}

// NewRootCmd builds the textcat command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "textcat",
		Short: "Category indexing and TF-IDF features for complaint text",
		Long: `textcat loads a consumer complaints table, keeps the product label and the
complaint narrative, assigns category ids in first-seen order, reports the
class distribution and builds a TF-IDF matrix over unigrams and bigrams.

Settings come from a YAML file (--config), flags, and TEXTCAT_* environment
variables, in increasing order of precedence for the flags that exist.`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogging(cmd.ErrOrStderr())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "pipeline config file (YAML)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error, disabled)")
	pf.String("output", "text", "output format (text, json)")
	pf.String("input", "", "source file (.csv, .tsv, .xlsx, .jsonl)")
	pf.String("db", "", "SQLite file for staged tables, stop words and run history")
	pf.String("table", "", "staged table to read from --db instead of --input")
	pf.String("encoding", "", "source text encoding (default from config: latin-1)")
	pf.String("label-column", "", "category label column")
	pf.String("text-column", "", "free-text column")

	for _, name := range []string{"config", "log-level", "output", "input", "db", "table", "encoding", "label-column", "text-column"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}
	a.v.SetEnvPrefix("TEXTCAT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(
		newRunCmd(a),
		newCategoriesCmd(a),
		newDistributionCmd(a),
		newFeaturesCmd(a),
		newStemCmd(a),
		newImportCmd(a),
		newRunsCmd(a),
	)
	return rootCmd
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// initLogging configures the command logger on stderr and points the
// global logger used by the readers at it.
func (a *app) initLogging(w io.Writer) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := parseLevel(a.v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = a.logger
	return nil
}

func parseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

func (a *app) output() string {
	return strings.ToLower(a.v.GetString("output"))
}
