package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/textcat/pkg/textcat/categories"
	"github.com/cognicore/textcat/pkg/textcat/config"
	"github.com/cognicore/textcat/pkg/textcat/distribution"
)

func newDistributionCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
		width  int
		color  bool
	)

	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Chart the number of records per category",
		Long: `Count records per category and render the counts as a text bar chart,
JSON, or an SVG bar chart with categories along the x axis.

Examples:
  textcat distribution --input Consumer_Complaints.csv
  textcat distribution --input Consumer_Complaints.csv --format svg --out products.svg`,
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
			idx, labeled := categories.Factorize(recs)
			summary := distribution.Summarize(labeled, idx)

			report := s.cfg.Report
			if cmd.Flags().Changed("format") {
				report.Format = format
			} else if a.output() == "json" {
				report.Format = "json"
			}
			if cmd.Flags().Changed("width") {
				report.Width = width
			}
			if cmd.Flags().Changed("color") {
				report.Color = color
			}

			if out == "" {
				return renderDistribution(cmd.OutOrStdout(), summary, report)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := renderDistribution(f, summary, report); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "chart format (text, json, svg)")
	cmd.Flags().StringVar(&out, "out", "", "write the chart to a file instead of stdout")
	cmd.Flags().IntVar(&width, "width", 0, "chart width: characters for text, pixels for svg (0 = default)")
	cmd.Flags().BoolVar(&color, "color", false, "colour the text bars")
	return cmd
}

func renderDistribution(w io.Writer, summary distribution.Summary, report config.Report) error {
	switch strings.ToLower(report.Format) {
	case "json":
		return distribution.WriteJSON(w, summary)
	case "svg":
		return distribution.RenderSVG(w, summary, distribution.SVGOptions{
			Width:  report.Width,
			Height: report.Height,
			Title:  report.Title,
		})
	case "", "text":
		return distribution.RenderText(w, summary, distribution.TextOptions{Width: report.Width, Color: report.Color})
	}
	return fmt.Errorf("unknown format %q (want text, json or svg)", report.Format)
}
