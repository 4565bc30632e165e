package distribution

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/fatih/color"
)

// TextOptions configures RenderText.
type TextOptions struct {
	Width      int  // bar width for the largest count; 40 when zero
	LabelWidth int  // labels are cut to this many runes; 40 when zero
	Color      bool // colour bars with ANSI escapes
}

// RenderText writes a horizontal bar chart, one line per category.
func RenderText(w io.Writer, s Summary, opts TextOptions) error {
	if opts.Width <= 0 {
		opts.Width = 40
	}
	if opts.LabelWidth <= 0 {
		opts.LabelWidth = 40
	}

	bar := color.New(color.FgCyan)
	if opts.Color {
		bar.EnableColor()
	} else {
		bar.DisableColor()
	}

	labelWidth := 0
	for _, e := range s.Entries {
		if n := utf8.RuneCountInString(truncate(e.Label, opts.LabelWidth)); n > labelWidth {
			labelWidth = n
		}
	}

	maxCount := s.Max()
	for _, e := range s.Entries {
		label := truncate(e.Label, opts.LabelWidth)
		pad := strings.Repeat(" ", labelWidth-utf8.RuneCountInString(label))

		n := 0
		if maxCount > 0 {
			n = e.Count * opts.Width / maxCount
		}
		if n == 0 && e.Count > 0 {
			n = 1
		}

		if _, err := fmt.Fprintf(w, "%s%s | %s %d\n", label, pad, bar.Sprint(strings.Repeat("█", n)), e.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s | total %d\n", strings.Repeat(" ", labelWidth), s.Total)
	return err
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// SVGOptions configures RenderSVG.
type SVGOptions struct {
	Width  int // 800 when zero
	Height int // 480 when zero
	Title  string
}

type svgBar struct {
	X, Y, W, H   float64
	LabelX       float64
	Label, Count string
}

type svgData struct {
	Width, Height int
	Title         string
	AxisY         float64
	Left, Right   float64
	Bars          []svgBar
}

var svgTmpl = template.Must(template.New("bar").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" font-family="sans-serif" font-size="11">
{{- if .Title}}
<text x="{{.Left}}" y="20" font-size="14">{{.Title}}</text>
{{- end}}
<line x1="{{.Left}}" y1="{{.AxisY}}" x2="{{.Right}}" y2="{{.AxisY}}" stroke="#333"/>
{{- range .Bars}}
<rect x="{{printf "%.1f" .X}}" y="{{printf "%.1f" .Y}}" width="{{printf "%.1f" .W}}" height="{{printf "%.1f" .H}}" fill="#1f77b4"><title>{{.Label}}: {{.Count}}</title></rect>
<text x="{{printf "%.1f" .LabelX}}" y="{{printf "%.1f" .Y}}" dy="-3" text-anchor="middle">{{.Count}}</text>
<text transform="translate({{printf "%.1f" .LabelX}},{{printf "%.1f" $.AxisY}}) rotate(60)" dx="4" dy="4">{{.Label}}</text>
{{- end}}
</svg>
`))

// RenderSVG writes a vertical bar chart: categories along the x axis in id
// order, record counts on the y axis.
func RenderSVG(w io.Writer, s Summary, opts SVGOptions) error {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}

	const (
		marginLeft   = 40.0
		marginRight  = 20.0
		marginTop    = 40.0
		marginBottom = 160.0
	)
	plotW := float64(opts.Width) - marginLeft - marginRight
	plotH := float64(opts.Height) - marginTop - marginBottom
	axisY := marginTop + plotH

	data := svgData{
		Width:  opts.Width,
		Height: opts.Height,
		Title:  html.EscapeString(opts.Title),
		AxisY:  axisY,
		Left:   marginLeft,
		Right:  marginLeft + plotW,
	}

	if n := len(s.Entries); n > 0 && plotW > 0 && plotH > 0 {
		slot := plotW / float64(n)
		maxCount := float64(s.Max())
		for i, e := range s.Entries {
			h := 0.0
			if maxCount > 0 {
				h = float64(e.Count) / maxCount * plotH
			}
			x := marginLeft + float64(i)*slot + slot*0.1
			data.Bars = append(data.Bars, svgBar{
				X:      x,
				Y:      axisY - h,
				W:      slot * 0.8,
				H:      h,
				LabelX: x + slot*0.4,
				Label:  html.EscapeString(e.Label),
				Count:  fmt.Sprint(e.Count),
			})
		}
	}

	return svgTmpl.Execute(w, data)
}
