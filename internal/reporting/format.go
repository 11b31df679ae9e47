// Package reporting renders round results, league tables, fairness reports
// and analytics as plain text, markdown or HTML.
package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every accepted format name.
var Formats = []Format{FormatText, FormatMarkdown, FormatHTML}

// ParseFormat resolves a format name. "md" is accepted for markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, markdown or html)", name)
	}
}

var printer = message.NewPrinter(language.English)

// document accumulates a report. HTML documents are written as markdown and
// converted at the end.
type document struct {
	format Format
	b      strings.Builder
}

func newDocument(f Format) *document {
	return &document{format: f}
}

func (d *document) markdown() bool {
	return d.format != FormatText
}

func (d *document) heading(level int, title string) {
	if d.b.Len() > 0 {
		d.b.WriteString("\n")
	}
	if d.markdown() {
		fmt.Fprintf(&d.b, "%s %s\n\n", strings.Repeat("#", level+1), title)
		return
	}
	underline := "="
	if level > 1 {
		underline = "-"
	}
	fmt.Fprintf(&d.b, "%s\n%s\n", title, strings.Repeat(underline, runewidth.StringWidth(title)))
}

func (d *document) line(format string, args ...any) {
	d.b.WriteString(printer.Sprintf(format, args...))
	d.b.WriteString("\n")
	if d.markdown() {
		// markdown needs a blank line to keep lines apart
		d.b.WriteString("\n")
	}
}

func (d *document) field(label, value string) {
	if d.markdown() {
		d.line("- **%s:** %s", label, value)
		return
	}
	d.line("%-12s %s", label+":", value)
}

func (d *document) bullets(items []string) {
	for _, it := range items {
		d.b.WriteString("- ")
		d.b.WriteString(it)
		d.b.WriteString("\n")
	}
	if d.markdown() && len(items) > 0 {
		d.b.WriteString("\n")
	}
}

func (d *document) table(headers []string, rows [][]string) {
	if d.markdown() {
		d.b.WriteString("| " + strings.Join(escapeCells(headers), " | ") + " |\n")
		d.b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
		for _, row := range rows {
			d.b.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
		}
		d.b.WriteString("\n")
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	d.writeRow(headers, widths)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	d.writeRow(sep, widths)
	for _, row := range rows {
		d.writeRow(row, widths)
	}
}

func (d *document) writeRow(cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = padRight(c, widths[i])
	}
	d.b.WriteString(strings.TrimRight(strings.Join(padded, "  "), " "))
	d.b.WriteString("\n")
}

func (d *document) strong(s string) string {
	if d.markdown() {
		return "**" + s + "**"
	}
	return s
}

func (d *document) render() (string, error) {
	if d.format != FormatHTML {
		return d.b.String(), nil
	}
	return RenderHTML(d.b.String())
}

// RenderHTML converts markdown (with GFM tables) into an HTML fragment.
func RenderHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return buf.String(), nil
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

func number(n int) string {
	return printer.Sprintf("%d", n)
}

func decimal(v float64, places int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", places), v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
