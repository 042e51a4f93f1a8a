package main

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"steer/internal/types"
)

// Semantic colors
var (
	colorPrimary     = lipgloss.Color("#8BC34A")
	colorDestructive = lipgloss.Color("#e53935")
	colorWarning     = lipgloss.Color("#FFC107")
	colorInfo        = lipgloss.Color("#2196F3")
	colorMuted       = lipgloss.Color("#6b7280")
)

// cliStyles holds the lipgloss styles used by table and status output.
type cliStyles struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	High    lipgloss.Style
	Medium  lipgloss.Style
	Low     lipgloss.Style
}

var styles = cliStyles{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	Bold:    lipgloss.NewStyle().Bold(true),
	Body:    lipgloss.NewStyle(),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorPrimary),
	Error:   lipgloss.NewStyle().Foreground(colorDestructive),
	High:    lipgloss.NewStyle().Bold(true).Foreground(colorDestructive),
	Medium:  lipgloss.NewStyle().Foreground(colorWarning),
	Low:     lipgloss.NewStyle().Foreground(colorInfo),
}

func severityLabel(s types.AntiPatternSeverity) string {
	switch s {
	case types.SeverityHigh:
		return styles.High.Render(s.String())
	case types.SeverityMedium:
		return styles.Medium.Render(s.String())
	default:
		return styles.Low.Render(s.String())
	}
}

// maxCellWidth keeps evidence and messages from blowing out the table.
const maxCellWidth = 60

// simpleTable renders static rows with aligned columns.
type simpleTable struct {
	title   string
	headers []string
	rows    [][]string
}

func newSimpleTable(title string, headers []string) *simpleTable {
	return &simpleTable{title: title, headers: headers}
}

// AddRow adds a row to the table.
func (t *simpleTable) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// View renders the table.
func (t *simpleTable) View() string {
	if len(t.rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(styles.Title.Render(t.title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := lipgloss.Width(shorten(cell, maxCellWidth)); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	headerStyle := styles.Bold.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	for i, h := range t.headers {
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
		if i < len(t.headers)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	total := 0
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total+len(widths)-1)))
	sb.WriteString("\n")

	for _, row := range t.rows {
		for i := range t.headers {
			cell := ""
			if i < len(row) {
				cell = shorten(row[i], maxCellWidth)
			}
			sb.WriteString(rowStyle.Width(widths[i]).Render(cell))
			if i < len(t.headers)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// shorten truncates s to n display columns with an ellipsis.
func shorten(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}

// renderMarkdown renders the prompt for a terminal, falling back to the raw
// text when glamour cannot build a renderer.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logger.Sugar().Debugf("glamour unavailable: %v", err)
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		logger.Sugar().Debugf("glamour render failed: %v", err)
		return md
	}
	return out
}
