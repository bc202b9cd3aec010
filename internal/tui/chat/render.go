package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
)

// SearchResultsHeading precedes a rendered search table.
const SearchResultsHeading = "📊 Search Results"

var (
	userColor   = lipgloss.Color("#f43f5e")
	botColor    = lipgloss.Color("#8b5cf6")
	errorColor  = lipgloss.Color("#ef4444")
	noticeColor = lipgloss.Color("#F59E0B")
	mutedColor  = lipgloss.Color("#6b7280")
	borderColor = lipgloss.Color("#374151")
)

// Renderer turns turns and notices into printable terminal text.
type Renderer struct {
	md    *glamour.TermRenderer
	width int
	color bool
}

// NewRenderer creates a renderer wrapping markdown at width.
func NewRenderer(width int, color bool) *Renderer {
	r := &Renderer{color: color}
	r.SetWidth(width)
	return r
}

// SetWidth rebuilds the markdown renderer for a new terminal width.
func (r *Renderer) SetWidth(width int) {
	if width < 40 {
		width = 80
	}
	if width > 120 {
		width = 120
	}
	r.width = width

	style := styles.NoTTYStyleConfig
	if r.color {
		style = styles.DraculaStyleConfig
		style.Code = ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:           stringPtr("229"),
				BackgroundColor: stringPtr(""),
			},
		}
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		r.md = md
	}
}

func (r *Renderer) style(c lipgloss.Color) lipgloss.Style {
	s := lipgloss.NewStyle()
	if r.color {
		s = s.Foreground(c)
	}
	return s
}

// User renders the user's utterance.
func (r *Renderer) User(text string) string {
	return r.style(userColor).Bold(true).Render("You") + " " + text
}

// Reply renders an assistant turn, with the search table when present.
func (r *Renderer) Reply(res agent.TurnResult) string {
	header := r.style(botColor).Bold(true).Render("Assistant")
	if res.Tool != "" {
		header += " " + r.style(mutedColor).Render("· "+res.Tool)
	}

	var body string
	if res.IsError {
		body = r.style(errorColor).Render(res.Reply)
	} else {
		body = r.Markdown(res.Reply)
	}

	out := header + "\n" + body
	if len(res.Table) > 0 {
		out += "\n\n" + r.style(botColor).Bold(true).Render(SearchResultsHeading) + "\n" + r.Table(res.Table)
	}
	return out
}

// Markdown renders text as terminal markdown, falling back to the raw text.
func (r *Renderer) Markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// Table renders a search result table.
func (r *Renderer) Table(rows core.SearchResultSet) string {
	headerStyle := r.style(botColor).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.style(borderColor)).
		Headers(rows.Headers()...).
		Rows(rows.Records()...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// Notice renders a system notice such as a command result.
func (r *Renderer) Notice(text string) string {
	return r.style(noticeColor).Render(text)
}

// Error renders a local error.
func (r *Renderer) Error(text string) string {
	return r.style(errorColor).Render("❌ " + text)
}

func stringPtr(s string) *string {
	return &s
}
