package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
)

// FallbackOutput prints turns without the interactive chat, for one-shot
// commands and for pipes.
type FallbackOutput struct {
	mu     sync.Mutex
	writer io.Writer
	json   bool
}

// NewFallbackOutput creates a printer for mode. ModeTUI prints as plain.
func NewFallbackOutput(mode OutputMode) *FallbackOutput {
	return &FallbackOutput{writer: os.Stdout, json: mode == ModeJSON}
}

// WithWriter sets a custom writer.
func (f *FallbackOutput) WithWriter(w io.Writer) *FallbackOutput {
	f.writer = w
	return f
}

// turnJSON is the JSON shape of one turn.
type turnJSON struct {
	Seq     int                    `json:"seq,omitempty"`
	Reply   string                 `json:"reply"`
	Tool    string                 `json:"tool,omitempty"`
	IsError bool                   `json:"is_error"`
	Table   []core.SearchResultRow `json:"table,omitempty"`
}

// Turn prints one turn result.
func (f *FallbackOutput) Turn(res agent.TurnResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.json {
		return json.NewEncoder(f.writer).Encode(turnJSON{
			Seq:     res.Seq,
			Reply:   res.Reply,
			Tool:    res.Tool,
			IsError: res.IsError,
			Table:   res.Table,
		})
	}

	if _, err := fmt.Fprintln(f.writer, res.Reply); err != nil {
		return err
	}
	if len(res.Table) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(f.writer, "\n📊 Search Results\n%s\n", PlainTable(res.Table))
	return err
}

// Text prints a tool result that did not go through the dispatcher.
func (f *FallbackOutput) Text(result core.ToolResult) error {
	return f.Turn(agent.TurnResult{Reply: result.Text, Table: result.Table})
}

// PlainTable renders rows with an ASCII border and no color.
func PlainTable(rows core.SearchResultSet) string {
	return table.New().
		Border(lipgloss.ASCIIBorder()).
		Headers(rows.Headers()...).
		Rows(rows.Records()...).
		StyleFunc(func(_, _ int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
