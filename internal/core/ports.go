package core

import (
	"context"
	"time"
)

// =============================================================================
// Completer Port (LLM boundary)
// =============================================================================

// CompletionRequest is one blocking completion call.
type CompletionRequest struct {
	// System is the system prompt (may be empty).
	System string

	// Messages is the conversation, oldest first. The last message is the
	// one the model answers.
	Messages []Message

	// MaxTokens overrides the configured output limit when > 0.
	MaxTokens int
}

// Completer sends text to a hosted LLM and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// =============================================================================
// Reasoner Port (tool selection)
// =============================================================================

// ActionKind tags an Action.
type ActionKind string

const (
	ActionAnswer ActionKind = "answer"
	ActionInvoke ActionKind = "tool"
)

// Action is the reasoner's decision for one utterance: either a direct
// answer or exactly one tool invocation with a single string argument.
type Action struct {
	Kind  ActionKind
	Text  string // ActionAnswer
	Tool  string // ActionInvoke
	Input string // ActionInvoke
}

// Answer builds an answer action.
func Answer(text string) Action {
	return Action{Kind: ActionAnswer, Text: text}
}

// Invoke builds a tool invocation action.
func Invoke(tool, input string) Action {
	return Action{Kind: ActionInvoke, Tool: tool, Input: input}
}

// Reasoner chooses what to do with a user utterance given prior history.
type Reasoner interface {
	ChooseAction(ctx context.Context, utterance string, history []Message) (Action, error)
}

// =============================================================================
// Tool results
// =============================================================================

// SearchResultRow is one row of a search result table.
type SearchResultRow struct {
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	Status    string `json:"status"`
	Assignee  string `json:"assignee"`
	IssueType string `json:"type"`
	Priority  string `json:"priority"`
}

// SearchResultSet is an ordered search result table.
type SearchResultSet []SearchResultRow

// Headers returns the display column names in row order.
func (SearchResultSet) Headers() []string {
	return []string{"Key", "Summary", "Status", "Assignee", "Type", "Priority"}
}

// Records returns the rows as string slices matching Headers.
func (s SearchResultSet) Records() [][]string {
	out := make([][]string, 0, len(s))
	for _, r := range s {
		out = append(out, []string{r.Key, r.Summary, r.Status, r.Assignee, r.IssueType, r.Priority})
	}
	return out
}

// ToolResult is what a tool hands back to the dispatcher for one turn.
type ToolResult struct {
	Text  string
	Table SearchResultSet // nil unless a search produced rows
}

// =============================================================================
// TurnRecorder Port (history)
// =============================================================================

// TurnRecord is the persisted summary of one completed turn.
type TurnRecord struct {
	SessionID string
	Seq       int
	Utterance string
	Reply     string
	Tool      string // empty for direct answers
	IsError   bool
	RowCount  int
	CreatedAt time.Time
}

// TurnRecorder persists completed turns.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
}
