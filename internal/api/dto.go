package api

import (
	"time"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
)

// TurnRequest is the body of POST /api/v1/sessions/{id}/turns.
type TurnRequest struct {
	Message string `json:"message"`
}

// TurnResponse is one completed turn.
type TurnResponse struct {
	Seq        int                    `json:"seq"`
	Reply      string                 `json:"reply"`
	Tool       string                 `json:"tool,omitempty"`
	IsError    bool                   `json:"is_error"`
	Table      []core.SearchResultRow `json:"table,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	State        string         `json:"state"`
	MessageCount int            `json:"message_count"`
	Messages     []core.Message `json:"messages,omitempty"`
}

// ToolResponse describes a tool.
type ToolResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toTurnResponse(res agent.TurnResult) TurnResponse {
	return TurnResponse{
		Seq:        res.Seq,
		Reply:      res.Reply,
		Tool:       res.Tool,
		IsError:    res.IsError,
		Table:      res.Table,
		DurationMS: res.Duration.Milliseconds(),
	}
}

// MetricsResponse is the body of GET /api/v1/metrics.
type MetricsResponse struct {
	Turns service.TurnMetrics   `json:"turns"`
	Tools []service.ToolMetrics `json:"tools"`
}
