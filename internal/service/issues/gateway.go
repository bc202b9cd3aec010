package issues

import (
	"context"
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
)

const (
	msgNoIssues         = "No issues found."
	unassignedLabel     = "Unassigned"
	noPriorityLabel     = "None"
	searchErrorPrefix   = "❌ Error fetching JIRA issues: "
	createFailurePrefix = "❌ Failed to create issue: "
)

// Gateway runs create, edit and search against the tracker and renders the
// outcome as user-facing text.
type Gateway struct {
	tracker          core.TrackerClient
	defaultIssueType string
	logger           *logging.Logger
}

// NewGateway creates a gateway. defaultIssueType is used when a create
// request names none ("Task" when empty).
func NewGateway(tracker core.TrackerClient, defaultIssueType string, logger *logging.Logger) *Gateway {
	if defaultIssueType == "" {
		defaultIssueType = core.DefaultIssueType
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gateway{tracker: tracker, defaultIssueType: defaultIssueType, logger: logger}
}

// CreateIssue parses raw, validates it and creates the issue. Every outcome,
// including tracker failures, is returned as text.
func (g *Gateway) CreateIssue(ctx context.Context, raw string) string {
	req := ParseCreate(raw, g.defaultIssueType)
	if err := req.Validate(); err != nil {
		return core.UserMessage(err)
	}

	created, err := g.tracker.CreateIssue(ctx, req)
	if err != nil {
		g.logger.Warn("create issue failed", "project", req.ProjectKey, "error", err)
		return createFailurePrefix + core.UserMessage(err)
	}
	return fmt.Sprintf("✅ Created issue [%s](%s) in project %s.", created.Key, created.URL, req.ProjectKey)
}

// EditIssue parses raw, normalizes the value, checks the issue exists and
// updates the single field. Format and tracker failures are returned as
// errors.
func (g *Gateway) EditIssue(ctx context.Context, raw string) (string, error) {
	req, err := ParseEdit(raw)
	if err != nil {
		return "", err
	}

	if _, err := g.tracker.GetIssue(ctx, req.IssueKey); err != nil {
		return "", err
	}
	if err := g.tracker.UpdateIssue(ctx, req.IssueKey, map[string]any{req.Field: req.Value.Payload()}); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Updated `%s` of %s to:\n\n%s", req.Field, req.IssueKey, req.Value), nil
}

// SearchIssues runs a JQL query. Hits come back as a table alongside the
// summary text; zero hits and failures carry no table.
func (g *Gateway) SearchIssues(ctx context.Context, jql string) core.ToolResult {
	jql = strings.TrimSpace(jql)
	issues, err := g.tracker.SearchIssues(ctx, jql)
	if err != nil {
		g.logger.Warn("search failed", "jql", jql, "error", err)
		return core.ToolResult{Text: searchErrorPrefix + core.UserMessage(err)}
	}
	if len(issues) == 0 {
		return core.ToolResult{Text: msgNoIssues}
	}

	rows := make(core.SearchResultSet, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, toRow(is))
	}
	return core.ToolResult{
		Text:  fmt.Sprintf("Found %d issues for query: `%s`. Table will appear below.", len(rows), jql),
		Table: rows,
	}
}

func toRow(is core.TrackerIssue) core.SearchResultRow {
	row := core.SearchResultRow{
		Key:       is.Key,
		Summary:   is.Summary,
		Status:    is.Status,
		Assignee:  unassignedLabel,
		IssueType: is.IssueType,
		Priority:  noPriorityLabel,
	}
	if is.Assignee != nil {
		row.Assignee = *is.Assignee
	}
	if is.Priority != nil {
		row.Priority = *is.Priority
	}
	return row
}
