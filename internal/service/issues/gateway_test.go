package issues

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestGateway_CreateIssue(t *testing.T) {
	tracker := testutil.NewMockTracker()
	g := NewGateway(tracker, "", nil)

	out := g.CreateIssue(context.Background(), "project_key=SCRUM, summary=Login, description=Users log in, parent_key=SCRUM-1")
	assert.Equal(t, "✅ Created issue [SCRUM-1](https://example.atlassian.net/browse/SCRUM-1) in project SCRUM.", out)

	created := tracker.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "Task", created[0].IssueType)
	assert.Equal(t, "SCRUM-1", created[0].ParentKey)
}

func TestGateway_CreateIssue_InvalidProjectMakesNoCall(t *testing.T) {
	tracker := testutil.NewMockTracker()
	g := NewGateway(tracker, "", nil)

	out := g.CreateIssue(context.Background(), "SCRUM1, Login, Users log in")
	assert.Equal(t, "❌ Missing or invalid `project_key`. Please specify a valid JIRA project like `SCRUM`, `CRIC`, etc.", out)
	assert.Empty(t, tracker.Calls())

	out = g.CreateIssue(context.Background(), "SCRUM, Login")
	assert.Equal(t, "❌ Missing required fields: `summary` or `description`.", out)
	assert.Empty(t, tracker.Calls())
}

func TestGateway_CreateIssue_TrackerFailureIsText(t *testing.T) {
	tracker := testutil.NewMockTracker()
	tracker.CreateErr = core.ErrExternal(core.CodeTrackerFailed, "jira returned status 400").WithCause(errors.New("issuetype: invalid"))
	g := NewGateway(tracker, "", nil)

	out := g.CreateIssue(context.Background(), "SCRUM, Login, Users log in, Nope")
	assert.Equal(t, "❌ Failed to create issue: jira returned status 400: issuetype: invalid", out)
}

func TestGateway_CreateIssue_ConfiguredDefaultType(t *testing.T) {
	tracker := testutil.NewMockTracker()
	g := NewGateway(tracker, "Story", nil)
	g.CreateIssue(context.Background(), "SCRUM, Login, Users log in")
	assert.Equal(t, "Story", tracker.Created()[0].IssueType)
}

func TestGateway_EditIssue(t *testing.T) {
	tracker := testutil.NewMockTracker()
	tracker.AddIssue(core.TrackerIssue{Key: "SCRUM-522", Summary: "Story"})
	g := NewGateway(tracker, "", nil)

	out, err := g.EditIssue(context.Background(), "SCRUM-522, parent, SCRUM-525")
	require.NoError(t, err)
	assert.Equal(t, "✅ Updated `parent` of SCRUM-522 to:\n\n{'key': 'SCRUM-525'}", out)
	assert.Equal(t, map[string]any{"parent": map[string]string{"key": "SCRUM-525"}}, tracker.Updates("SCRUM-522"))

	out, err = g.EditIssue(context.Background(), "SCRUM-522, labels=a,b")
	require.NoError(t, err)
	assert.Equal(t, "✅ Updated `labels` of SCRUM-522 to:\n\n['a', 'b']", out)
	assert.Equal(t, []string{"a", "b"}, tracker.Updates("SCRUM-522")["labels"])
}

func TestGateway_EditIssue_Errors(t *testing.T) {
	tracker := testutil.NewMockTracker()
	g := NewGateway(tracker, "", nil)

	_, err := g.EditIssue(context.Background(), "SCRUM-522, labels, a, b")
	assert.True(t, core.IsCategory(err, core.ErrCatFormat))
	assert.Empty(t, tracker.Calls())

	_, err = g.EditIssue(context.Background(), "SCRUM-404, summary, x")
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
	assert.Equal(t, 0, tracker.CallCount("UpdateIssue"))

	tracker.AddIssue(core.TrackerIssue{Key: "SCRUM-1"})
	tracker.UpdateErr = core.ErrExternal(core.CodeTrackerFailed, "jira returned status 400")
	_, err = g.EditIssue(context.Background(), "SCRUM-1, summary, x")
	assert.True(t, core.IsCategory(err, core.ErrCatExternal))
	assert.Equal(t, 1, tracker.CallCount("UpdateIssue"))
}

func TestGateway_SearchIssues(t *testing.T) {
	tracker := testutil.NewMockTracker()
	tracker.SearchFunc = func(string) []core.TrackerIssue {
		return []core.TrackerIssue{
			{Key: "SCRUM-1", Summary: "A", Status: "Done", Assignee: strPtr("Ana"), IssueType: "Task", Priority: strPtr("High")},
			{Key: "SCRUM-2", Summary: "B", Status: "To Do", IssueType: "Bug"},
		}
	}
	g := NewGateway(tracker, "", nil)

	res := g.SearchIssues(context.Background(), " project = SCRUM ")
	assert.Equal(t, "Found 2 issues for query: `project = SCRUM`. Table will appear below.", res.Text)
	assert.Equal(t, core.SearchResultSet{
		{Key: "SCRUM-1", Summary: "A", Status: "Done", Assignee: "Ana", IssueType: "Task", Priority: "High"},
		{Key: "SCRUM-2", Summary: "B", Status: "To Do", Assignee: "Unassigned", IssueType: "Bug", Priority: "None"},
	}, res.Table)
}

func TestGateway_SearchIssues_NoHits(t *testing.T) {
	tracker := testutil.NewMockTracker()
	tracker.SearchFunc = func(string) []core.TrackerIssue { return nil }
	g := NewGateway(tracker, "", nil)

	res := g.SearchIssues(context.Background(), "project = EMPTY")
	assert.Equal(t, "No issues found.", res.Text)
	assert.Nil(t, res.Table)
}

func TestGateway_SearchIssues_Failure(t *testing.T) {
	tracker := testutil.NewMockTracker()
	tracker.SearchErr = core.ErrExternal(core.CodeTrackerFailed, "jira returned status 400").
		WithCause(errors.New("Error in the JQL Query"))
	g := NewGateway(tracker, "", nil)

	res := g.SearchIssues(context.Background(), "project = = X")
	assert.Equal(t, "❌ Error fetching JIRA issues: jira returned status 400: Error in the JQL Query", res.Text)
	assert.Nil(t, res.Table)
}
