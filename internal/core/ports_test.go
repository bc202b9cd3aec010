package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionConstructors(t *testing.T) {
	a := Answer("hi")
	assert.Equal(t, ActionAnswer, a.Kind)
	assert.Equal(t, "hi", a.Text)

	inv := Invoke("search_issues", "project = SCRUM")
	assert.Equal(t, ActionInvoke, inv.Kind)
	assert.Equal(t, "search_issues", inv.Tool)
	assert.Equal(t, "project = SCRUM", inv.Input)
}

func TestSearchResultSet_Records(t *testing.T) {
	set := SearchResultSet{
		{Key: "SCRUM-1", Summary: "Login", Status: "To Do", Assignee: "Unassigned", IssueType: "Task", Priority: "None"},
	}
	assert.Len(t, set.Headers(), 6)
	assert.Equal(t, [][]string{{"SCRUM-1", "Login", "To Do", "Unassigned", "Task", "None"}}, set.Records())
	assert.Empty(t, SearchResultSet(nil).Records())
}
