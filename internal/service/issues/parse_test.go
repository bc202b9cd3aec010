package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

func TestParseCreate_EncodingsAgree(t *testing.T) {
	kv := ParseCreate("project_key=SCRUM, summary=Login page, description=Users can log in, issue_type=Story", "")
	pos := ParseCreate("SCRUM, Login page, Users can log in, Story", "")
	assert.Equal(t, kv, pos)
	assert.Equal(t, core.IssueCreateRequest{
		ProjectKey: "SCRUM", Summary: "Login page", Description: "Users can log in", IssueType: "Story",
	}, kv)
}

func TestParseCreate_KeyValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want core.IssueCreateRequest
	}{
		{
			name: "defaults issue type",
			raw:  "project_key=SCRUM, summary=S, description=D",
			want: core.IssueCreateRequest{ProjectKey: "SCRUM", Summary: "S", Description: "D", IssueType: "Task"},
		},
		{
			name: "parent",
			raw:  "project_key=SCRUM,summary=S,description=D,parent_key=SCRUM-9",
			want: core.IssueCreateRequest{ProjectKey: "SCRUM", Summary: "S", Description: "D", IssueType: "Task", ParentKey: "SCRUM-9"},
		},
		{
			name: "later duplicate wins and junk ignored",
			raw:  "please: project_key=OLD, project_key=NEW, summary=S, description=D, color=red",
			want: core.IssueCreateRequest{ProjectKey: "NEW", Summary: "S", Description: "D", IssueType: "Task"},
		},
		{
			name: "missing fields stay empty",
			raw:  "project_key=SCRUM",
			want: core.IssueCreateRequest{ProjectKey: "SCRUM", IssueType: "Task"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCreate(tt.raw, ""))
		})
	}
}

func TestParseCreate_Positional(t *testing.T) {
	assert.Equal(t,
		core.IssueCreateRequest{ProjectKey: "SCRUM", Summary: "S", Description: "D", IssueType: "Bug"},
		ParseCreate(" SCRUM ,S, D ,Bug", ""))
	assert.Equal(t,
		core.IssueCreateRequest{ProjectKey: "SCRUM", Summary: "S", IssueType: "Task"},
		ParseCreate("SCRUM, S", ""))
	assert.Equal(t,
		core.IssueCreateRequest{ProjectKey: "SCRUM", Summary: "S", Description: "D", IssueType: "Improvement"},
		ParseCreate("SCRUM, S, D, ", "Improvement"))
}

func TestParseCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		raw  string
		code string
	}{
		{"SCRUM1, S, D", core.CodeInvalidProjectKey},
		{"project_key=SC-RUM, summary=S, description=D", core.CodeInvalidProjectKey},
		{", S, D", core.CodeInvalidProjectKey},
		{"SCRUM, S", core.CodeMissingFields},
		{"project_key=SCRUM, description=D", core.CodeMissingFields},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := ParseCreate(tt.raw, "").Validate()
			var de *core.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestParseEdit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want core.IssueEditRequest
	}{
		{
			name: "parent positional",
			raw:  "SCRUM-522, parent, SCRUM-525",
			want: core.IssueEditRequest{IssueKey: "SCRUM-522", Field: "parent",
				Value: core.FieldValue{Kind: core.FieldParent, ParentKey: "SCRUM-525"}},
		},
		{
			name: "parent assignment",
			raw:  "SCRUM-522, parent=SCRUM-525",
			want: core.IssueEditRequest{IssueKey: "SCRUM-522", Field: "parent",
				Value: core.FieldValue{Kind: core.FieldParent, ParentKey: "SCRUM-525"}},
		},
		{
			name: "labels assignment keeps commas",
			raw:  "SCRUM-522, labels=a,b",
			want: core.IssueEditRequest{IssueKey: "SCRUM-522", Field: "labels",
				Value: core.FieldValue{Kind: core.FieldLabels, Labels: []string{"a", "b"}}},
		},
		{
			name: "generic",
			raw:  "SCRUM-1, summary,  New title ",
			want: core.IssueEditRequest{IssueKey: "SCRUM-1", Field: "summary",
				Value: core.FieldValue{Kind: core.FieldGeneric, Text: "New title"}},
		},
		{
			name: "hyphenated field",
			raw:  "SCRUM-1, story-points = 5",
			want: core.IssueEditRequest{IssueKey: "SCRUM-1", Field: "story-points",
				Value: core.FieldValue{Kind: core.FieldGeneric, Text: "5"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEdit(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEdit_Errors(t *testing.T) {
	tests := []struct {
		raw  string
		code string
	}{
		{"SCRUM-522, labels, a, b", core.CodeInvalidEditFormat},
		{"SCRUM-522", core.CodeInvalidEditFormat},
		{"SCRUM-522, summary", core.CodeInvalidEditFormat},
		{", summary, x", core.CodeInvalidEditFormat},
		{"SCRUM-522, =value", core.CodeUnrecognizedEdit},
		{"SCRUM-522, bad field=value", core.CodeUnrecognizedEdit},
		{"SCRUM-522, field=", core.CodeUnrecognizedEdit},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseEdit(tt.raw)
			var de *core.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, core.ErrCatFormat, de.Category)
		})
	}
}

func TestParseEdit_InvalidMessageNamesPattern(t *testing.T) {
	_, err := ParseEdit("SCRUM-522, labels, a, b")
	assert.Equal(t, "Invalid format. Use: ISSUE-KEY, field, value (e.g. SCRUM-522, parent, SCRUM-525)", core.UserMessage(err))
}
