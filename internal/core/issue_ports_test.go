package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidProjectKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"SCRUM", true},
		{"cric", true},
		{"", false},
		{"SCRUM1", false},
		{"SC-RUM", false},
		{"SC RUM", false},
		{"ÉQUIPE", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidProjectKey(tt.key))
		})
	}
}

func TestIssueCreateRequest_Validate(t *testing.T) {
	valid := IssueCreateRequest{ProjectKey: "SCRUM", Summary: "s", Description: "d", IssueType: "Task"}
	require.NoError(t, valid.Validate())

	badKey := valid
	badKey.ProjectKey = "SCRUM-1"
	err := badKey.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, &DomainError{Category: ErrCatValidation, Code: CodeInvalidProjectKey})
	assert.Contains(t, UserMessage(err), "invalid `project_key`")

	noSummary := valid
	noSummary.Summary = ""
	err = noSummary.Validate()
	assert.ErrorIs(t, err, &DomainError{Category: ErrCatValidation, Code: CodeMissingFields})

	noDescription := valid
	noDescription.Description = ""
	err = noDescription.Validate()
	assert.ErrorIs(t, err, &DomainError{Category: ErrCatValidation, Code: CodeMissingFields})
}

func TestFieldValue_Payload(t *testing.T) {
	assert.Equal(t, "Done", FieldValue{Kind: FieldGeneric, Text: "Done"}.Payload())
	assert.Equal(t, []string{"a", "b"}, FieldValue{Kind: FieldLabels, Labels: []string{"a", "b"}}.Payload())
	assert.Equal(t, []string{}, FieldValue{Kind: FieldLabels}.Payload())
	assert.Equal(t, map[string]string{"key": "SCRUM-525"}, FieldValue{Kind: FieldParent, ParentKey: "SCRUM-525"}.Payload())
}

func TestFieldValue_String(t *testing.T) {
	assert.Equal(t, "Done", FieldValue{Text: "Done"}.String())
	assert.Equal(t, "['a', 'b']", FieldValue{Kind: FieldLabels, Labels: []string{"a", "b"}}.String())
	assert.Equal(t, "{'key': 'SCRUM-525'}", FieldValue{Kind: FieldParent, ParentKey: "SCRUM-525"}.String())
	assert.Equal(t, "labels", FieldLabels.String())
	assert.Equal(t, "generic", FieldGeneric.String())
}
