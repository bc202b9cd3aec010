// Package issues turns free-text tool input into tracker operations: issue
// creation, single-field edits, JQL search and the two-stage epic/story
// generator.
package issues

import (
	"regexp"
	"strings"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

const (
	msgUnrecognizedEdit = "Unrecognized format. Use: ISSUE-KEY, field, value"
	msgInvalidEdit      = "Invalid format. Use: ISSUE-KEY, field, value (e.g. SCRUM-522, parent, SCRUM-525)"
)

var (
	keyValuePattern   = regexp.MustCompile(`(\w+)=([^,]+)`)
	editAssignPattern = regexp.MustCompile(`(?s)^([\w-]+)\s*=\s*(.+)$`)
)

// ParseCreate decodes a create request from either encoding:
//
//	project_key=SCRUM, summary=Login, description=Users log in, issue_type=Story, parent_key=SCRUM-1
//	SCRUM, Login, Users log in, Story
//
// Any "=" selects key=value mode. Unknown keys and unmatched text are
// ignored; a repeated key keeps its last value. The positional form has no
// parent. The request is not validated here.
func ParseCreate(raw string, defaultIssueType string) core.IssueCreateRequest {
	if defaultIssueType == "" {
		defaultIssueType = core.DefaultIssueType
	}

	var req core.IssueCreateRequest
	if strings.Contains(raw, "=") {
		fields := make(map[string]string)
		for _, m := range keyValuePattern.FindAllStringSubmatch(raw, -1) {
			fields[m[1]] = strings.TrimSpace(m[2])
		}
		req = core.IssueCreateRequest{
			ProjectKey:  fields["project_key"],
			Summary:     fields["summary"],
			Description: fields["description"],
			IssueType:   fields["issue_type"],
			ParentKey:   fields["parent_key"],
		}
	} else {
		parts := splitTrim(raw)
		at := func(i int) string {
			if i < len(parts) {
				return parts[i]
			}
			return ""
		}
		req = core.IssueCreateRequest{
			ProjectKey:  at(0),
			Summary:     at(1),
			Description: at(2),
			IssueType:   at(3),
		}
	}

	if req.IssueType == "" {
		req.IssueType = defaultIssueType
	}
	return req
}

// editInput is a parsed but not yet normalized edit.
type editInput struct {
	IssueKey string
	Field    string
	Value    string
}

// parseEdit decodes "KEY, field, value" or "KEY, field=value".
//
// When the second comma-separated token contains "=", everything after the
// first comma is read as field=value, so the value may itself contain commas
// (labels=a,b). Otherwise exactly three tokens are required.
func parseEdit(raw string) (editInput, error) {
	parts := splitTrim(raw)

	var in editInput
	switch {
	case len(parts) >= 2 && strings.Contains(parts[1], "="):
		_, rest, _ := strings.Cut(raw, ",")
		m := editAssignPattern.FindStringSubmatch(strings.TrimSpace(rest))
		if m == nil {
			return editInput{}, core.ErrFormat(core.CodeUnrecognizedEdit, msgUnrecognizedEdit)
		}
		in = editInput{IssueKey: parts[0], Field: m[1], Value: strings.TrimSpace(m[2])}
	case len(parts) == 3:
		in = editInput{IssueKey: parts[0], Field: parts[1], Value: parts[2]}
	default:
		return editInput{}, core.ErrFormat(core.CodeInvalidEditFormat, msgInvalidEdit)
	}

	if in.IssueKey == "" || in.Field == "" {
		return editInput{}, core.ErrFormat(core.CodeInvalidEditFormat, msgInvalidEdit)
	}
	return in, nil
}

// ParseEdit decodes and normalizes an edit request.
func ParseEdit(raw string) (core.IssueEditRequest, error) {
	in, err := parseEdit(raw)
	if err != nil {
		return core.IssueEditRequest{}, err
	}
	return core.IssueEditRequest{
		IssueKey: in.IssueKey,
		Field:    in.Field,
		Value:    NormalizeField(in.Field, in.Value),
	}, nil
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
