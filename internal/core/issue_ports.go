package core

import (
	"context"
	"strings"
	"unicode"
)

// =============================================================================
// TrackerClient Port (Issue Tracking Integration)
// =============================================================================

// DefaultIssueType is used when a create request names no issue type.
const DefaultIssueType = "Task"

// IssueCreateRequest is a structured issue-creation request.
type IssueCreateRequest struct {
	// ProjectKey is the tracker project key, letters only (e.g. "SCRUM").
	ProjectKey string

	// Summary is the issue title (required).
	Summary string

	// Description is the issue body (required).
	Description string

	// IssueType is the tracker issue type name ("Task", "Epic", "Story").
	IssueType string

	// ParentKey links the issue to a parent (empty = none).
	ParentKey string
}

// Validate checks the request invariants. The returned error is a
// validation DomainError whose message can be shown to the user verbatim.
func (r IssueCreateRequest) Validate() error {
	if !IsValidProjectKey(r.ProjectKey) {
		return ErrValidation(CodeInvalidProjectKey,
			"❌ Missing or invalid `project_key`. Please specify a valid JIRA project like `SCRUM`, `CRIC`, etc.")
	}
	if r.Summary == "" || r.Description == "" {
		return ErrValidation(CodeMissingFields,
			"❌ Missing required fields: `summary` or `description`.")
	}
	return nil
}

// IsValidProjectKey reports whether key is non-empty and made only of letters.
func IsValidProjectKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// FieldKind selects how an edited field value is shaped before submission.
type FieldKind int

const (
	// FieldGeneric submits the trimmed string unchanged.
	FieldGeneric FieldKind = iota
	// FieldLabels submits an ordered list of label strings.
	FieldLabels
	// FieldParent submits a {"key": ...} object.
	FieldParent
)

// String returns the field kind name.
func (k FieldKind) String() string {
	switch k {
	case FieldLabels:
		return "labels"
	case FieldParent:
		return "parent"
	default:
		return "generic"
	}
}

// FieldValue is a normalized field value. Exactly one of Text, Labels or
// ParentKey is meaningful, selected by Kind.
type FieldValue struct {
	Kind      FieldKind
	Text      string
	Labels    []string
	ParentKey string
}

// Payload returns the value in the shape the tracker expects.
func (v FieldValue) Payload() any {
	switch v.Kind {
	case FieldLabels:
		labels := v.Labels
		if labels == nil {
			labels = []string{}
		}
		return labels
	case FieldParent:
		return map[string]string{"key": v.ParentKey}
	default:
		return v.Text
	}
}

// String renders the value for confirmation messages.
func (v FieldValue) String() string {
	switch v.Kind {
	case FieldLabels:
		quoted := make([]string, len(v.Labels))
		for i, l := range v.Labels {
			quoted[i] = "'" + l + "'"
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case FieldParent:
		return "{'key': '" + v.ParentKey + "'}"
	default:
		return v.Text
	}
}

// IssueEditRequest is a structured single-field edit.
type IssueEditRequest struct {
	IssueKey string
	Field    string
	Value    FieldValue
}

// CreatedIssue is the tracker's answer to a create call.
type CreatedIssue struct {
	ID  string
	Key string
	// URL is the human-facing permalink (…/browse/KEY).
	URL string
}

// TrackerIssue is an issue record as returned by search or get.
type TrackerIssue struct {
	Key       string
	Summary   string
	Status    string
	Assignee  *string
	IssueType string
	Priority  *string
}

// TrackerUser identifies the authenticated tracker account.
type TrackerUser struct {
	AccountID   string
	DisplayName string
	Email       string
}

// TrackerClient defines the contract for project-tracker operations.
type TrackerClient interface {
	// CreateIssue creates an issue and returns its key and permalink.
	CreateIssue(ctx context.Context, req IssueCreateRequest) (*CreatedIssue, error)

	// GetIssue retrieves an issue by key.
	GetIssue(ctx context.Context, key string) (*TrackerIssue, error)

	// UpdateIssue sets the given fields on an existing issue.
	UpdateIssue(ctx context.Context, key string, fields map[string]any) error

	// SearchIssues runs a JQL query and returns hits in tracker order.
	SearchIssues(ctx context.Context, jql string) ([]TrackerIssue, error)

	// Myself returns the authenticated user (used for connectivity checks).
	Myself(ctx context.Context) (*TrackerUser, error)
}
