package jira

// Wire types for the subset of Jira REST v2 this client speaks.

type projectRef struct {
	Key string `json:"key"`
}

type issueTypeRef struct {
	Name string `json:"name"`
}

type keyRef struct {
	Key string `json:"key"`
}

type createFields struct {
	Project     projectRef   `json:"project"`
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	IssueType   issueTypeRef `json:"issuetype"`
	Parent      *keyRef      `json:"parent,omitempty"`
}

type createIssueRequest struct {
	Fields createFields `json:"fields"`
}

type createIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type updateIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

type named struct {
	Name string `json:"name"`
}

type user struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type issueFields struct {
	Summary   string `json:"summary"`
	Status    *named `json:"status"`
	Assignee  *user  `json:"assignee"`
	IssueType *named `json:"issuetype"`
	Priority  *named `json:"priority"`
}

type issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

// searchResponse is one page of the enhanced JQL search. Pages are chained
// by nextPageToken; there is no total count.
type searchResponse struct {
	Issues        []issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken"`
	IsLast        bool    `json:"isLast"`
}

// errorResponse is Jira's standard error body.
type errorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
