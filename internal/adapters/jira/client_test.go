package jira

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/", Email: "me@example.com", APIToken: "tok"}, nil)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://x.atlassian.net"}, nil)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatAuth))
}

func TestCreateIssue_SendsFieldsAndReturnsPermalink(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/2/issue", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "me@example.com", user)
		assert.Equal(t, "tok", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"SCRUM-7","self":"x"}`))
	})

	created, err := c.CreateIssue(t.Context(), core.IssueCreateRequest{
		ProjectKey:  "SCRUM",
		Summary:     "Login",
		Description: "Users log in",
		IssueType:   "Story",
		ParentKey:   "SCRUM-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "SCRUM-7", created.Key)
	assert.Equal(t, c.BaseURL()+"/browse/SCRUM-7", created.URL)

	fields := got["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"key": "SCRUM"}, fields["project"])
	assert.Equal(t, "Login", fields["summary"])
	assert.Equal(t, "Users log in", fields["description"])
	assert.Equal(t, map[string]any{"name": "Story"}, fields["issuetype"])
	assert.Equal(t, map[string]any{"key": "SCRUM-1"}, fields["parent"])
}

func TestCreateIssue_OmitsParentAndDefaultsType(t *testing.T) {
	var got map[string]map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1","key":"SCRUM-8"}`))
	})

	_, err := c.CreateIssue(t.Context(), core.IssueCreateRequest{ProjectKey: "SCRUM", Summary: "s", Description: "d"})
	require.NoError(t, err)
	_, hasParent := got["fields"]["parent"]
	assert.False(t, hasParent)
	assert.Equal(t, map[string]any{"name": "Task"}, got["fields"]["issuetype"])
}

func TestCreateIssue_ErrorBodyIsSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":[],"errors":{"project":"valid project is required"}}`))
	})

	_, err := c.CreateIssue(t.Context(), core.IssueCreateRequest{ProjectKey: "NOPE", Summary: "s", Description: "d"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatExternal))
	assert.Contains(t, core.UserMessage(err), "project: valid project is required")
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		cat    core.ErrorCategory
	}{
		{http.StatusUnauthorized, core.ErrCatAuth},
		{http.StatusForbidden, core.ErrCatAuth},
		{http.StatusNotFound, core.ErrCatNotFound},
		{http.StatusInternalServerError, core.ErrCatExternal},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist or you do not have permission to see it."]}`))
			})
			_, err := c.GetIssue(t.Context(), "SCRUM-999")
			require.Error(t, err)
			assert.Equal(t, tt.cat, core.GetCategory(err))
		})
	}
}

func TestGetIssue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/SCRUM-5", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"5","key":"SCRUM-5","fields":{"summary":"Fix","status":{"name":"To Do"},"issuetype":{"name":"Bug"}}}`))
	})

	is, err := c.GetIssue(t.Context(), "SCRUM-5")
	require.NoError(t, err)
	assert.Equal(t, "Fix", is.Summary)
	assert.Equal(t, "To Do", is.Status)
	assert.Nil(t, is.Assignee)
	assert.Nil(t, is.Priority)
}

func TestUpdateIssue_SendsSingleField(t *testing.T) {
	var got map[string]map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/rest/api/2/issue/SCRUM-522", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.UpdateIssue(t.Context(), "SCRUM-522", map[string]any{"parent": map[string]string{"key": "SCRUM-525"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key": "SCRUM-525"}, got["fields"]["parent"])
}

func TestSearchIssues(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/api/2/search/jql", r.URL.Path)
		assert.Equal(t, "project = SCRUM", r.URL.Query().Get("jql"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		assert.Contains(t, r.URL.Query().Get("fields"), "summary")
		_, _ = w.Write([]byte(`{"nextPageToken":"CAEaAggD","isLast":false,"issues":[
			{"key":"SCRUM-1","fields":{"summary":"A","status":{"name":"Done"},"assignee":{"displayName":"Ana"},"issuetype":{"name":"Task"},"priority":{"name":"High"}}},
			{"key":"SCRUM-2","fields":{"summary":"B","status":{"name":"To Do"},"assignee":null,"issuetype":{"name":"Bug"},"priority":null}}
		]}`))
	})

	issues, err := c.SearchIssues(t.Context(), "project = SCRUM")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "SCRUM-1", issues[0].Key)
	require.NotNil(t, issues[0].Assignee)
	assert.Equal(t, "Ana", *issues[0].Assignee)
	assert.Equal(t, "High", *issues[0].Priority)
	assert.Nil(t, issues[1].Assignee)
	assert.Nil(t, issues[1].Priority)
}

func TestSearchIssues_RemovedEndpointIsNotUsed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/api/2/search" {
			w.WriteHeader(http.StatusGone)
			return
		}
		_, _ = w.Write([]byte(`{"issues":[],"isLast":true}`))
	})

	issues, err := c.SearchIssues(t.Context(), "project = EMPTY")
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestMyself(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		_, _ = w.Write([]byte(`{"accountId":"abc","displayName":"Ana","emailAddress":"me@example.com"}`))
	})

	u, err := c.Myself(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.DisplayName)
}

func TestErrorDetail_NonJSONBody(t *testing.T) {
	assert.Equal(t, "gateway timeout", errorDetail([]byte(" gateway timeout \n")))
}
