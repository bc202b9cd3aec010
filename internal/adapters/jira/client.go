// Package jira implements core.TrackerClient over the Jira REST API (v2)
// using basic authentication with an account email and API token.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
)

// Compile-time interface conformance check.
var _ core.TrackerClient = (*Client)(nil)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxResults = 50
	searchFields      = "summary,status,assignee,issuetype,priority"
	maxErrorBody      = 4096
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Email      string
	APIToken   string
	Timeout    time.Duration
	MaxResults int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client talks to one Jira site.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	maxResults int
	http       *http.Client
	logger     *logging.Logger
}

// NewClient creates a Jira client. The base URL, email and token are required.
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Email == "" || cfg.APIToken == "" {
		return nil, core.ErrAuth("jira url, email and api token are required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid jira url %q: %w", cfg.BaseURL, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		email:      cfg.Email,
		apiToken:   cfg.APIToken,
		maxResults: maxResults,
		http:       httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the site URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Permalink returns the browse URL for an issue key.
func (c *Client) Permalink(key string) string {
	return c.baseURL + "/browse/" + key
}

// CreateIssue creates an issue and returns its key and permalink.
func (c *Client) CreateIssue(ctx context.Context, req core.IssueCreateRequest) (*core.CreatedIssue, error) {
	issueType := req.IssueType
	if issueType == "" {
		issueType = core.DefaultIssueType
	}
	payload := createIssueRequest{Fields: createFields{
		Project:     projectRef{Key: req.ProjectKey},
		Summary:     req.Summary,
		Description: req.Description,
		IssueType:   issueTypeRef{Name: issueType},
	}}
	if req.ParentKey != "" {
		payload.Fields.Parent = &keyRef{Key: req.ParentKey}
	}

	var out createIssueResponse
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/issue", nil, payload, &out); err != nil {
		return nil, fmt.Errorf("creating issue in %s: %w", req.ProjectKey, err)
	}
	c.logger.Info("jira issue created", "key", out.Key, "project", req.ProjectKey, "type", issueType)
	return &core.CreatedIssue{ID: out.ID, Key: out.Key, URL: c.Permalink(out.Key)}, nil
}

// GetIssue retrieves an issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*core.TrackerIssue, error) {
	q := url.Values{"fields": {searchFields}}
	var out issue
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key), q, nil, &out); err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", key, err)
	}
	ti := toTrackerIssue(out)
	return &ti, nil
}

// UpdateIssue sets the given fields on an existing issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	if err := c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+url.PathEscape(key), nil,
		updateIssueRequest{Fields: fields}, nil); err != nil {
		return fmt.Errorf("updating issue %s: %w", key, err)
	}
	c.logger.Info("jira issue updated", "key", key, "fields", fieldNames(fields))
	return nil
}

// searchPath is the enhanced JQL search; the older /search was removed
// from Jira Cloud.
const searchPath = "/rest/api/2/search/jql"

// SearchIssues runs a JQL query and returns the first page of hits.
func (c *Client) SearchIssues(ctx context.Context, jql string) ([]core.TrackerIssue, error) {
	q := url.Values{
		"jql":        {jql},
		"fields":     {searchFields},
		"maxResults": {strconv.Itoa(c.maxResults)},
	}
	var out searchResponse
	if err := c.do(ctx, http.MethodGet, searchPath, q, nil, &out); err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}
	issues := make([]core.TrackerIssue, 0, len(out.Issues))
	for _, is := range out.Issues {
		issues = append(issues, toTrackerIssue(is))
	}
	c.logger.Debug("jira search", "jql", jql, "hits", len(issues), "more", out.NextPageToken != "" && !out.IsLast)
	return issues, nil
}

// Myself returns the authenticated user.
func (c *Client) Myself(ctx context.Context) (*core.TrackerUser, error) {
	var out user
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &core.TrackerUser{AccountID: out.AccountID, DisplayName: out.DisplayName, Email: out.EmailAddress}, nil
}

// do sends one request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.email, c.apiToken)

	c.logger.Debug("jira request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return core.ErrExternal(core.CodeTrackerFailed, "jira request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.ErrExternal(core.CodeTrackerFailed, "decoding jira response").WithCause(err)
	}
	return nil
}

// statusError maps an unsuccessful HTTP status to a domain error.
func statusError(status int, body []byte) error {
	detail := errorDetail(body)
	if detail == "" {
		detail = http.StatusText(status)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.ErrAuth(fmt.Sprintf("jira rejected credentials (status %d): %s", status, detail))
	case http.StatusNotFound:
		return core.ErrNotFound("jira resource", detail)
	default:
		return core.ErrExternal(core.CodeTrackerFailed, fmt.Sprintf("jira returned status %d", status)).
			WithCause(fmt.Errorf("%s", detail)).
			WithDetail("status", status)
	}
}

// errorDetail flattens Jira's {"errorMessages":[],"errors":{}} body.
func errorDetail(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return strings.TrimSpace(string(body))
	}
	parts := append([]string{}, er.ErrorMessages...)
	keys := make([]string, 0, len(er.Errors))
	for k := range er.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+er.Errors[k])
	}
	return strings.Join(parts, "; ")
}

func toTrackerIssue(is issue) core.TrackerIssue {
	ti := core.TrackerIssue{Key: is.Key, Summary: is.Fields.Summary}
	if is.Fields.Status != nil {
		ti.Status = is.Fields.Status.Name
	}
	if is.Fields.IssueType != nil {
		ti.IssueType = is.Fields.IssueType.Name
	}
	if is.Fields.Assignee != nil {
		name := is.Fields.Assignee.DisplayName
		ti.Assignee = &name
	}
	if is.Fields.Priority != nil {
		p := is.Fields.Priority.Name
		ti.Priority = &p
	}
	return ti
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
