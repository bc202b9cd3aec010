package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

// MockCall records a call to a mock.
type MockCall struct {
	Method    string
	Args      interface{}
	Timestamp time.Time
}

type callLog struct {
	mu    sync.Mutex
	calls []MockCall
}

func (l *callLog) record(method string, args interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, MockCall{Method: method, Args: args, Timestamp: time.Now()})
}

// Calls returns all recorded calls.
func (l *callLog) Calls() []MockCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]MockCall, len(l.calls))
	copy(out, l.calls)
	return out
}

// CallCount returns the number of calls to a method.
func (l *callLog) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// =============================================================================
// MockTracker
// =============================================================================

// MockTracker is an in-memory core.TrackerClient. Created issues get keys
// PROJECT-1, PROJECT-2, ... per project.
type MockTracker struct {
	callLog

	BaseURL string

	mu       sync.Mutex
	issues   map[string]*core.TrackerIssue
	requests map[string]core.IssueCreateRequest
	updates  map[string]map[string]any
	order    []string
	next     map[string]int

	// Err* inject failures. CreateErrAfter fails every create after that
	// many successful ones when > 0.
	CreateErr      error
	CreateErrAfter int
	GetErr         error
	UpdateErr      error
	SearchErr      error
	MyselfErr      error

	// SearchFunc overrides search results.
	SearchFunc func(jql string) []core.TrackerIssue
}

// NewMockTracker creates an empty tracker.
func NewMockTracker() *MockTracker {
	return &MockTracker{
		BaseURL:  "https://example.atlassian.net",
		issues:   make(map[string]*core.TrackerIssue),
		requests: make(map[string]core.IssueCreateRequest),
		updates:  make(map[string]map[string]any),
		next:     make(map[string]int),
	}
}

// AddIssue seeds an existing issue.
func (m *MockTracker) AddIssue(is core.TrackerIssue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := is
	m.issues[is.Key] = &cp
	m.order = append(m.order, is.Key)
}

// CreateIssue implements core.TrackerClient.
func (m *MockTracker) CreateIssue(_ context.Context, req core.IssueCreateRequest) (*core.CreatedIssue, error) {
	m.record("CreateIssue", req)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil && (m.CreateErrAfter <= 0 || len(m.requests) >= m.CreateErrAfter) {
		return nil, m.CreateErr
	}

	m.next[req.ProjectKey]++
	key := fmt.Sprintf("%s-%d", req.ProjectKey, m.next[req.ProjectKey])
	m.requests[key] = req
	m.issues[key] = &core.TrackerIssue{Key: key, Summary: req.Summary, Status: "To Do", IssueType: req.IssueType}
	m.order = append(m.order, key)
	return &core.CreatedIssue{ID: fmt.Sprint(len(m.order)), Key: key, URL: m.BaseURL + "/browse/" + key}, nil
}

// GetIssue implements core.TrackerClient.
func (m *MockTracker) GetIssue(_ context.Context, key string) (*core.TrackerIssue, error) {
	m.record("GetIssue", key)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	is, ok := m.issues[key]
	if !ok {
		return nil, core.ErrNotFound("issue", key)
	}
	cp := *is
	return &cp, nil
}

// UpdateIssue implements core.TrackerClient.
func (m *MockTracker) UpdateIssue(_ context.Context, key string, fields map[string]any) error {
	m.record("UpdateIssue", fields)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.issues[key]; !ok {
		return core.ErrNotFound("issue", key)
	}
	if m.updates[key] == nil {
		m.updates[key] = make(map[string]any)
	}
	for k, v := range fields {
		m.updates[key][k] = v
	}
	return nil
}

// SearchIssues implements core.TrackerClient. Without SearchFunc it returns
// every issue whose key or summary contains the query text.
func (m *MockTracker) SearchIssues(_ context.Context, jql string) ([]core.TrackerIssue, error) {
	m.record("SearchIssues", jql)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if m.SearchFunc != nil {
		return m.SearchFunc(jql), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.TrackerIssue
	for _, key := range m.order {
		is := m.issues[key]
		if strings.Contains(is.Key, jql) || strings.Contains(is.Summary, jql) {
			out = append(out, *is)
		}
	}
	return out, nil
}

// Myself implements core.TrackerClient.
func (m *MockTracker) Myself(_ context.Context) (*core.TrackerUser, error) {
	m.record("Myself", nil)
	if m.MyselfErr != nil {
		return nil, m.MyselfErr
	}
	return &core.TrackerUser{AccountID: "mock", DisplayName: "Mock User", Email: "mock@example.com"}, nil
}

// Created returns the create requests in call order.
func (m *MockTracker) Created() []core.IssueCreateRequest {
	var out []core.IssueCreateRequest
	for _, c := range m.Calls() {
		if c.Method == "CreateIssue" {
			out = append(out, c.Args.(core.IssueCreateRequest))
		}
	}
	return out
}

// Request returns the create request behind a created key.
func (m *MockTracker) Request(key string) (core.IssueCreateRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[key]
	return req, ok
}

// Updates returns the fields set on an issue.
func (m *MockTracker) Updates(key string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates[key]
}

// Keys returns every known issue key, sorted.
func (m *MockTracker) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.issues))
	for k := range m.issues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// MockCompleter
// =============================================================================

// MockCompleter returns scripted replies in order. When the script runs out
// it returns the last reply again, or an error if there never was one.
type MockCompleter struct {
	callLog

	mu      sync.Mutex
	replies []string
	errs    []error
	pos     int

	// CompleteFunc overrides the script.
	CompleteFunc func(context.Context, core.CompletionRequest) (string, error)
}

// NewMockCompleter creates a completer that answers with replies in order.
func NewMockCompleter(replies ...string) *MockCompleter {
	return &MockCompleter{replies: replies}
}

// WithError makes the n-th call (0-based) fail with err.
func (m *MockCompleter) WithError(n int, err error) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.errs) <= n {
		m.errs = append(m.errs, nil)
	}
	m.errs[n] = err
	return m
}

// Complete implements core.Completer.
func (m *MockCompleter) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	m.record("Complete", req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.pos
	m.pos++
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	switch {
	case i < len(m.replies):
		return m.replies[i], nil
	case len(m.replies) > 0:
		return m.replies[len(m.replies)-1], nil
	default:
		return "", fmt.Errorf("mock completer: no reply scripted for call %d", i)
	}
}

// Requests returns the completion requests in call order.
func (m *MockCompleter) Requests() []core.CompletionRequest {
	var out []core.CompletionRequest
	for _, c := range m.Calls() {
		out = append(out, c.Args.(core.CompletionRequest))
	}
	return out
}
