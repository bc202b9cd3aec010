// Package agent routes user utterances to a direct answer or to one of the
// tracker tools and keeps the conversation transcript.
package agent

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/issues"
)

// Tool names.
const (
	ToolCreateIssue = "create_issue"
	ToolSearch      = "search_issues"
	ToolEditIssue   = "edit_issue"
	ToolGenerate    = "generate_epics_and_stories"
)

// ToolFunc runs a tool with its single string argument.
type ToolFunc func(ctx context.Context, input string) (core.ToolResult, error)

// Tool is one invocable tool.
type Tool struct {
	Name        string
	Aliases     []string
	Description string
	Run         ToolFunc
}

// Registry resolves tool names, including aliases and near misses.
type Registry struct {
	tools   map[string]*Tool
	aliases map[string]string
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]*Tool),
		aliases: make(map[string]string),
	}
}

// Register adds a tool. A later tool with the same name replaces the earlier.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
	r.aliases[strings.ToLower(t.Name)] = t.Name
	for _, alias := range t.Aliases {
		r.aliases[strings.ToLower(alias)] = t.Name
	}
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Infos describes the tools for the reasoner prompt.
func (r *Registry) Infos() []service.ToolInfo {
	out := make([]service.ToolInfo, 0, len(r.order))
	for _, t := range r.Tools() {
		out = append(out, service.ToolInfo{Name: t.Name, Description: t.Description})
	}
	return out
}

// Resolve finds a tool by exact name, then case-insensitive name or alias,
// then fuzzy match. A fuzzy match is accepted only when every candidate
// points at the same tool.
func (r *Registry) Resolve(name string) (*Tool, bool) {
	name = strings.TrimSpace(name)
	if t, ok := r.tools[name]; ok {
		return t, true
	}
	key := strings.ToLower(name)
	if real, ok := r.aliases[key]; ok {
		return r.tools[real], true
	}
	if key == "" {
		return nil, false
	}

	candidates := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		candidates = append(candidates, alias)
	}
	matches := fuzzy.Find(key, candidates)
	if len(matches) == 0 {
		return nil, false
	}
	resolved := r.aliases[matches[0].Str]
	for _, m := range matches[1:] {
		if r.aliases[m.Str] != resolved {
			return nil, false
		}
	}
	return r.tools[resolved], true
}

// DefaultRegistry wires the four tracker tools.
func DefaultRegistry(gw *issues.Gateway, gen *issues.Generator) *Registry {
	r := NewRegistry()

	r.Register(&Tool{
		Name:    ToolCreateIssue,
		Aliases: []string{"CreateJiraIssue", "create"},
		Description: "Create a JIRA issue. Input is a single string, either key=value pairs " +
			"(project_key=SCRUM, summary=..., description=..., issue_type=Task, parent_key=SCRUM-1) " +
			"or a comma-separated list: PROJECT, summary, description[, issue_type].",
		Run: func(ctx context.Context, input string) (core.ToolResult, error) {
			return core.ToolResult{Text: gw.CreateIssue(ctx, input)}, nil
		},
	})

	r.Register(&Tool{
		Name:        ToolSearch,
		Aliases:     []string{"SearchJiraIssues", "search"},
		Description: "Search JIRA issues with a JQL query string. It returns real issue data shown as a table.",
		Run: func(ctx context.Context, input string) (core.ToolResult, error) {
			return gw.SearchIssues(ctx, input), nil
		},
	})

	r.Register(&Tool{
		Name:    ToolEditIssue,
		Aliases: []string{"EditJiraIssue", "edit"},
		Description: "Edit one field of a JIRA issue such as summary, description, labels or parent. " +
			"Input: ISSUE-KEY, field, value (e.g. SCRUM-522, parent, SCRUM-525) or ISSUE-KEY, field=value " +
			"(e.g. SCRUM-522, labels=backend,urgent).",
		Run: func(ctx context.Context, input string) (core.ToolResult, error) {
			text, err := gw.EditIssue(ctx, input)
			if err != nil {
				return core.ToolResult{}, err
			}
			return core.ToolResult{Text: text}, nil
		},
	})

	r.Register(&Tool{
		Name:    ToolGenerate,
		Aliases: []string{"GenerateEpicsAndStories", "generate"},
		Description: "Convert product or business requirements into epics and stories in JIRA.\n" +
			"Input must be in this format: Project Key: <KEY>, Requirement: <requirement text>\n" +
			"Example: Project Key: SCRUM, Requirement: The app should support onboarding, live match updates, and notifications.",
		Run: func(ctx context.Context, input string) (core.ToolResult, error) {
			return core.ToolResult{Text: gen.Generate(ctx, input).Text()}, nil
		},
	})

	return r
}
