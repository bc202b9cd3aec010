package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service"
)

const msgNoEpics = "No epics were generated for this requirement."

const msgGenerateFormat = "❌ Input format incorrect. Please provide input as 'Project Key: <KEY>, Requirement: <requirement>'"

var generateInputPattern = regexp.MustCompile(`(?s)^Project Key:\s*(\w+)\s*,\s*Requirement:\s*(.*)`)

// EpicSpec is one epic decoded from the stage-1 response.
type EpicSpec struct {
	Title       string     `json:"epic"`
	Description string     `json:"epic description"`
	Stories     storyHints `json:"stories"`
}

// StorySpec is one story decoded from a stage-2 response.
type StorySpec struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// storyHints collects story titles given as plain strings or as objects
// with a summary or title. The hints are informational: a value that is not
// an array yields no hints and unreadable elements are skipped.
type storyHints []string

func (h *storyHints) UnmarshalJSON(data []byte) error {
	*h = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, item := range raw {
		if title := hintTitle(item); title != "" {
			*h = append(*h, title)
		}
	}
	return nil
}

func hintTitle(item json.RawMessage) string {
	var s string
	if json.Unmarshal(item, &s) == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Summary string `json:"summary"`
		Title   string `json:"title"`
	}
	if json.Unmarshal(item, &obj) != nil {
		return ""
	}
	if obj.Summary != "" {
		return strings.TrimSpace(obj.Summary)
	}
	return strings.TrimSpace(obj.Title)
}

// GeneratorConfig configures issue types and the extraction token limit.
type GeneratorConfig struct {
	EpicIssueType  string
	StoryIssueType string
	MaxTokens      int
}

// Generator turns a requirement into epics and stories: one LLM call for
// the epic list, one per epic for its stories, one tracker create per item.
type Generator struct {
	llm     core.Completer
	tracker core.TrackerClient
	prompts *service.PromptRenderer
	config  GeneratorConfig
	logger  *logging.Logger
}

// NewGenerator creates a generator.
func NewGenerator(llm core.Completer, tracker core.TrackerClient, prompts *service.PromptRenderer,
	cfg GeneratorConfig, logger *logging.Logger) *Generator {
	if cfg.EpicIssueType == "" {
		cfg.EpicIssueType = "Epic"
	}
	if cfg.StoryIssueType == "" {
		cfg.StoryIssueType = "Story"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{llm: llm, tracker: tracker, prompts: prompts, config: cfg, logger: logger}
}

// GenerateResult is the outcome of one generation run. Lines holds one
// confirmation per created issue in creation order. Err is the failure that
// stopped the run, if any; issues created before it are kept.
type GenerateResult struct {
	Lines   []string
	Epics   int
	Stories int
	Err     error
}

// Text renders the confirmations followed by the failure line, if any.
func (r *GenerateResult) Text() string {
	lines := r.Lines
	if len(lines) == 0 && r.Err == nil {
		return msgNoEpics
	}
	if r.Err != nil {
		lines = append(append([]string{}, lines...), core.UserMessage(r.Err))
	}
	return strings.Join(lines, "\n")
}

// ParseGenerateInput extracts the project key and requirement from
// "Project Key: <KEY>, Requirement: <text>".
func ParseGenerateInput(input string) (projectKey, requirement string, err error) {
	m := generateInputPattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", "", core.ErrFormat(core.CodeInvalidGenerate, msgGenerateFormat)
	}
	projectKey = strings.TrimSpace(m[1])
	requirement = strings.TrimSpace(m[2])
	if requirement == "" {
		return "", "", core.ErrFormat(core.CodeInvalidGenerate, msgGenerateFormat)
	}
	return projectKey, requirement, nil
}

// Generate runs the two-stage breakdown for input. It stops at the first
// failure without undoing earlier creates.
func (g *Generator) Generate(ctx context.Context, input string) *GenerateResult {
	res := &GenerateResult{}

	projectKey, requirement, err := ParseGenerateInput(input)
	if err != nil {
		res.Err = err
		return res
	}
	logger := g.logger.With("project", projectKey)

	prompt, err := g.prompts.RenderEpics(service.EpicsPromptParams{Requirement: requirement})
	if err != nil {
		res.Err = fmt.Errorf("rendering epics prompt: %w", err)
		return res
	}
	epics, reply, err := complete[EpicSpec](ctx, g, prompt)
	if err != nil {
		res.Err = err
		return res
	}
	if err := validateEpics(epics, reply); err != nil {
		res.Err = err
		return res
	}
	logger.Info("epics extracted", "count", len(epics))

	for _, epic := range epics {
		created, err := g.tracker.CreateIssue(ctx, core.IssueCreateRequest{
			ProjectKey:  projectKey,
			Summary:     epic.Title,
			Description: epic.Description,
			IssueType:   g.config.EpicIssueType,
		})
		if err != nil {
			res.Err = core.ErrExternal(core.CodeTrackerFailed, fmt.Sprintf("❌ Failed to create epic %q", epic.Title)).WithCause(err)
			return res
		}
		res.Epics++
		res.Lines = append(res.Lines, fmt.Sprintf("🟣 Epic created: %s - %s", created.Key, epic.Title))

		storyPrompt, err := g.prompts.RenderStories(service.StoriesPromptParams{
			EpicTitle:       epic.Title,
			EpicDescription: epic.Description,
			StoryHints:      epic.Stories,
			Requirement:     requirement,
		})
		if err != nil {
			res.Err = fmt.Errorf("rendering stories prompt: %w", err)
			return res
		}
		stories, reply, err := complete[StorySpec](ctx, g, storyPrompt)
		if err != nil {
			res.Err = err
			return res
		}
		if err := validateStories(stories, reply); err != nil {
			res.Err = err
			return res
		}

		for _, story := range stories {
			st, err := g.tracker.CreateIssue(ctx, core.IssueCreateRequest{
				ProjectKey:  projectKey,
				Summary:     story.Summary,
				Description: story.Description,
				IssueType:   g.config.StoryIssueType,
				ParentKey:   created.Key,
			})
			if err != nil {
				res.Err = core.ErrExternal(core.CodeTrackerFailed, fmt.Sprintf("❌ Failed to create story %q", story.Summary)).WithCause(err)
				return res
			}
			res.Stories++
			res.Lines = append(res.Lines, fmt.Sprintf("🟢 Story created: %s - linked to %s", st.Key, created.Key))
		}
		logger.Info("epic populated", "epic", created.Key, "stories", len(stories))
	}
	return res
}

// complete sends one extraction prompt and decodes the reply as []T. The
// raw reply is returned for error reporting.
func complete[T any](ctx context.Context, g *Generator, prompt string) ([]T, string, error) {
	reply, err := g.llm.Complete(ctx, core.CompletionRequest{
		Messages:  []core.Message{{Role: core.RoleUser, Content: prompt}},
		MaxTokens: g.config.MaxTokens,
	})
	if err != nil {
		return nil, "", core.ErrExternal(core.CodeLLMFailed, "❌ LLM request failed").WithCause(err)
	}
	items, err := service.DecodeArray[T](reply)
	if err != nil {
		g.logger.Debug("extraction failed", "error", err, "reply_len", len(reply))
		return nil, reply, err
	}
	return items, reply, nil
}

func validateEpics(epics []EpicSpec, reply string) error {
	for i, e := range epics {
		if strings.TrimSpace(e.Title) == "" {
			return core.ErrExtraction(core.CodeUnexpectedFormat,
				fmt.Sprintf("%s (epic %d has no title)", service.MsgUnexpectedFormat, i+1), reply)
		}
	}
	return nil
}

func validateStories(stories []StorySpec, reply string) error {
	for i, s := range stories {
		if strings.TrimSpace(s.Summary) == "" {
			return core.ErrExtraction(core.CodeUnexpectedFormat,
				fmt.Sprintf("%s (story %d has no summary)", service.MsgUnexpectedFormat, i+1), reply)
		}
	}
	return nil
}
