package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service"
)

// Compile-time interface conformance check.
var _ core.Reasoner = (*LLMReasoner)(nil)

// LLMReasoner asks the model to pick an action. The model replies with a
// JSON object; a reply without one is taken as a direct answer.
type LLMReasoner struct {
	llm    core.Completer
	system string
	logger *logging.Logger
}

// NewLLMReasoner renders the system prompt for the registry's tools.
func NewLLMReasoner(llm core.Completer, prompts *service.PromptRenderer, tools *Registry, logger *logging.Logger) (*LLMReasoner, error) {
	system, err := prompts.RenderReasoner(service.ReasonerPromptParams{Tools: tools.Infos()})
	if err != nil {
		return nil, fmt.Errorf("rendering reasoner prompt: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LLMReasoner{llm: llm, system: system, logger: logger}, nil
}

// SystemPrompt returns the rendered system prompt.
func (r *LLMReasoner) SystemPrompt() string {
	return r.system
}

// decision is the JSON the model is asked to produce.
type decision struct {
	Action string          `json:"action"`
	Answer string          `json:"answer"`
	Tool   string          `json:"tool"`
	Input  json.RawMessage `json:"input"`
}

// ChooseAction implements core.Reasoner.
func (r *LLMReasoner) ChooseAction(ctx context.Context, utterance string, history []core.Message) (core.Action, error) {
	messages := make([]core.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, core.Message{Role: core.RoleUser, Content: utterance})

	reply, err := r.llm.Complete(ctx, core.CompletionRequest{System: r.system, Messages: messages})
	if err != nil {
		return core.Action{}, err
	}
	return parseDecision(reply, r.logger), nil
}

func parseDecision(reply string, logger *logging.Logger) core.Action {
	var d decision
	if err := service.DecodeObject(reply, &d); err != nil {
		logger.Debug("reasoner reply is not a decision object", "error", err)
		return core.Answer(strings.TrimSpace(reply))
	}

	switch strings.ToLower(strings.TrimSpace(d.Action)) {
	case "tool", "invoke", "use_tool":
		if strings.TrimSpace(d.Tool) != "" {
			return core.Invoke(strings.TrimSpace(d.Tool), inputString(d.Input))
		}
	case "answer", "respond", "final":
		if d.Answer != "" {
			return core.Answer(d.Answer)
		}
	}
	return core.Answer(strings.TrimSpace(reply))
}

// inputString accepts a JSON string, or any other JSON value as its text.
func inputString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
