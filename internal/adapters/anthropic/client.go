// Package anthropic implements core.Completer on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
)

// Compile-time interface conformance check.
var _ core.Completer = (*Client)(nil)

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client sends blocking completion requests. Retries are disabled; a failed
// call is reported to the caller as is.
type Client struct {
	api         sdk.Client
	model       string
	temperature float64
	maxTokens   int
	logger      *logging.Logger
}

// NewClient creates a completer. The API key is required.
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, core.ErrAuth("anthropic api key is required")
	}
	if cfg.Model == "" {
		return nil, core.ErrValidation("MODEL_REQUIRED", "model is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	} else if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	return &Client{
		api:         sdk.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the conversation and returns the concatenated text blocks
// of the reply.
func (c *Client) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	messages := toParams(req.Messages)
	if len(messages) == 0 {
		return "", core.ErrValidation("EMPTY_PROMPT", "completion request has no messages")
	}

	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: sdk.Float(c.temperature),
		Messages:    messages,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		c.logger.Warn("completion failed", "model", c.model, "error", err)
		return "", mapError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	c.logger.Debug("completion done",
		"model", c.model,
		"duration", time.Since(start),
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"stop_reason", string(msg.StopReason))
	return sb.String(), nil
}

// toParams converts transcript messages into API params. Empty messages are
// dropped and consecutive messages of the same role are merged so the API
// always sees alternating turns.
func toParams(msgs []core.Message) []sdk.MessageParam {
	type turn struct {
		role core.Role
		text string
	}
	var turns []turn
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].role == m.Role {
			turns[n-1].text += "\n\n" + m.Content
			continue
		}
		turns = append(turns, turn{role: m.Role, text: m.Content})
	}

	out := make([]sdk.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := sdk.NewTextBlock(t.text)
		if t.role == core.RoleAssistant {
			out = append(out, sdk.NewAssistantMessage(block))
		} else {
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	return out
}

func mapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return core.ErrAuth(fmt.Sprintf("anthropic rejected the api key (status %d)", apiErr.StatusCode)).WithCause(err)
		}
		return core.ErrExternal(core.CodeLLMFailed, fmt.Sprintf("anthropic returned status %d", apiErr.StatusCode)).WithCause(err)
	}
	return core.ErrExternal(core.CodeLLMFailed, "anthropic request failed").WithCause(err)
}
