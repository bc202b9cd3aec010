package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/adapters/anthropic"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/adapters/history"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/adapters/jira"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/config"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Long: `Verify the configuration, the JIRA credentials and the history database.
With --ping the model is also sent a minimal request.`,
	RunE: runDoctor,
}

var doctorPing bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorPing, "ping", false, "send a minimal request to the model")
}

// checkResult is one doctor line.
type checkResult struct {
	name     string
	err      error
	optional bool
	detail   string
}

func (c checkResult) write(w io.Writer) {
	switch {
	case c.err == nil:
		fmt.Fprintf(w, "  ✓ %s", c.name)
		if c.detail != "" {
			fmt.Fprintf(w, " (%s)", c.detail)
		}
	case c.optional:
		fmt.Fprintf(w, "  ○ %s: %s", c.name, core.UserMessage(c.err))
	default:
		fmt.Fprintf(w, "  ✗ %s: %s", c.name, core.UserMessage(c.err))
	}
	fmt.Fprintln(w)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintln(out, "Checking configuration...")
	fmt.Fprintln(out)
	cfg, err := loadConfig()
	if err != nil {
		checkResult{name: "config", err: err}.write(out)
		return errors.New("configuration is invalid")
	}
	logger := logging.NewNop()

	results := []checkResult{
		{name: "config", detail: cfg.LLM.Model},
		checkTracker(ctx, cfg, logger),
		checkLLM(ctx, cfg, logger),
		checkHistory(cfg),
	}

	failed := false
	for _, r := range results {
		r.write(out)
		if r.err != nil && !r.optional {
			failed = true
		}
	}
	fmt.Fprintln(out)

	if failed {
		fmt.Fprintln(out, "Fix the issues above, or run 'jira-agent init' to create a config file.")
		return errors.New("doctor found problems")
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}

func checkTracker(ctx context.Context, cfg *config.Config, logger *logging.Logger) checkResult {
	res := checkResult{name: "jira"}
	if err := config.RequireTracker(cfg); err != nil {
		res.err = err
		return res
	}
	client, err := jira.NewClient(jira.Config{
		BaseURL:  cfg.Tracker.URL,
		Email:    cfg.Tracker.Email,
		APIToken: cfg.Tracker.APIToken,
		Timeout:  config.ParseTimeout(cfg.Tracker.Timeout, defaultTrackerTimeout),
	}, logger)
	if err != nil {
		res.err = err
		return res
	}
	user, err := client.Myself(ctx)
	if err != nil {
		res.err = err
		return res
	}
	res.detail = fmt.Sprintf("%s as %s", client.BaseURL(), user.DisplayName)
	return res
}

func checkLLM(ctx context.Context, cfg *config.Config, logger *logging.Logger) checkResult {
	res := checkResult{name: "model"}
	if err := config.RequireLLM(cfg); err != nil {
		res.err = err
		return res
	}
	if !doctorPing {
		res.detail = "api key set"
		return res
	}
	client, err := anthropic.NewClient(anthropic.Config{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: 8,
		Timeout:   config.ParseTimeout(cfg.LLM.Timeout, defaultLLMTimeout),
	}, logger)
	if err != nil {
		res.err = err
		return res
	}
	if _, err := client.Complete(ctx, core.CompletionRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "ping"}},
	}); err != nil {
		res.err = err
		return res
	}
	res.detail = "reachable"
	return res
}

func checkHistory(cfg *config.Config) checkResult {
	res := checkResult{name: "history", optional: true}
	if !cfg.History.Enabled {
		res.detail = "disabled"
		return res
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		res.err = err
		return res
	}
	res.detail = store.Path()
	if err := store.Close(); err != nil {
		res.err = err
	}
	return res
}
