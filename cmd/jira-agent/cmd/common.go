package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/adapters/anthropic"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/adapters/history"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/adapters/jira"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/config"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/issues"
)

const (
	defaultTrackerTimeout = 30 * time.Second
	defaultLLMTimeout     = 2 * time.Minute
)

// Surfaces recorded with each history session.
const (
	surfaceChat  = "chat"
	surfaceAsk   = "ask"
	surfaceServe = "serve"
)

// depsOptions selects what a command needs.
type depsOptions struct {
	needLLM     bool
	needTracker bool
	// history enables turn recording for the given surface.
	history bool
	surface string
	// logOutput overrides where logs go when no log file is configured.
	logOutput io.Writer
}

// appDeps holds everything a command wires together.
type appDeps struct {
	Config    *config.Config
	Logger    *logging.Logger
	Tracker   *jira.Client
	LLM       *anthropic.Client
	Prompts   *service.PromptRenderer
	Gateway   *issues.Gateway
	Generator *issues.Generator
	Tools     *agent.Registry
	Reasoner  *agent.LLMReasoner
	Recorder  core.TurnRecorder
	Metrics   *service.MetricsCollector

	closers []func() error
}

// loadConfig loads and validates configuration with the global viper
// instance, so persistent flags take precedence.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func buildDeps(opts depsOptions) (*appDeps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	d := &appDeps{
		Config:   cfg,
		Recorder: history.NopRecorder{},
		Metrics:  service.NewMetricsCollector(),
	}

	out := opts.logOutput
	if out == nil {
		out = os.Stderr
	}
	if cfg.Log.File != "" {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		d.closers = append(d.closers, f.Close)
		out = f
	}
	d.Logger = logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  out,
		NoColor: noColor,
	})
	d.Logger.RedactSecrets(cfg.Tracker.APIToken, cfg.LLM.APIKey)

	if err := d.wire(opts); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *appDeps) wire(opts depsOptions) error {
	cfg := d.Config

	prompts, err := service.NewPromptRenderer()
	if err != nil {
		return fmt.Errorf("creating prompt renderer: %w", err)
	}
	d.Prompts = prompts

	if opts.needTracker {
		if err := config.RequireTracker(cfg); err != nil {
			return fmt.Errorf("jira is not configured: %w", err)
		}
		d.Tracker, err = jira.NewClient(jira.Config{
			BaseURL:    cfg.Tracker.URL,
			Email:      cfg.Tracker.Email,
			APIToken:   cfg.Tracker.APIToken,
			Timeout:    config.ParseTimeout(cfg.Tracker.Timeout, defaultTrackerTimeout),
			MaxResults: cfg.Tracker.MaxResults,
		}, d.Logger)
		if err != nil {
			return fmt.Errorf("creating jira client: %w", err)
		}
		d.Gateway = issues.NewGateway(d.Tracker, cfg.Tracker.DefaultIssueType, d.Logger)
	}

	if opts.needLLM {
		if err := config.RequireLLM(cfg); err != nil {
			return fmt.Errorf("model is not configured: %w", err)
		}
		d.LLM, err = anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     config.ParseTimeout(cfg.LLM.Timeout, defaultLLMTimeout),
		}, d.Logger)
		if err != nil {
			return fmt.Errorf("creating model client: %w", err)
		}
	}

	if d.Tracker != nil && d.LLM != nil {
		d.Generator = issues.NewGenerator(d.LLM, d.Tracker, prompts, issues.GeneratorConfig{
			EpicIssueType:  cfg.Tracker.EpicIssueType,
			StoryIssueType: cfg.Tracker.StoryIssueType,
			MaxTokens:      cfg.LLM.ExtractionMaxTokens,
		}, d.Logger)
		d.Tools = agent.DefaultRegistry(d.Gateway, d.Generator)
		d.Reasoner, err = agent.NewLLMReasoner(d.LLM, prompts, d.Tools, d.Logger)
		if err != nil {
			return err
		}
	}

	if opts.history {
		rec, closeFn, err := history.NewRecorder(cfg.History.Enabled, cfg.History.Path, history.WithSurface(opts.surface))
		if err != nil {
			d.Logger.Warn("history disabled", "path", cfg.History.Path, "error", err)
		} else {
			d.Recorder = rec
			d.closers = append(d.closers, closeFn)
		}
	}
	return nil
}

// NewDispatcher creates a dispatcher for one session.
func (d *appDeps) NewDispatcher(sessionID string) *agent.Dispatcher {
	return agent.NewDispatcher(d.Reasoner, d.Tools,
		agent.WithSessionID(sessionID),
		agent.WithRecorder(d.Recorder),
		agent.WithMetrics(d.Metrics),
		agent.WithLogger(d.Logger),
	)
}

// Close releases files and databases in reverse order.
func (d *appDeps) Close() {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	if err := errors.Join(errs...); err != nil && d.Logger != nil {
		d.Logger.Warn("cleanup failed", "error", err)
	}
}
