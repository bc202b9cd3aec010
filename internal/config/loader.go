package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (JIRA_AGENT_LLM_MODEL, ...).
const EnvPrefix = "JIRA_AGENT"

// ProjectFile is the per-directory config file, read before the user file.
const ProjectFile = ".jira-agent.yaml"

// envAliases binds the plain variable names used by existing deployments.
// The prefixed name is listed first so it wins.
var envAliases = map[string][]string{
	"tracker.url":       {"JIRA_AGENT_TRACKER_URL", "JIRA_URL"},
	"tracker.email":     {"JIRA_AGENT_TRACKER_EMAIL", "JIRA_EMAIL"},
	"tracker.api_token": {"JIRA_AGENT_TRACKER_API_TOKEN", "JIRA_API_TOKEN"},
	"llm.api_key":       {"JIRA_AGENT_LLM_API_KEY", "ANTHROPIC_API_KEY"},
}

// Loader resolves a Config from, highest first: bound CLI flags,
// environment, the project file, the user file and Default().
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader uses a private viper instance.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper uses v, so flags already bound to it take effect.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// WithConfigFile reads path instead of searching. A missing explicit file
// is an error.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.file = path
	return l
}

// Viper exposes the underlying instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// ConfigFile returns the file that was read, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	for key, val := range defaultValues(Default()) {
		l.v.SetDefault(key, val)
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for key, names := range envAliases {
		if err := l.v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if err := l.read(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) read() error {
	path := l.file
	if path == "" {
		path = l.discover()
		if path == "" {
			return nil
		}
	}
	l.v.SetConfigType("yaml")
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// discover returns the first existing candidate file, or "".
func (l *Loader) discover() string {
	candidates := []string{ProjectFile}
	if user, err := UserConfigPath(); err == nil {
		candidates = append(candidates, user)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		} else if !errors.Is(err, fs.ErrNotExist) {
			return c // let ReadInConfig report it
		}
	}
	return ""
}

// defaultValues flattens d into viper keys. Every key is listed, blank
// secrets included, so AutomaticEnv sees it during Unmarshal.
func defaultValues(d *Config) map[string]any {
	return map[string]any{
		"log.level":  d.Log.Level,
		"log.format": d.Log.Format,
		"log.file":   d.Log.File,

		"llm.api_key":               "",
		"llm.base_url":              d.LLM.BaseURL,
		"llm.model":                 d.LLM.Model,
		"llm.temperature":           d.LLM.Temperature,
		"llm.max_tokens":            d.LLM.MaxTokens,
		"llm.extraction_max_tokens": d.LLM.ExtractionMaxTokens,
		"llm.timeout":               d.LLM.Timeout,

		"tracker.url":                "",
		"tracker.email":              "",
		"tracker.api_token":          "",
		"tracker.timeout":            d.Tracker.Timeout,
		"tracker.default_issue_type": d.Tracker.DefaultIssueType,
		"tracker.epic_issue_type":    d.Tracker.EpicIssueType,
		"tracker.story_issue_type":   d.Tracker.StoryIssueType,
		"tracker.max_results":        d.Tracker.MaxResults,

		"history.enabled": d.History.Enabled,
		"history.path":    d.History.Path,

		"server.addr": d.Server.Addr,
	}
}

func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jira-agent"), nil
}
