package config

import (
	"gopkg.in/yaml.v3"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		LLM: LLMConfig{
			Model:               "claude-sonnet-4-5-20250929",
			Temperature:         0.3,
			MaxTokens:           8192,
			ExtractionMaxTokens: 4096,
			Timeout:             "2m",
		},
		Tracker: TrackerConfig{
			Timeout:          "30s",
			DefaultIssueType: "Task",
			EpicIssueType:    "Epic",
			StoryIssueType:   "Story",
			MaxResults:       50,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    ".jira-agent/history.db",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

const defaultConfigHeader = `# jira-agent configuration
#
# Secrets are better supplied through the environment:
#   JIRA_URL, JIRA_EMAIL, JIRA_API_TOKEN, ANTHROPIC_API_KEY
# Any key can be overridden with JIRA_AGENT_<SECTION>_<KEY>.

`

// DefaultConfigYAML renders the default configuration with secrets blank.
// This is used by `jira-agent init`.
func DefaultConfigYAML() ([]byte, error) {
	body, err := yaml.Marshal(Default())
	if err != nil {
		return nil, err
	}
	return append([]byte(defaultConfigHeader), body...), nil
}
