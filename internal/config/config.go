package config

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Tracker TrackerConfig `mapstructure:"tracker" yaml:"tracker"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// File receives logs in chat mode so they do not corrupt the terminal UI.
	File string `mapstructure:"file" yaml:"file"`
}

// LLMConfig configures the hosted model.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	// ExtractionMaxTokens limits the epic/story extraction replies.
	ExtractionMaxTokens int    `mapstructure:"extraction_max_tokens" yaml:"extraction_max_tokens"`
	Timeout             string `mapstructure:"timeout" yaml:"timeout"`
}

// TrackerConfig configures the Jira connection and issue type names.
type TrackerConfig struct {
	URL              string `mapstructure:"url" yaml:"url"`
	Email            string `mapstructure:"email" yaml:"email"`
	APIToken         string `mapstructure:"api_token" yaml:"api_token"`
	Timeout          string `mapstructure:"timeout" yaml:"timeout"`
	DefaultIssueType string `mapstructure:"default_issue_type" yaml:"default_issue_type"`
	EpicIssueType    string `mapstructure:"epic_issue_type" yaml:"epic_issue_type"`
	StoryIssueType   string `mapstructure:"story_issue_type" yaml:"story_issue_type"`
	MaxResults       int    `mapstructure:"max_results" yaml:"max_results"`
}

// HistoryConfig configures the turn history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ServerConfig configures `jira-agent serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}
