// Package service holds the application services shared by the issue and
// agent layers.
package service

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.md.tmpl
var promptsFS embed.FS

const promptExt = ".md.tmpl"

// PromptRenderer renders the embedded LLM prompts. Templates are parsed
// once and are safe for concurrent use.
type PromptRenderer struct {
	set *template.Template
}

// NewPromptRenderer parses every embedded prompt template.
func NewPromptRenderer() (*PromptRenderer, error) {
	set, err := template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join, "trimSpace": strings.TrimSpace}).
		ParseFS(promptsFS, "prompts/*"+promptExt)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return &PromptRenderer{set: set}, nil
}

// EpicsPromptParams feeds the epic breakdown prompt.
type EpicsPromptParams struct {
	Requirement string
}

// RenderEpics renders the requirement-to-epics prompt.
func (r *PromptRenderer) RenderEpics(params EpicsPromptParams) (string, error) {
	return r.Render("epics", params)
}

// StoriesPromptParams feeds the per-epic story breakdown prompt.
type StoriesPromptParams struct {
	EpicTitle       string
	EpicDescription string
	// StoryHints are the story titles listed with the epic, if any.
	StoryHints  []string
	Requirement string
}

// RenderStories renders the epic-to-stories prompt.
func (r *PromptRenderer) RenderStories(params StoriesPromptParams) (string, error) {
	return r.Render("stories", params)
}

// ToolInfo describes one tool to the reasoner.
type ToolInfo struct {
	Name        string
	Description string
}

// ReasonerPromptParams feeds the tool-selection system prompt.
type ReasonerPromptParams struct {
	Tools []ToolInfo
}

// RenderReasoner renders the tool-selection system prompt.
func (r *PromptRenderer) RenderReasoner(params ReasonerPromptParams) (string, error) {
	return r.Render("reasoner", params)
}

// Render executes the prompt named name (file name without extension).
func (r *PromptRenderer) Render(name string, data any) (string, error) {
	tmpl := r.set.Lookup(name + promptExt)
	if tmpl == nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}
	return sb.String(), nil
}
