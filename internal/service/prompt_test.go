package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptRenderer_Epics(t *testing.T) {
	r, err := NewPromptRenderer()
	require.NoError(t, err)

	out, err := r.RenderEpics(EpicsPromptParams{Requirement: "  Users can reset passwords.\n"})
	require.NoError(t, err)
	assert.Contains(t, out, "Return ONLY a valid JSON array")
	assert.Contains(t, out, `"epic description"`)
	assert.Contains(t, out, "Requirement:\nUsers can reset passwords.")
}

func TestPromptRenderer_Stories(t *testing.T) {
	r, err := NewPromptRenderer()
	require.NoError(t, err)

	out, err := r.RenderStories(StoriesPromptParams{
		EpicTitle:       "Onboarding",
		EpicDescription: "Sign up flow",
		StoryHints:      []string{"Email signup", "Social login"},
		Requirement:     "The app should support onboarding.",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Concerned Parent Epic Name: Onboarding")
	assert.Contains(t, out, "Concerned Parent Epic Description: Sign up flow")
	assert.Contains(t, out, "- Email signup\n- Social login")
	assert.Contains(t, out, `"summary": "Story Title"`)

	out, err = r.RenderStories(StoriesPromptParams{EpicTitle: "E", Requirement: "R"})
	require.NoError(t, err)
	assert.NotContains(t, out, "Stories already suggested")
}

func TestPromptRenderer_Reasoner(t *testing.T) {
	r, err := NewPromptRenderer()
	require.NoError(t, err)

	out, err := r.RenderReasoner(ReasonerPromptParams{Tools: []ToolInfo{
		{Name: "search_issues", Description: "Search with JQL."},
		{Name: "edit_issue", Description: "Edit one field."},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "### search_issues\n\nSearch with JQL.")
	assert.Contains(t, out, "### edit_issue")
	assert.Contains(t, out, `{"action": "tool"`)
}

func TestPromptRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewPromptRenderer()
	require.NoError(t, err)
	_, err = r.Render("missing", nil)
	assert.Error(t, err)
}
