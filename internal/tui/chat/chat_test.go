package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/clip"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
)

type fakeDispatcher struct {
	transcript *core.Transcript
	turns      []string
	resets     int
	reply      agent.TurnResult
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{transcript: core.NewTranscript()}
}

func (f *fakeDispatcher) Turn(_ context.Context, utterance string) agent.TurnResult {
	f.turns = append(f.turns, utterance)
	f.transcript.Append(core.RoleUser, utterance)
	f.transcript.Append(core.RoleAssistant, f.reply.Reply)
	return f.reply
}

func (f *fakeDispatcher) Reset() string {
	f.resets++
	f.transcript.Reset()
	return "0123456789abcdef"
}

func (f *fakeDispatcher) SessionID() string            { return "0123456789abcdef" }
func (f *fakeDispatcher) Transcript() *core.Transcript { return f.transcript }

type fakeCopier struct {
	text string
	err  error
}

func (c *fakeCopier) Copy(text string) (clip.Result, error) {
	c.text = text
	return clip.Result{Method: clip.MethodNative}, c.err
}

func newTestModel(d Dispatcher, c Copier) Model {
	return NewModel(context.Background(), d, Options{Width: 80, Copier: c})
}

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestModel_TurnLifecycle(t *testing.T) {
	d := newFakeDispatcher()
	d.reply = agent.TurnResult{Seq: 1, Reply: "Paris"}
	m := newTestModel(d, nil)

	m, cmd := typeAndEnter(t, m, "  Capital of France?  ")
	require.NotNil(t, cmd)
	assert.True(t, m.Processing())
	assert.Contains(t, m.View(), "Processing...")
	assert.Empty(t, m.input.Value())

	// Keys other than quit are ignored while a turn runs.
	m.input.SetValue("typed")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.True(t, m.Processing())

	msg := m.runTurn("Capital of France?")()
	done, ok := msg.(turnDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "Paris", done.result.Reply)
	assert.Equal(t, []string{"Capital of France?"}, d.turns)

	next, cmd = m.Update(done)
	m = next.(Model)
	assert.False(t, m.Processing())
	assert.NotNil(t, cmd)
	assert.NotContains(t, m.View(), "Processing...")
}

func TestModel_BlankInputDoesNothing(t *testing.T) {
	d := newFakeDispatcher()
	m, cmd := typeAndEnter(t, newTestModel(d, nil), "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.Processing())
	assert.Empty(t, d.turns)
}

func TestModel_Commands(t *testing.T) {
	d := newFakeDispatcher()
	d.transcript.Append(core.RoleUser, "hi")
	d.transcript.Append(core.RoleAssistant, "hello")
	copier := &fakeCopier{}
	m := newTestModel(d, copier)

	_, out, _ := m.runCommand(m.commands.Get("help"), nil, "/help")
	assert.Contains(t, out, "/save <path>")

	_, out, _ = m.runCommand(m.commands.Get("copy"), nil, "/copy")
	assert.Contains(t, out, "copied to clipboard")
	assert.Equal(t, "### You\n\nhi\n\n### Assistant\n\nhello\n", copier.text)

	path := filepath.Join(t.TempDir(), "chat.md")
	_, out, _ = m.runCommand(m.commands.Get("save"), []string{path}, "/save "+path)
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, copier.text, string(data))

	_, out, _ = m.runCommand(m.commands.Get("save"), nil, "/save")
	assert.Contains(t, out, "Usage: /save <path>")

	_, out, _ = m.runCommand(m.commands.Get("reset"), nil, "/reset")
	assert.Contains(t, out, "01234567")
	assert.Equal(t, 1, d.resets)

	_, out, _ = m.runCommand(m.commands.Get("copy"), nil, "/copy")
	assert.Equal(t, "Nothing to copy yet.", out)
}

func TestModel_CopyFailure(t *testing.T) {
	d := newFakeDispatcher()
	d.transcript.Append(core.RoleUser, "hi")
	m := newTestModel(d, &fakeCopier{err: errors.New("no display")})

	_, out, _ := m.runCommand(m.commands.Get("copy"), nil, "/copy")
	assert.Contains(t, out, "Copy failed: no display")
}

func TestModel_UnknownCommandSuggests(t *testing.T) {
	m := newTestModel(newFakeDispatcher(), nil)
	cmd, args, ok := m.commands.Parse("/sav notes.md")
	require.True(t, ok)
	assert.Nil(t, cmd)

	_, out, _ := m.runCommand(cmd, args, "/sav notes.md")
	assert.Contains(t, out, "Unknown command: /sav")
	assert.Contains(t, out, "Did you mean /save?")
}

func TestModel_QuitCommand(t *testing.T) {
	m, cmd := typeAndEnter(t, newTestModel(newFakeDispatcher(), nil), "/exit")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_CtrlCQuitsWhileProcessing(t *testing.T) {
	m := newTestModel(newFakeDispatcher(), nil)
	m.processing = true
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(Model).View())
}

func TestModel_TabCompletesCommand(t *testing.T) {
	m := newTestModel(newFakeDispatcher(), nil)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("sa")})
	m = next.(Model)
	require.NotEmpty(t, m.suggestions)
	assert.Equal(t, "save", m.suggestions[0])
	assert.Contains(t, m.View(), "/save")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/save ", next.(Model).input.Value())
}

func TestCommandRegistry(t *testing.T) {
	r := NewCommandRegistry()

	cmd, args, ok := r.Parse("/SAVE out.md")
	require.True(t, ok)
	assert.Equal(t, "save", cmd.Name)
	assert.Equal(t, []string{"out.md"}, args)

	cmd, _, ok = r.Parse("/q")
	require.True(t, ok)
	assert.Equal(t, "quit", cmd.Name)

	_, _, ok = r.Parse("create an issue")
	assert.False(t, ok)

	assert.Equal(t, []string{"copy", "help", "quit", "reset", "save"}, r.Suggest("/"))
	assert.Equal(t, "reset", r.Suggest("new")[0])
	assert.True(t, r.Get("save").RequiresArg())
	assert.False(t, r.Get("help").RequiresArg())
	assert.Contains(t, r.Help("exit"), "Usage: /quit")
	assert.Equal(t, "Unknown command: nope", r.Help("nope"))
}

func TestRenderer_ReplyWithTable(t *testing.T) {
	r := NewRenderer(100, false)
	out := r.Reply(agent.TurnResult{
		Tool:  "search_issues",
		Reply: "Found 1 issues for query: `project = SCRUM`. Table will appear below.",
		Table: core.SearchResultSet{{
			Key: "SCRUM-1", Summary: "Login", Status: "To Do",
			Assignee: "Unassigned", IssueType: "Task", Priority: "None",
		}},
	})

	assert.Contains(t, out, "search_issues")
	assert.Contains(t, out, "Found 1 issues")
	assert.Contains(t, out, SearchResultsHeading)
	for _, want := range []string{"Key", "Priority", "SCRUM-1", "Login", "Unassigned", "None"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderer_ErrorReplyIsNotMarkdown(t *testing.T) {
	r := NewRenderer(80, false)
	out := r.Reply(agent.TurnResult{Reply: "❌ Error: unknown tool \"x\"", IsError: true})
	assert.Contains(t, out, "❌ Error: unknown tool \"x\"")
	assert.NotContains(t, out, SearchResultsHeading)
}

func TestRenderer_Markdown(t *testing.T) {
	r := NewRenderer(80, false)
	out := r.Markdown("**Paris** is the capital.")
	assert.Contains(t, out, "Paris")
	assert.False(t, strings.HasPrefix(out, "\n"))
}
