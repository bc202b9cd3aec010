// Package chat is the interactive terminal front-end. Turns are printed
// above the prompt so the terminal scrollback keeps the whole conversation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/clip"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/fsutil"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
)

// Dispatcher runs turns for the chat.
type Dispatcher interface {
	Turn(ctx context.Context, utterance string) agent.TurnResult
	Reset() string
	SessionID() string
	Transcript() *core.Transcript
}

// Copier puts text on a clipboard.
type Copier interface {
	Copy(text string) (clip.Result, error)
}

// Options configures the chat model.
type Options struct {
	Width   int
	Color   bool
	Copier  Copier
	Version string
}

// turnDoneMsg carries a finished turn back to Update.
type turnDoneMsg struct {
	result agent.TurnResult
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	ctx        context.Context
	dispatcher Dispatcher
	commands   *CommandRegistry
	renderer   *Renderer
	copier     Copier
	version    string

	input       textinput.Model
	spinner     spinner.Model
	processing  bool
	quitting    bool
	suggestions []string
}

// NewModel creates a chat model bound to a dispatcher.
func NewModel(ctx context.Context, d Dispatcher, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything, or manage JIRA issues... (/help for commands)"
	ti.Prompt = "› "
	ti.CharLimit = 8192
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	copier := opts.Copier
	if copier == nil {
		copier = clip.New()
	}

	return Model{
		ctx:        ctx,
		dispatcher: d,
		commands:   NewCommandRegistry(),
		renderer:   NewRenderer(opts.Width, opts.Color),
		copier:     copier,
		version:    opts.Version,
		input:      ti,
		spinner:    sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.Println(m.welcome()))
}

func (m Model) welcome() string {
	title := "🤖 JIRA Agent"
	if m.version != "" {
		title += " " + m.version
	}
	return m.renderer.Notice(title + "\nHi! Ask me anything, or let me create, search, edit, or plan JIRA issues for you.")
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.renderer.SetWidth(msg.Width)
		m.input.Width = msg.Width - 4
		return m, nil

	case turnDoneMsg:
		m.processing = false
		return m, tea.Println(m.renderer.Reply(msg.result))

	case spinner.TickMsg:
		if !m.processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		m.quitting = true
		return m, tea.Quit
	}
	if m.processing {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		m.suggestions = nil
		if value == "" {
			return m, nil
		}
		if cmd, args, ok := m.commands.Parse(value); ok {
			var out string
			var teaCmd tea.Cmd
			m, out, teaCmd = m.runCommand(cmd, args, value)
			switch {
			case out == "":
				return m, teaCmd
			case teaCmd == nil:
				return m, tea.Println(out)
			}
			return m, tea.Sequence(tea.Println(out), teaCmd)
		}
		m.processing = true
		return m, tea.Batch(
			tea.Println(m.renderer.User(value)),
			m.runTurn(value),
			m.spinner.Tick,
		)

	case tea.KeyTab:
		if len(m.suggestions) > 0 {
			m.input.SetValue("/" + m.suggestions[0] + " ")
			m.input.CursorEnd()
			m.suggestions = nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.suggestions = nil
	if v := m.input.Value(); strings.HasPrefix(v, "/") && !strings.Contains(v, " ") {
		m.suggestions = m.commands.Suggest(v)
	}
	return m, cmd
}

// runTurn runs the dispatcher off the UI goroutine.
func (m Model) runTurn(utterance string) tea.Cmd {
	ctx, d := m.ctx, m.dispatcher
	return func() tea.Msg {
		return turnDoneMsg{result: d.Turn(ctx, utterance)}
	}
}

// runCommand executes a slash command and returns the text to print.
func (m Model) runCommand(cmd *Command, args []string, raw string) (Model, string, tea.Cmd) {
	if cmd == nil {
		name := strings.Fields(raw)[0]
		msg := "Unknown command: " + name
		if s := m.commands.Suggest(name); len(s) > 0 {
			msg += fmt.Sprintf(". Did you mean /%s?", s[0])
		}
		return m, m.renderer.Error(msg + " Type /help for commands."), nil
	}
	if cmd.RequiresArg() && len(args) == 0 {
		return m, m.renderer.Error("Usage: " + cmd.Usage), nil
	}

	switch cmd.Name {
	case cmdHelp:
		topic := ""
		if len(args) > 0 {
			topic = args[0]
		}
		return m, m.renderer.Notice(m.commands.Help(topic)), nil

	case cmdReset:
		id := m.dispatcher.Reset()
		return m, m.renderer.Notice("🔄 Started a new session " + shortID(id) + "."), nil

	case cmdCopy:
		text := m.dispatcher.Transcript().Markdown()
		if text == "" {
			return m, m.renderer.Notice("Nothing to copy yet."), nil
		}
		res, err := m.copier.Copy(text)
		if err != nil {
			return m, m.renderer.Error("Copy failed: " + err.Error()), nil
		}
		return m, m.renderer.Notice(res.String()), nil

	case cmdSave:
		path := strings.Join(args, " ")
		text := m.dispatcher.Transcript().Markdown()
		if err := fsutil.AtomicWriteFile(path, []byte(text), 0o644); err != nil {
			return m, m.renderer.Error("Save failed: " + err.Error()), nil
		}
		return m, m.renderer.Notice("💾 Transcript saved to " + path), nil

	case cmdQuit:
		m.quitting = true
		return m, "", tea.Quit
	}
	return m, "", nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.processing {
		return m.spinner.View() + " Processing...\n"
	}
	view := m.input.View() + "\n"
	if len(m.suggestions) > 0 {
		shown := m.suggestions
		if len(shown) > 4 {
			shown = shown[:4]
		}
		view += m.renderer.style(mutedColor).Render("  /"+strings.Join(shown, "  /")+"  (tab)") + "\n"
	}
	return view
}

// Processing reports whether a turn is in flight.
func (m Model) Processing() bool {
	return m.processing
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Run starts the chat and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
