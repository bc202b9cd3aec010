package chat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	cmdHelp  = "help"
	cmdReset = "reset"
	cmdCopy  = "copy"
	cmdSave  = "save"
	cmdQuit  = "quit"
)

// Command is a slash command handled locally instead of being sent to the
// assistant.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// RequiresArg reports whether Usage names a required <arg>.
func (c *Command) RequiresArg() bool {
	i := strings.Index(c.Usage, "<")
	return i >= 0 && strings.Contains(c.Usage[i:], ">")
}

func (c *Command) aliasList() string {
	return strings.Join(c.Aliases, ", ")
}

// CommandRegistry resolves slash commands by name or alias.
type CommandRegistry struct {
	byKey map[string]*Command // names and aliases
	cmds  []*Command          // sorted by name
}

var builtinCommands = []Command{
	{cmdHelp, []string{"h", "?"}, "Show available commands", "/help [command]"},
	{cmdReset, []string{"new", "clear"}, "Start a new session with an empty transcript", "/reset"},
	{cmdCopy, []string{"cp"}, "Copy the transcript to the clipboard", "/copy"},
	{cmdSave, []string{"export"}, "Save the transcript as markdown", "/save <path>"},
	{cmdQuit, []string{"exit", "q"}, "Leave the chat", "/quit"},
}

// NewCommandRegistry returns a registry holding the chat commands.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{byKey: make(map[string]*Command)}
	for i := range builtinCommands {
		c := builtinCommands[i]
		r.Register(&c)
	}
	return r
}

// Register adds cmd, replacing any command with the same name.
func (r *CommandRegistry) Register(cmd *Command) {
	r.cmds = slices.DeleteFunc(r.cmds, func(c *Command) bool { return c.Name == cmd.Name })
	r.cmds = append(r.cmds, cmd)
	slices.SortFunc(r.cmds, func(a, b *Command) int { return strings.Compare(a.Name, b.Name) })

	r.byKey[cmd.Name] = cmd
	for _, a := range cmd.Aliases {
		r.byKey[a] = cmd
	}
}

// Get returns the command for a name or alias, or nil.
func (r *CommandRegistry) Get(name string) *Command {
	return r.byKey[name]
}

// Parse splits input into a command and its arguments. ok is false when
// input is not a slash command. An unknown slash command yields a nil
// command with ok true.
func (r *CommandRegistry) Parse(input string) (cmd *Command, args []string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(input), "/")
	if !found {
		return nil, nil, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, nil, true
	}
	return r.Get(strings.ToLower(fields[0])), fields[1:], true
}

// Suggest fuzzy-matches partial against names and aliases and returns the
// distinct command names, best first. An empty partial lists everything.
func (r *CommandRegistry) Suggest(partial string) []string {
	partial = strings.ToLower(strings.TrimPrefix(partial, "/"))

	out := make([]string, 0, len(r.cmds))
	if partial == "" {
		for _, c := range r.cmds {
			out = append(out, c.Name)
		}
		return out
	}

	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, m := range fuzzy.Find(partial, keys) {
		name := r.byKey[m.Str].Name
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// Help describes one command, or lists all of them when topic is empty.
func (r *CommandRegistry) Help(topic string) string {
	if topic != "" {
		c := r.Get(strings.TrimPrefix(topic, "/"))
		if c == nil {
			return "Unknown command: " + topic
		}
		s := c.Name
		if len(c.Aliases) > 0 {
			s += " (aliases: " + c.aliasList() + ")"
		}
		return fmt.Sprintf("%s\n\n%s\n\nUsage: %s", s, c.Description, c.Usage)
	}

	var sb strings.Builder
	sb.WriteString("Available commands:\n\n")
	for _, c := range r.cmds {
		fmt.Fprintf(&sb, "  %s", c.Usage)
		if len(c.Aliases) > 0 {
			fmt.Fprintf(&sb, " (%s)", c.aliasList())
		}
		fmt.Fprintf(&sb, "\n    %s\n", c.Description)
	}
	sb.WriteString("\nAnything else is sent to the assistant.")
	return sb.String()
}
