package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/tui"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Run a single chat turn",
	Long: `Send one message to the assistant and print the reply. The assistant
may answer directly or use a JIRA tool, exactly as in the chat.

Examples:
  jira-agent ask "what is a story point?"
  jira-agent ask "show open bugs in project SCRUM"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var askJSON bool

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the turn as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	deps, err := buildDeps(depsOptions{
		needLLM:     true,
		needTracker: true,
		history:     true,
		surface:     surfaceAsk,
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	mode := tui.ModePlain
	if askJSON {
		mode = tui.ModeJSON
	}
	res := deps.NewDispatcher("").Turn(cmd.Context(), strings.Join(args, " "))
	return tui.NewFallbackOutput(mode).WithWriter(cmd.OutOrStdout()).Turn(res)
}
