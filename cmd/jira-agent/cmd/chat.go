package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/tui"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/tui/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Long: `Start the interactive chat. Ask general questions, or ask the assistant
to create, search or edit JIRA issues, or to break a requirement into epics
and stories.

When stdout is not a terminal the chat reads one utterance per line from
stdin and prints each reply.`,
	RunE: runChat,
}

var chatOutput string

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatOutput, "output", "",
		"output mode (tui, plain, json); detected from the terminal by default")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector := tui.NewDetector().NoColor(noColor)
	if chatOutput != "" {
		detector.ForceMode(tui.ParseOutputMode(chatOutput))
	}
	mode := detector.Detect()

	// Logs would corrupt the full-screen prompt.
	var logOut io.Writer
	if mode == tui.ModeTUI {
		logOut = io.Discard
	}
	deps, err := buildDeps(depsOptions{
		needLLM:     true,
		needTracker: true,
		history:     true,
		surface:     surfaceChat,
		logOutput:   logOut,
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	d := deps.NewDispatcher("")
	deps.Logger.WithSession(d.SessionID()).Info("chat started", "mode", mode.String())

	if mode != tui.ModeTUI {
		return runLineChat(ctx, d, cmd.InOrStdin(), tui.NewFallbackOutput(mode).WithWriter(cmd.OutOrStdout()))
	}

	width, _ := tui.TerminalSize()
	model := chat.NewModel(ctx, d, chat.Options{
		Width:   width,
		Color:   detector.ShouldUseColor(),
		Version: appVersion,
	})
	return chat.Run(ctx, model)
}

// runLineChat runs one turn per input line until EOF or cancellation.
func runLineChat(ctx context.Context, d *agent.Dispatcher, in io.Reader, out *tui.FallbackOutput) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := out.Turn(d.Turn(ctx, line)); err != nil {
			return fmt.Errorf("writing reply: %w", err)
		}
	}
	return scanner.Err()
}
