package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/adapters/history"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/fsutil"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded chat sessions",
	Long: `Recorded sessions live in the history database (history.path).
Session ids may be abbreviated to any unique prefix.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Print the turns of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <session>",
	Short: "Export a session transcript as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session>",
	Short: "Delete a recorded session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var (
	historyLimit  int
	historyOutput string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyDeleteCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum sessions to list (0 = all)")
	historyExportCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "write to a file instead of stdout")
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled (history.enabled = false)")
	}
	return history.Open(cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	return writeSessionTable(cmd.OutOrStdout(), sessions)
}

func writeSessionTable(w io.Writer, sessions []history.SessionSummary) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded.")
		return err
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.Surface,
			s.StartedAt.Local().Format(time.DateTime),
			s.UpdatedAt.Local().Format(time.DateTime),
			strconv.Itoa(s.TurnCount),
		})
	}
	t := table.New().
		Border(lipgloss.ASCIIBorder()).
		Headers("Session", "Surface", "Started", "Updated", "Turns").
		Rows(rows...).
		StyleFunc(func(_, _ int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) })
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func loadSessionTurns(cmd *cobra.Command, store *history.Store, prefix string) ([]core.TurnRecord, error) {
	id, err := store.ResolveSession(cmd.Context(), prefix)
	if err != nil {
		return nil, err
	}
	return store.LoadTurns(cmd.Context(), id)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	turns, err := loadSessionTurns(cmd, store, args[0])
	if err != nil {
		return err
	}
	return writeTurns(cmd.OutOrStdout(), turns)
}

func writeTurns(w io.Writer, turns []core.TurnRecord) error {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "#%d  %s", t.Seq, t.CreatedAt.Local().Format(time.DateTime))
		if t.Tool != "" {
			fmt.Fprintf(&sb, "  [%s]", t.Tool)
		}
		if t.RowCount > 0 {
			fmt.Fprintf(&sb, "  (%d rows)", t.RowCount)
		}
		if t.IsError {
			sb.WriteString("  error")
		}
		fmt.Fprintf(&sb, "\n> %s\n%s\n", t.Utterance, t.Reply)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	turns, err := loadSessionTurns(cmd, store, args[0])
	if err != nil {
		return err
	}
	md := history.ToTranscript(turns).Markdown()

	if historyOutput == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), md)
		return err
	}
	if err := fsutil.AtomicWriteFile(historyOutput, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s\n", historyOutput)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.ResolveSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := store.DeleteSession(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
	return nil
}
