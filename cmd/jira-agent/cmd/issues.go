package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/fsutil"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/tui"
)

var createCmd = &cobra.Command{
	Use:   "create <input>",
	Short: "Create an issue without the assistant",
	Long: `Create a JIRA issue from the same input the assistant's tool accepts.

Examples:
  jira-agent create "SCRUM, Login page, Users can log in"
  jira-agent create "project_key=SCRUM, summary=Login, description=Users log in, parent_key=SCRUM-1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

var searchCmd = &cobra.Command{
	Use:   "search <jql>",
	Short: "Search issues with JQL",
	Example: `  jira-agent search "project = SCRUM AND status = 'To Do'"
  jira-agent search --json "assignee = currentUser()"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var editCmd = &cobra.Command{
	Use:   "edit <input>",
	Short: "Edit one field of an issue",
	Long: `Edit one field of a JIRA issue.

Examples:
  jira-agent edit "SCRUM-522, parent, SCRUM-525"
  jira-agent edit "SCRUM-522, labels=backend,urgent"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEdit,
}

var generateCmd = &cobra.Command{
	Use:   "generate [requirement]",
	Short: "Create epics and stories from a requirement",
	Long: `Ask the model to break a requirement into epics and stories and create
them in JIRA. Stories are linked to their epic.

The requirement is read from the arguments, or from --file.

Examples:
  jira-agent generate --project SCRUM "The app should support onboarding and notifications"
  jira-agent generate --project SCRUM --file docs/requirements.md`,
	RunE: runGenerate,
}

var (
	searchJSON      bool
	generateProject string
	generateFile    string
)

func init() {
	rootCmd.AddCommand(createCmd, searchCmd, editCmd, generateCmd)

	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	generateCmd.Flags().StringVarP(&generateProject, "project", "p", "", "project key (required)")
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "read the requirement from a file")
	_ = generateCmd.MarkFlagRequired("project")
}

func runCreate(cmd *cobra.Command, args []string) error {
	deps, err := buildDeps(depsOptions{needTracker: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	out := deps.Gateway.CreateIssue(cmd.Context(), strings.Join(args, " "))
	return printResult(cmd, tui.ModePlain, core.ToolResult{Text: out})
}

func runSearch(cmd *cobra.Command, args []string) error {
	deps, err := buildDeps(depsOptions{needTracker: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	mode := tui.ModePlain
	if searchJSON {
		mode = tui.ModeJSON
	}
	return printResult(cmd, mode, deps.Gateway.SearchIssues(cmd.Context(), strings.Join(args, " ")))
}

func runEdit(cmd *cobra.Command, args []string) error {
	deps, err := buildDeps(depsOptions{needTracker: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	out, err := deps.Gateway.EditIssue(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return errors.New(core.UserMessage(err))
	}
	return printResult(cmd, tui.ModePlain, core.ToolResult{Text: out})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	requirement, err := readRequirement(args, generateFile)
	if err != nil {
		return err
	}

	deps, err := buildDeps(depsOptions{needTracker: true, needLLM: true})
	if err != nil {
		return err
	}
	defer deps.Close()

	res := deps.Generator.Generate(cmd.Context(), generateInput(generateProject, requirement))
	if err := printResult(cmd, tui.ModePlain, core.ToolResult{Text: res.Text()}); err != nil {
		return err
	}
	if res.Err != nil {
		return fmt.Errorf("generation stopped after %d epics and %d stories", res.Epics, res.Stories)
	}
	return nil
}

// readRequirement takes the requirement from args, or from file when set.
func readRequirement(args []string, file string) (string, error) {
	if file != "" {
		if len(args) > 0 {
			return "", errors.New("pass the requirement as an argument or with --file, not both")
		}
		text, err := fsutil.ReadTextFile(file)
		if err != nil {
			return "", fmt.Errorf("reading requirement: %w", err)
		}
		return text, nil
	}
	if len(args) == 0 {
		return "", errors.New("a requirement is required")
	}
	return strings.Join(args, " "), nil
}

// generateInput builds the tool input the generator parses.
func generateInput(project, requirement string) string {
	return fmt.Sprintf("Project Key: %s, Requirement: %s", strings.TrimSpace(project), strings.TrimSpace(requirement))
}

func printResult(cmd *cobra.Command, mode tui.OutputMode, res core.ToolResult) error {
	return tui.NewFallbackOutput(mode).WithWriter(cmd.OutOrStdout()).Text(res)
}
