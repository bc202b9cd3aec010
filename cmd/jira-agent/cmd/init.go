package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/config"
)

// projectConfigName is the per-directory config file.
const projectConfigName = config.ProjectFile

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file to .jira-agent.yaml in the current
directory, or to ~/.config/jira-agent/config.yaml with --global.

Credentials are best kept in the environment (JIRA_URL, JIRA_EMAIL,
JIRA_API_TOKEN, ANTHROPIC_API_KEY).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initForce  bool
	initGlobal bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write the per-user configuration")
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, err := initTarget(initGlobal)
	if err != nil {
		return err
	}

	written, err := config.WriteDefaultConfig(path, initForce)
	if err != nil {
		return err
	}
	if !written {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func initTarget(global bool) (string, error) {
	if global {
		return config.UserConfigPath()
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return filepath.Join(cwd, projectConfigName), nil
}
