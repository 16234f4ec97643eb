package cli

import (
	"errors"

	"github.com/mvp-joe/ccflex/internal/workspace"
	"github.com/spf13/cobra"
)

var workspaceForceFlag bool

// workspaceCmd groups the workspace subcommands
var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage the ccflex workspace directory",
}

var workspaceInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workspace directories",
	Long: `Init creates the configured workspace with its results, processing and
reports directories.

Examples:
  # Create the workspace, failing if it exists
  ccflex workspace init

  # Create any missing directories of an existing workspace
  ccflex workspace init --force
`,
	RunE: runWorkspaceInit,
}

var workspaceCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the workspace and everything in it",
	Long: `Clean deletes the configured workspace directory, including extracted
tables, vocabularies, models and exported datasets.

The configuration file (.ccflex/config.yml) is preserved.
`,
	RunE: runWorkspaceClean,
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceInitCmd, workspaceCleanCmd)
	workspaceInitCmd.Flags().BoolVarP(&workspaceForceFlag, "force", "f", false, "Reuse an existing workspace")
}

func runWorkspaceInit(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ws := s.workspace
	if workspaceForceFlag {
		err = ws.Ensure()
	} else {
		err = ws.Create()
	}
	if errors.Is(err, workspace.ErrExists) {
		s.printf("Workspace %s already exists (use --force to reuse it)\n", ws.Root)
		return err
	}
	if err != nil {
		return err
	}

	s.printf("✓ Workspace ready: %s\n", ws.Root)
	return nil
}

func runWorkspaceClean(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if !s.workspace.Exists() {
		s.printf("No workspace found at %s\n", s.workspace.Root)
		return nil
	}
	if err := s.workspace.Remove(); err != nil {
		return err
	}
	s.printf("✓ Removed workspace %s\n", s.workspace.Root)
	return nil
}
