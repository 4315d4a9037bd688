package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ecsboss/internal/git"
)

// newCheckGitCmd creates the command that gates deploys on a clean working
// tree.
func newCheckGitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-git",
		Short: "Fail unless the git working tree is clean",
		Long: `Checks the working tree for unstaged or uncommitted changes. Deploying
from a dirty tree produces releases that can't be reproduced from a tag, so
update-task and deploy run this check too. A directory that is not a git
repository counts as clean.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireCleanTree(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Working tree is clean.")
			return nil
		},
	}
}

// requireCleanTree errors with every dirty-tree reason when the working tree
// has local changes.
func requireCleanTree(cmd *cobra.Command) error {
	clean, reasons := git.IsClean(cmd.Context())
	if clean {
		return nil
	}
	return fmt.Errorf("working tree is not clean: %s", strings.Join(reasons, "; "))
}
