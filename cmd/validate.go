package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ecsboss/internal/config"
	"ecsboss/internal/watch"
	"ecsboss/pkg/logging"
)

// validateWatch keeps the command running and re-validates the definition
// files whenever one of them changes.
var validateWatch bool

// newValidateCmd creates the command that parses and validates the task and
// service definition files.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the task and service definition files",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	cmd.Flags().BoolVar(&validateWatch, "watch", false, "re-validate whenever a definition file changes")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	if !validateWatch {
		return validateOnce(cmd)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The first pass runs immediately; a broken file only logs so the
	// watch loop keeps running while the user edits.
	reportValidation(cmd)

	watcher, err := watch.New([]string{rootTaskFile, rootServiceFile}, 0)
	if err != nil {
		return err
	}
	changes := make(chan watch.Change, 8)
	if err := watcher.Start(ctx, changes); err != nil {
		return err
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-changes:
			logging.Info("Config", "%s changed, re-validating", change.Path)
			reportValidation(cmd)
		}
	}
}

// validateOnce loads both definition files and reports the first problem.
func validateOnce(cmd *cobra.Command) error {
	if _, err := config.LoadTaskDefinition(rootTaskFile); err != nil {
		return fmt.Errorf("%s: %w", rootTaskFile, err)
	}
	if _, err := config.LoadServiceDefinition(rootServiceFile); err != nil {
		return fmt.Errorf("%s: %w", rootServiceFile, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s and %s are valid.\n", rootTaskFile, rootServiceFile)
	return nil
}

func reportValidation(cmd *cobra.Command) {
	if err := validateOnce(cmd); err != nil {
		logging.Error("Config", err, "Validation failed")
	}
}
