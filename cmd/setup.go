package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecsboss/internal/awsapi"
)

// newSetupCmd creates the command that provisions the AWS resources a new
// project needs before its first deploy.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the image repository and log group for this project",
		Long: `Creates the ECR repository and the CloudWatch log group named after the
task definition family, both idempotently, and prints the snippets to
paste into the environment and the task definition file.`,
		Args: cobra.NoArgs,
		RunE: runSetup,
	}
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	def, err := loadTaskFile()
	if err != nil {
		return err
	}
	family := def.Family()

	ecrClient, err := awsapi.NewECRClient(ctx, awsOptions())
	if err != nil {
		return err
	}
	uri, err := ecrClient.EnsureRepository(ctx, family)
	if err != nil {
		return fmt.Errorf("ensuring repository %s: %w", family, err)
	}

	logsClient, err := awsapi.NewLogsClient(ctx, awsOptions())
	if err != nil {
		return err
	}
	if err := logsClient.EnsureLogGroup(ctx, family); err != nil {
		return fmt.Errorf("ensuring log group %s: %w", family, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Repository and log group for %s are ready.\n\n", family)
	fmt.Fprintln(out, "Export the repository for update-task and deploy:")
	fmt.Fprintf(out, "\n  export REPOSITORY=%s\n\n", uri)
	fmt.Fprintln(out, "Add this logConfiguration to each container that should log here:")
	fmt.Fprintf(out, `
  "logConfiguration": {
    "logDriver": "awslogs",
    "options": {
      "awslogs-group": %q,
      "awslogs-region": %q,
      "awslogs-stream-prefix": %q
    }
  }
`, family, rootRegion, family)
	return nil
}
