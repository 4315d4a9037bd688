package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ecsboss/internal/awsapi"
	"ecsboss/internal/ecs"
	"ecsboss/internal/formatting"
	"ecsboss/internal/reconcile"
)

// updateServiceRevision pins the task definition revision the service should
// run. Zero means the latest registered revision.
var updateServiceRevision int

// newUpdateServiceCmd creates the command that reconciles the local service
// definition against the remote service.
func newUpdateServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-service",
		Short: "Point the remote service at a task definition revision",
		Long: `Merges the local service definition file over the remote service and
updates it to run the given task definition revision (the latest one when
--revision is not set). A service that doesn't exist remotely is never
created; the payload to create it manually is printed instead.`,
		Args: cobra.NoArgs,
		RunE: runUpdateService,
	}
	cmd.Flags().IntVar(&updateServiceRevision, "revision", 0, "task definition revision to run (0 = latest)")
	return cmd
}

func runUpdateService(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	local, err := loadServiceFile()
	if err != nil {
		return err
	}

	client, err := awsapi.NewECSClient(ctx, awsOptions())
	if err != nil {
		return err
	}

	reference, err := resolveTaskReference(cmd, client, local.TaskDefinition(), updateServiceRevision)
	if err != nil {
		return err
	}

	outcome, err := reconcile.New(client).CreateOrUpdateService(ctx, local, reference)
	if err != nil {
		return err
	}
	return reportServiceOutcome(cmd, outcome, reference)
}

// resolveTaskReference turns a family plus optional revision into the
// family:revision reference submitted to the scheduler.
func resolveTaskReference(cmd *cobra.Command, client *awsapi.ECSClient, family string, revision int) (string, error) {
	if revision > 0 {
		return fmt.Sprintf("%s:%d", family, revision), nil
	}
	remote, err := client.LatestTaskDefinition(cmd.Context(), family)
	if err != nil {
		return "", fmt.Errorf("describing latest revision of %s: %w", family, err)
	}
	if remote == nil {
		return "", fmt.Errorf("task definition family %s does not exist, run update-task first", family)
	}
	return ecs.NewTaskDefinition(remote).FamilyRevision(), nil
}

// reportServiceOutcome prints the result of a service reconciliation. A
// missing remote service prints the create payload and fails the command so
// scripts notice the gap.
func reportServiceOutcome(cmd *cobra.Command, outcome *reconcile.ServiceOutcome, reference string) error {
	out := cmd.OutOrStdout()
	if outcome.CreationRequired {
		fmt.Fprintln(out, "The service does not exist and will not be created automatically.")
		fmt.Fprintln(out, "Create it with this payload:")
		if err := formatting.RenderPayload(out, outcome.CreatePayload); err != nil {
			return err
		}
		return errors.New("service must be created manually")
	}
	fmt.Fprintf(out, "Service %s now runs %s with desired count %d.\n",
		outcome.Service.Name(), reference, outcome.Service.DesiredCount())
	return nil
}
