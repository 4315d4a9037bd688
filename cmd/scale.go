package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ecsboss/internal/awsapi"
	"ecsboss/pkg/logging"
)

const (
	// scalePollInterval is how often the running count is re-checked.
	scalePollInterval = 2 * time.Second

	// scaleTimeout bounds how long a scale operation waits for the
	// scheduler to converge.
	scaleTimeout = 300 * time.Second
)

// newScaleCmd creates the command that changes the service's desired count
// and waits for the scheduler to converge.
func newScaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scale COUNT",
		Short: "Scale the service to COUNT running tasks",
		Args:  cobra.ExactArgs(1),
		RunE:  runScale,
	}
}

func runScale(cmd *cobra.Command, args []string) error {
	count, err := strconv.Atoi(args[0])
	if err != nil || count < 0 {
		return fmt.Errorf("COUNT must be a non-negative integer, got %q", args[0])
	}

	ctx := cmd.Context()
	local, err := loadServiceFile()
	if err != nil {
		return err
	}

	client, err := awsapi.NewECSClient(ctx, awsOptions())
	if err != nil {
		return err
	}

	cluster := local.Cluster
	name := local.Name()
	logging.Info("AWS", "Scaling service %s in cluster %s to %d", name, cluster, count)
	if _, err := client.UpdateService(ctx, cluster, name, count, local.TaskDefinition()); err != nil {
		return fmt.Errorf("scaling service %s: %w", name, err)
	}

	if err := waitForRunningCount(ctx, client, cluster, name, count); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Service %s is running %d task(s).\n", name, count)
	return nil
}

// waitForRunningCount polls the service until its running count matches
// want, with a spinner so long waits stay visible.
func waitForRunningCount(ctx context.Context, client *awsapi.ECSClient, cluster, service string, want int) error {
	ctx, cancel := context.WithTimeout(ctx, scaleTimeout)
	defer cancel()

	s := newSpinner(fmt.Sprintf("waiting for %s to reach %d running task(s)", service, want))
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(scalePollInterval)
	defer ticker.Stop()

	for {
		running, err := client.RunningCount(ctx, cluster, service)
		if err != nil {
			return err
		}
		if running == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service %s did not reach %d running task(s) within %s", service, want, scaleTimeout)
		case <-ticker.C:
		}
	}
}
