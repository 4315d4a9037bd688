package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ecsboss/internal/awsapi"
	"ecsboss/internal/ecs"
	"ecsboss/pkg/logging"
)

// runContainer selects which container the command override targets.
// Defaults to the first container in the task definition.
var runContainer string

// taskPollInterval is how often one-off task status is re-checked.
const taskPollInterval = 2 * time.Second

// newRunCmd creates the command that starts a one-off task with a command
// override, waits for it to stop and tails its log stream.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run COMMAND...",
		Short: "Run a one-off command as an ECS task",
		Long: `Starts a single task from the latest registered revision with the given
command overriding the container's default. The override is built from the
tracked changes only, no new revision is registered. When the container logs
to CloudWatch via the awslogs driver, the task's log stream is tailed until
the task stops.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRun,
	}
	cmd.Flags().StringVar(&runContainer, "container", "", "container to run the command in (defaults to the first container)")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	def, err := loadTaskFile()
	if err != nil {
		return err
	}
	service, err := loadServiceFile()
	if err != nil {
		return err
	}

	container := runContainer
	if container == "" {
		names := def.ContainerNames()
		if len(names) == 0 {
			return fmt.Errorf("%s has no containers", rootTaskFile)
		}
		container = names[0]
	}

	if err := def.SetCommands(map[string]string{container: strings.Join(args, " ")}); err != nil {
		return err
	}
	overrides := def.Overrides()

	client, err := awsapi.NewECSClient(ctx, awsOptions())
	if err != nil {
		return err
	}
	reference, err := resolveTaskReference(cmd, client, def.Family(), 0)
	if err != nil {
		return err
	}

	cluster := service.Cluster
	arns, err := client.RunTask(ctx, cluster, reference, 1, overrides)
	if err != nil {
		return err
	}
	logging.Info("AWS", "Started task %s in cluster %s", arns[0], cluster)

	follower, err := logFollower(ctx, def, container, arns[0])
	if err != nil {
		return err
	}
	return waitForTask(cmd, client, cluster, arns, follower)
}

// waitForTask polls the task until it stops, streaming log lines in parallel
// when a follower is available, then drains what the stream still holds.
func waitForTask(cmd *cobra.Command, client *awsapi.ECSClient, cluster string, arns []string, follower *awsapi.Follower) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	g.Go(func() error {
		defer close(stopped)

		// The spinner and streamed log lines would fight over the
		// terminal, so it only spins when there is nothing to tail.
		if follower == nil {
			s := newSpinner("waiting for the task to stop")
			s.Start()
			defer s.Stop()
		}

		ticker := time.NewTicker(taskPollInterval)
		defer ticker.Stop()
		for {
			statuses, err := client.TaskStatuses(gctx, cluster, arns)
			if err != nil {
				return err
			}
			if allStopped(statuses) {
				return nil
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
			}
		}
	})

	if follower != nil {
		g.Go(func() error {
			ticker := time.NewTicker(taskPollInterval)
			defer ticker.Stop()
			for {
				printLogPage(gctx, out, follower)
				select {
				case <-stopped:
					// The task is done; drain whatever the stream
					// still holds.
					for printLogPage(ctx, out, follower) {
					}
					return nil
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Task stopped.")
	return nil
}

// printLogPage fetches one page of log events and prints them, reporting
// whether anything was printed. Fetch errors are tolerated because the
// stream only appears once the task produced output.
func printLogPage(ctx context.Context, out io.Writer, follower *awsapi.Follower) bool {
	lines, err := follower.Next(ctx)
	if err != nil {
		logging.Debug("AWS", "Log stream not readable yet: %v", err)
		return false
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return len(lines) > 0
}

// logFollower builds a follower for the task's awslogs stream, or nil when
// the container doesn't log to CloudWatch.
func logFollower(ctx context.Context, def *ecs.TaskDefinition, container, taskARN string) (*awsapi.Follower, error) {
	group, prefix := awslogsOptions(def, container)
	if group == "" || prefix == "" {
		logging.Debug("AWS", "Container %s has no awslogs configuration, not tailing logs", container)
		return nil, nil
	}

	logsClient, err := awsapi.NewLogsClient(ctx, awsOptions())
	if err != nil {
		return nil, err
	}

	stream := fmt.Sprintf("%s/%s/%s", prefix, container, taskID(taskARN))
	return logsClient.Follow(group, stream), nil
}

// awslogsOptions returns the log group and stream prefix of the container's
// awslogs configuration, empty strings when not configured.
func awslogsOptions(def *ecs.TaskDefinition, container string) (group, prefix string) {
	for _, c := range def.Containers() {
		if name, _ := c["name"].(string); name != container {
			continue
		}
		logConfig, _ := c["logConfiguration"].(map[string]interface{})
		if driver, _ := logConfig["logDriver"].(string); driver != "awslogs" {
			return "", ""
		}
		options, _ := logConfig["options"].(map[string]interface{})
		group, _ = options["awslogs-group"].(string)
		prefix, _ = options["awslogs-stream-prefix"].(string)
		return group, prefix
	}
	return "", ""
}

func allStopped(statuses []string) bool {
	for _, status := range statuses {
		if status != "STOPPED" {
			return false
		}
	}
	return len(statuses) > 0
}

// taskID extracts the task ID from its ARN, the part after the last slash.
func taskID(arn string) string {
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
