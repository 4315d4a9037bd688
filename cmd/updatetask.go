package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecsboss/internal/awsapi"
	"ecsboss/internal/ecs"
	"ecsboss/internal/formatting"
	"ecsboss/internal/reconcile"
	"ecsboss/internal/structure"
)

var (
	// updateTaskTag is the release tag substituted into image placeholders.
	// Without a tag the image fields are left to the remote definition.
	updateTaskTag string

	// updateTaskQuiet prints only the registered family:revision, for
	// scripting.
	updateTaskQuiet bool
)

// newUpdateTaskCmd creates the command that reconciles the local task
// definition file into a new remote revision.
func newUpdateTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-task",
		Short: "Register the local task definition as a new revision",
		Long: `Merges the local task definition file over the latest remote revision and
registers the result. With --tag, %REPOSITORY% and %RELEASE_TAG% placeholders
in container images are substituted and the tag must already exist in the
registry; without a tag the remote image values are kept.`,
		Args: cobra.NoArgs,
		RunE: runUpdateTask,
	}
	cmd.Flags().StringVar(&updateTaskTag, "tag", "", "release tag to substitute into image placeholders")
	cmd.Flags().BoolVar(&updateTaskQuiet, "quiet", false, "print only the registered family:revision")
	return cmd
}

func runUpdateTask(cmd *cobra.Command, args []string) error {
	registered, err := updateTaskDefinition(cmd, updateTaskTag)
	if err != nil {
		return err
	}
	if updateTaskQuiet {
		fmt.Fprintln(cmd.OutOrStdout(), registered.FamilyRevision())
	}
	return nil
}

// updateTaskDefinition runs the update-task flow: clean-tree gate, registry
// tag check, reconcile, diff table.
func updateTaskDefinition(cmd *cobra.Command, tag string) (*ecs.TaskDefinition, error) {
	ctx := cmd.Context()

	if err := requireCleanTree(cmd); err != nil {
		return nil, err
	}

	local, err := loadTaskFile()
	if err != nil {
		return nil, err
	}

	if tag != "" {
		if rootRepository == "" {
			return nil, fmt.Errorf("release tag %s supplied without a repository, set --repository or REPOSITORY", tag)
		}
		ecrClient, err := awsapi.NewECRClient(ctx, awsOptions())
		if err != nil {
			return nil, err
		}
		found, err := ecrClient.HasTaggedImage(ctx, rootRepository, tag)
		if err != nil {
			return nil, fmt.Errorf("checking registry for tag %s: %w", tag, err)
		}
		if !found {
			return nil, fmt.Errorf("tag %s does not exist in %s, push it first", tag, rootRepository)
		}
	}

	client, err := awsapi.NewECSClient(ctx, awsOptions())
	if err != nil {
		return nil, err
	}

	// Snapshot the remote revision up front so the image changes can be
	// shown afterwards.
	remote, err := client.LatestTaskDefinition(ctx, local.Family())
	if err != nil {
		return nil, fmt.Errorf("describing latest revision of %s: %w", local.Family(), err)
	}

	registered, created, err := reconcile.New(client).CreateOrUpdateTaskDefinition(ctx, local, rootRepository, tag)
	if err != nil {
		return nil, err
	}

	if !updateTaskQuiet {
		out := cmd.OutOrStdout()
		if created {
			fmt.Fprintf(out, "Created task definition %s.\n", registered.FamilyRevision())
		} else {
			fmt.Fprintf(out, "Registered task definition %s.\n", registered.FamilyRevision())
		}
		formatting.RenderDiffs(out, imageDiffs(remote, registered))
	}
	return registered, nil
}

// imageDiffs compares container images between the previous remote revision
// and the freshly registered one.
func imageDiffs(remote structure.Structure, registered *ecs.TaskDefinition) []ecs.Diff {
	previous := make(map[string]interface{})
	if remote != nil {
		for _, container := range ecs.NewTaskDefinition(remote).Containers() {
			if name, ok := container["name"].(string); ok {
				previous[name] = container["image"]
			}
		}
	}

	var diffs []ecs.Diff
	for _, container := range registered.Containers() {
		name, _ := container["name"].(string)
		if container["image"] == previous[name] {
			continue
		}
		diffs = append(diffs, ecs.Diff{
			Container: name,
			Field:     "image",
			Value:     container["image"],
			OldValue:  previous[name],
		})
	}
	return diffs
}
