package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ecsboss/internal/awsapi"
	"ecsboss/internal/docker"
	"ecsboss/internal/git"
	"ecsboss/internal/reconcile"
	"ecsboss/internal/structure"
	"ecsboss/pkg/logging"
)

// deployTag is the release tag for this deploy. Defaults to a UTC timestamp
// so every deploy gets a unique, sortable tag.
var deployTag string

// deployBuildArgs are passed through to docker build.
var deployBuildArgs []string

// newDeployCmd creates the command that runs the full release flow.
func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Build, push and roll out a release",
		Long: `Runs the full release flow: verify the working tree is clean, pin the
release tag in git, build and push the image, register a new task definition
revision with the tag substituted, and point the service at it. The remote
task definition and service snapshots are fetched up front so a missing or
ambiguous service aborts the deploy before anything is built.`,
		Args: cobra.NoArgs,
		RunE: runDeploy,
	}
	cmd.Flags().StringVar(&deployTag, "tag", "", "release tag (defaults to a UTC timestamp)")
	cmd.Flags().StringArrayVar(&deployBuildArgs, "build-arg", nil, "build argument passed to docker build (repeatable)")
	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if rootRepository == "" {
		return fmt.Errorf("no repository configured, set --repository or the REPOSITORY environment variable")
	}
	if err := requireCleanTree(cmd); err != nil {
		return err
	}

	def, err := loadTaskFile()
	if err != nil {
		return err
	}
	service, err := loadServiceFile()
	if err != nil {
		return err
	}

	client, err := awsapi.NewECSClient(ctx, awsOptions())
	if err != nil {
		return err
	}

	// Fetch both remote snapshots concurrently and fail fast on a service
	// that can't be updated, before any image is built.
	var remoteServices []structure.Structure
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := client.LatestTaskDefinition(gctx, def.Family())
		return err
	})
	g.Go(func() error {
		var err error
		remoteServices, err = client.DescribeServices(gctx, service.Cluster, service.Name())
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fetching remote state: %w", err)
	}
	if len(remoteServices) == 0 {
		return fmt.Errorf("service %s does not exist in cluster %s, create it first (see update-service)",
			service.Name(), service.Cluster)
	}
	if len(remoteServices) > 1 {
		return &reconcile.AmbiguousServiceError{
			Cluster: service.Cluster,
			Service: service.Name(),
			Matches: reconcile.ServiceNames(remoteServices),
		}
	}

	tag := deployTag
	if tag == "" {
		tag = time.Now().UTC().Format("20060102-150405")
		logging.Info("Bootstrap", "No release tag given, using %s", tag)
	}
	branch, err := git.PinTag(ctx, tag)
	if err != nil {
		return fmt.Errorf("pinning release tag %s: %w", tag, err)
	}

	family := def.Family()
	if err := docker.Build(ctx, out, family, deployBuildArgs); err != nil {
		return err
	}
	// Re-deploying an existing tag builds from a detached HEAD; return to
	// the branch now that the image is built.
	if err := git.Checkout(ctx, branch); err != nil {
		return fmt.Errorf("returning to branch %s: %w", branch, err)
	}
	if err := pushImageToRepository(cmd, family, rootRepository, tag); err != nil {
		return err
	}

	registered, created, err := reconcile.New(client).CreateOrUpdateTaskDefinition(ctx, def, rootRepository, tag)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created task definition %s.\n", registered.FamilyRevision())
	} else {
		fmt.Fprintf(out, "Registered task definition %s.\n", registered.FamilyRevision())
	}

	outcome, err := reconcile.New(client).CreateOrUpdateService(ctx, service, registered.FamilyRevision())
	if err != nil {
		return err
	}
	if err := reportServiceOutcome(cmd, outcome, registered.FamilyRevision()); err != nil {
		return err
	}

	if err := waitForRunningCount(ctx, client, service.Cluster, service.Name(), outcome.Service.DesiredCount()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deployed %s:%s.\n", rootRepository, tag)
	return nil
}
