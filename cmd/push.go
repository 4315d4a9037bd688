package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ecsboss/internal/awsapi"
	"ecsboss/internal/docker"
	"ecsboss/pkg/logging"
)

var (
	// pushImage is the local image to push; defaults to the family-named
	// image that build produced.
	pushImage string

	// pushTag is the tag the image is pushed under.
	pushTag string
)

// newPushCmd creates the command that tags a local image into the repository
// and pushes it.
func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push a local image to the repository",
		Args:  cobra.NoArgs,
		RunE:  runPush,
	}
	cmd.Flags().StringVar(&pushImage, "image", "", "local image to push (defaults to the family-named build image)")
	cmd.Flags().StringVar(&pushTag, "tag", "latest", "tag to push the image under")
	return cmd
}

func runPush(cmd *cobra.Command, args []string) error {
	if rootRepository == "" {
		return errors.New("no repository configured, set --repository or the REPOSITORY environment variable")
	}
	image := pushImage
	if image == "" {
		def, err := loadTaskFile()
		if err != nil {
			return err
		}
		image = def.Family()
	}
	return pushImageToRepository(cmd, image, rootRepository, pushTag)
}

// pushImageToRepository pushes the local image to the registry as
// repository:tag. A tag the registry already carries is not pushed again, and
// an existing local repository:tag is not re-tagged; released tags are
// immutable, re-deploys reuse them.
func pushImageToRepository(cmd *cobra.Command, image, repository, tag string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ecrClient, err := awsapi.NewECRClient(ctx, awsOptions())
	if err != nil {
		return err
	}
	pushed, err := ecrClient.HasTaggedImage(ctx, repository, tag)
	if err != nil {
		return fmt.Errorf("checking registry for tag %s: %w", tag, err)
	}
	if pushed {
		logging.Info("Docker", "%s:%s already exists in the registry, skipping push", repository, tag)
		return nil
	}

	if err := docker.EnsureTagged(ctx, out, image, repository, tag); err != nil {
		return err
	}

	username, password, endpoint, err := ecrClient.AuthorizationToken(ctx)
	if err != nil {
		return fmt.Errorf("fetching registry credentials: %w", err)
	}
	if err := docker.Login(ctx, out, username, password, endpoint); err != nil {
		return err
	}
	return docker.Push(ctx, out, repository, tag)
}
