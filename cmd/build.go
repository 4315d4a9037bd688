package cmd

import (
	"github.com/spf13/cobra"

	"ecsboss/internal/docker"
)

// buildArgs are passed through to docker build as --build-arg pairs.
var buildArgs []string

// newBuildCmd creates the command that builds the project image, tagged with
// the task definition family name.
func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the docker image for this project",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
	cmd.Flags().StringArrayVar(&buildArgs, "build-arg", nil, "build argument passed to docker build (repeatable)")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	def, err := loadTaskFile()
	if err != nil {
		return err
	}
	return docker.Build(cmd.Context(), cmd.OutOrStdout(), def.Family(), buildArgs)
}
