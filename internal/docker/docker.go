// Package docker shells out to the docker binary for image build, tag and
// push. Output streams through to the caller's writer so long builds stay
// observable.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"ecsboss/pkg/logging"
)

// runDocker executes docker with args, streaming combined output to out.
// Swapped out in tests.
var runDocker = func(ctx context.Context, out io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// captureDocker executes docker with args and returns stdout. Swapped out in
// tests.
var captureDocker = func(ctx context.Context, args ...string) (string, error) {
	var stdout bytes.Buffer
	if err := runDocker(ctx, &stdout, args...); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

// Build builds the image for project (the local tag) from the Dockerfile in
// the working directory.
func Build(ctx context.Context, out io.Writer, project string, buildArgs []string) error {
	logging.Info("Docker", "Building image %s", project)
	args := []string{"build", "-t", project}
	for _, buildArg := range buildArgs {
		args = append(args, "--build-arg", buildArg)
	}
	args = append(args, ".")
	return runDocker(ctx, out, args...)
}

// Tag points repository:tag at the local project image.
func Tag(ctx context.Context, out io.Writer, project, repository, tag string) error {
	return runDocker(ctx, out, "tag", project, repository+":"+tag)
}

// EnsureTagged points repository:tag at the local project image unless that
// tag already exists in the local image store.
func EnsureTagged(ctx context.Context, out io.Writer, project, repository, tag string) error {
	tagged, err := HasLocalTag(ctx, repository, tag)
	if err != nil {
		return err
	}
	if tagged {
		logging.Info("Docker", "%s:%s already tagged locally, skipping tag", repository, tag)
		return nil
	}
	return Tag(ctx, out, project, repository, tag)
}

// Login authenticates the docker daemon against the registry endpoint.
// Credentials go through stdin, not the command line.
func Login(ctx context.Context, out io.Writer, username, password, endpoint string) error {
	cmd := exec.CommandContext(ctx, "docker", "login", "--username", username, "--password-stdin", endpoint)
	cmd.Stdin = strings.NewReader(password)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker login %s: %w", endpoint, err)
	}
	return nil
}

// Push uploads repository:tag to the registry.
func Push(ctx context.Context, out io.Writer, repository, tag string) error {
	logging.Info("Docker", "Pushing %s:%s", repository, tag)
	return runDocker(ctx, out, "push", repository+":"+tag)
}

// HasLocalTag reports whether repository:tag exists in the local image store.
func HasLocalTag(ctx context.Context, repository, tag string) (bool, error) {
	out, err := captureDocker(ctx, "images", "--format", "{{.Repository}}:{{.Tag}}", repository+":"+tag)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}
