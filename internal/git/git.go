// Package git shells out to the git binary for the repository checks and
// release tagging the deployment flow needs.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"ecsboss/pkg/logging"
)

// runGit executes git with args and returns stdout. Swapped out in tests.
var runGit = func(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// IsRepository reports whether the working directory is inside a git work
// tree.
func IsRepository(ctx context.Context) bool {
	out, err := runGit(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// IsClean reports whether the working tree has neither unstaged nor staged
// changes, with a human-readable reason per dirty category. A directory that
// is not a repository counts as clean, deploys from exported trees stay
// possible.
func IsClean(ctx context.Context) (bool, []string) {
	if !IsRepository(ctx) {
		return true, nil
	}
	var reasons []string
	if _, err := runGit(ctx, "diff", "--quiet"); err != nil {
		reasons = append(reasons, "unstaged changes in the working tree")
	}
	if _, err := runGit(ctx, "diff", "--cached", "--quiet"); err != nil {
		reasons = append(reasons, "staged but uncommitted changes")
	}
	return len(reasons) == 0, reasons
}

// CurrentBranch returns the checked-out branch name.
func CurrentBranch(ctx context.Context) (string, error) {
	out, err := runGit(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HasTag reports whether the tag exists locally.
func HasTag(ctx context.Context, tag string) (bool, error) {
	out, err := runGit(ctx, "tag", "--list", tag)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == tag, nil
}

// Checkout checks out the given branch or tag.
func Checkout(ctx context.Context, ref string) error {
	_, err := runGit(ctx, "checkout", ref)
	return err
}

// PinTag pins the release tag and returns the branch that was checked out
// before. Checking out an existing tag detaches HEAD, so callers check the
// branch out again once they are done building from the tag.
func PinTag(ctx context.Context, tag string) (string, error) {
	branch, err := CurrentBranch(ctx)
	if err != nil {
		return "", err
	}
	if err := Tag(ctx, tag); err != nil {
		return "", err
	}
	return branch, nil
}

// Tag pins the release tag. An existing tag is checked out so the build
// matches what was tagged; a new tag is created on HEAD and pushed.
func Tag(ctx context.Context, tag string) error {
	exists, err := HasTag(ctx, tag)
	if err != nil {
		return err
	}
	if exists {
		logging.Info("Git", "Tag %s exists, checking it out", tag)
		_, err := runGit(ctx, "checkout", tag)
		return err
	}
	logging.Info("Git", "Tagging HEAD as %s", tag)
	if _, err := runGit(ctx, "tag", tag); err != nil {
		return err
	}
	if _, err := runGit(ctx, "push", "origin", "tag", tag); err != nil {
		return err
	}
	return nil
}
