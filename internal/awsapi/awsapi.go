// Package awsapi holds the typed AWS collaborators the tool talks to: the
// ECS control plane, the ECR image registry, and CloudWatch Logs. Each client
// wraps the corresponding aws-sdk-go-v2 service behind a narrow interface so
// tests can swap the implementation out.
//
// Credential resolution is the SDK's business: the default chain applies,
// with explicit static keys, region, or a shared-config profile layered on
// top when the caller supplies them.
package awsapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options selects region, profile and static credentials for the clients.
// Zero values defer to the SDK's default resolution chain.
type Options struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
}

func loadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	return config.LoadDefaultConfig(ctx, loadOpts...)
}
