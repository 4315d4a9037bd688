package awsapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
)

// ecrAPI is the subset of the ECR service client the tool uses.
type ecrAPI interface {
	CreateRepository(ctx context.Context, params *awsecr.CreateRepositoryInput, optFns ...func(*awsecr.Options)) (*awsecr.CreateRepositoryOutput, error)
	DescribeRepositories(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error)
	GetAuthorizationToken(ctx context.Context, params *awsecr.GetAuthorizationTokenInput, optFns ...func(*awsecr.Options)) (*awsecr.GetAuthorizationTokenOutput, error)
	ListImages(ctx context.Context, params *awsecr.ListImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.ListImagesOutput, error)
}

// ECRClient is the image registry collaborator.
type ECRClient struct {
	api ecrAPI
}

// NewECRClient builds an ECR client from the default configuration chain
// plus opts.
func NewECRClient(ctx context.Context, opts Options) (*ECRClient, error) {
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return &ECRClient{api: awsecr.NewFromConfig(cfg)}, nil
}

// HasTaggedImage reports whether the repository carries an image with the
// tag. The repository may be the full URI (host/name); the registry host is
// stripped before the API call.
func (c *ECRClient) HasTaggedImage(ctx context.Context, repository, tag string) (bool, error) {
	name := repositoryName(repository)
	input := &awsecr.ListImagesInput{
		RepositoryName: aws.String(name),
		Filter:         &ecrtypes.ListImagesFilter{TagStatus: ecrtypes.TagStatusTagged},
	}
	for {
		out, err := c.api.ListImages(ctx, input)
		if err != nil {
			return false, err
		}
		for _, image := range out.ImageIds {
			if aws.ToString(image.ImageTag) == tag {
				return true, nil
			}
		}
		if out.NextToken == nil {
			return false, nil
		}
		input.NextToken = out.NextToken
	}
}

// EnsureRepository returns the URI of the named repository, creating it when
// it doesn't exist. More than one match is an ambiguity the caller must
// resolve by hand.
func (c *ECRClient) EnsureRepository(ctx context.Context, repository string) (string, error) {
	name := repositoryName(repository)
	out, err := c.api.DescribeRepositories(ctx, &awsecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err != nil {
		var notFound *ecrtypes.RepositoryNotFoundException
		if !errors.As(err, &notFound) {
			return "", err
		}
		created, err := c.api.CreateRepository(ctx, &awsecr.CreateRepositoryInput{
			RepositoryName: aws.String(name),
		})
		if err != nil {
			return "", err
		}
		return aws.ToString(created.Repository.RepositoryUri), nil
	}
	if len(out.Repositories) > 1 {
		names := make([]string, 0, len(out.Repositories))
		for _, repo := range out.Repositories {
			names = append(names, aws.ToString(repo.RepositoryName))
		}
		return "", fmt.Errorf("more than one repository named %s: %s", name, strings.Join(names, ", "))
	}
	return aws.ToString(out.Repositories[0].RepositoryUri), nil
}

// AuthorizationToken returns docker login credentials for the registry.
func (c *ECRClient) AuthorizationToken(ctx context.Context) (username, password, endpoint string, err error) {
	out, err := c.api.GetAuthorizationToken(ctx, &awsecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", "", "", err
	}
	if len(out.AuthorizationData) == 0 {
		return "", "", "", errors.New("registry returned no authorization data")
	}
	data := out.AuthorizationData[0]
	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return "", "", "", fmt.Errorf("decoding authorization token: %w", err)
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", "", errors.New("malformed authorization token")
	}
	return parts[0], parts[1], aws.ToString(data.ProxyEndpoint), nil
}

// repositoryName strips the registry host from a repository URI.
func repositoryName(repository string) string {
	if i := strings.Index(repository, "/"); i >= 0 {
		return repository[i+1:]
	}
	return repository
}
