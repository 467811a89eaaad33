package aws

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	"github.com/keyreaper/keyreaper/internal/config"
)

// iamAPI is the subset of the IAM service the provider calls. The paginator
// client interfaces cover the two list operations; UpdateAccessKey has no
// paginator and is declared directly.
type iamAPI interface {
	iam.ListUsersAPIClient
	iam.ListAccessKeysAPIClient
	UpdateAccessKey(ctx context.Context, params *iam.UpdateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error)
}

func newClient(ctx context.Context, cfg config.AWSConfig) (iamAPI, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region := cfg.GetRegion(); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile := cfg.GetProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return iam.NewFromConfig(awscfg), nil
}
