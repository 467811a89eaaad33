package aws

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
)

// deactivate sets the key Inactive. The key stays attached to the user so
// an operator can rotate or delete it after review.
func (p *Provider) deactivate(ctx context.Context, userName, accessKeyID string) error {
	_, err := p.api.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
		UserName:    aws.String(userName),
		AccessKeyId: aws.String(accessKeyID),
		Status:      iamtypes.StatusTypeInactive,
	})
	return err
}

// isNoSuchEntity matches the IAM error for a key or user deleted between
// resolution and deactivation.
func isNoSuchEntity(err error) bool {
	var nse *iamtypes.NoSuchEntityException
	if errors.As(err, &nse) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "NoSuchEntity"
}
