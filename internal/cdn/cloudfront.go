package cdn

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/google/uuid"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
)

// CloudFrontAPI defines the minimal subset of the CloudFront client used by Invalidator.
type CloudFrontAPI interface {
	CreateInvalidation(ctx context.Context, params *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// Invalidator issues cache invalidations for one distribution.
type Invalidator struct {
	distributionID string
	client         CloudFrontAPI
	nonce          func() string
	log            logger.Logger
}

// NewInvalidator wraps a CloudFront client for the given distribution.
func NewInvalidator(distributionID string, client CloudFrontAPI, log logger.Logger) (*Invalidator, error) {
	if distributionID == "" {
		return nil, fmt.Errorf("distribution id is required")
	}
	if client == nil {
		return nil, fmt.Errorf("cloudfront client is required")
	}
	return &Invalidator{
		distributionID: distributionID,
		client:         client,
		nonce:          uuid.NewString,
		log:            logger.Ensure(log),
	}, nil
}

// Invalidate sends a single invalidation request for paths and returns its id.
// Every request carries a fresh caller reference.
func (i *Invalidator) Invalidate(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no paths to invalidate")
	}
	items := append([]string(nil), paths...)
	ref := i.nonce()

	out, err := i.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(i.distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String(ref),
			Paths: &types.Paths{
				Quantity: aws.Int32(int32(len(items))),
				Items:    items,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create invalidation for %s: %w", i.distributionID, err)
	}

	var id string
	if out != nil && out.Invalidation != nil {
		id = aws.ToString(out.Invalidation.Id)
	}
	i.log.InfoObj("cache invalidation requested", "invalidation", map[string]any{
		"distribution_id":  i.distributionID,
		"invalidation_id":  id,
		"caller_reference": ref,
		"paths":            items,
	})
	return id, nil
}
