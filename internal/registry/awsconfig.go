package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
)

// AwsConfig loads the default credential chain pinned to region.
func AwsConfig(ctx context.Context, region string) (aws.Config, error) {
	if region == "" {
		return aws.Config{}, errors.New("AWS region is not set")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return cfg, nil
}
