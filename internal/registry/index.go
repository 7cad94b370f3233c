// Package registry inspects the ECR repositories of the comparison stack.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"

	"fargatesoci/internal/contract"
	"fargatesoci/internal/logger"
	"fargatesoci/internal/variant"
)

var (
	ECRLogger = logger.PackageLogger("🅰️ ECR")

	ErrIndexMissing    = errors.New("fast-start repository has no SOCI index")
	ErrIndexUnexpected = errors.New("baseline repository carries a SOCI index")
)

// DescribeImagesAPI is the ECR call the checker pages through.
type DescribeImagesAPI = ecr.DescribeImagesAPIClient

// Artifact is one SOCI index stored in a repository.
type Artifact struct {
	Digest    string
	Tags      []string
	MediaType string
	PushedAt  time.Time
}

type IndexChecker struct {
	API DescribeImagesAPI
}

func NewIndexChecker(cfg aws.Config) *IndexChecker {
	return &IndexChecker{API: ecr.NewFromConfig(cfg)}
}

// Find lists the SOCI index artifacts in repository.
func (c *IndexChecker) Find(ctx context.Context, repository string) ([]Artifact, error) {
	var found []Artifact
	pages := ecr.NewDescribeImagesPaginator(c.API, &ecr.DescribeImagesInput{
		RepositoryName: aws.String(repository),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe images in %s: %w", repository, err)
		}
		for _, img := range page.ImageDetails {
			mt := aws.ToString(img.ArtifactMediaType)
			if !contract.IsSociIndex(mt) {
				continue
			}
			found = append(found, Artifact{
				Digest:    aws.ToString(img.ImageDigest),
				Tags:      img.ImageTags,
				MediaType: mt,
				PushedAt:  aws.ToTime(img.ImagePushedAt),
			})
		}
	}
	ECRLogger.Debug("%s holds %d SOCI index artifact(s)", repository, len(found))
	return found, nil
}

// Verify checks that only the fast-start repository can be lazily loaded.
// repositories maps each variant to its repository name.
func (c *IndexChecker) Verify(ctx context.Context, repositories map[variant.Variant]string) (map[variant.Variant][]Artifact, error) {
	out := map[variant.Variant][]Artifact{}
	var errs []error
	for _, v := range variant.Variants() {
		arts, err := c.Find(ctx, repositories[v])
		if err != nil {
			return nil, err
		}
		out[v] = arts
		switch {
		case v.FastStart() && len(arts) == 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrIndexMissing, repositories[v]))
		case !v.FastStart() && len(arts) > 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrIndexUnexpected, repositories[v]))
		}
	}
	return out, errors.Join(errs...)
}
