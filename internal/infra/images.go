package infra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecrassets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cdklabs/cdk-ecr-deployment-go/cdkecrdeployment/v3"

	"fargatesoci/internal/config"
	"fargatesoci/internal/variant"
)

var ErrAssetNotFound = errors.New("docker build context not found")

// Images is the build/push pipeline: one application image copied into a
// repository per variant, plus the sidecar image.
type Images struct {
	App          awsecrassets.DockerImageAsset
	Sidecar      awsecrassets.DockerImageAsset
	Repositories map[variant.Variant]awsecr.Repository
	Deployments  map[variant.Variant]cdkecrdeployment.ECRDeployment
}

// Tag is the content-addressed tag shared by both repositories.
func (i *Images) Tag() *string {
	return i.App.ImageTag()
}

// ImageURI returns repository:tag for v.
func (i *Images) ImageURI(v variant.Variant) string {
	return fmt.Sprintf("%s:%s", *i.Repositories[v].RepositoryUri(), *i.Tag())
}

func newImages(scope constructs.Construct, cfg config.Config) (*Images, error) {
	app, err := newImageAsset(scope, "OllamaImage", cfg.Assets.App)
	if err != nil {
		return nil, fmt.Errorf("application image: %w", err)
	}
	sidecar, err := newImageAsset(scope, "amilazyImage", cfg.Assets.Sidecar)
	if err != nil {
		return nil, fmt.Errorf("sidecar image: %w", err)
	}

	images := &Images{
		App:          app,
		Sidecar:      sidecar,
		Repositories: map[variant.Variant]awsecr.Repository{},
		Deployments:  map[variant.Variant]cdkecrdeployment.ECRDeployment{},
	}
	for _, v := range variant.Variants() {
		repo := awsecr.NewRepository(scope, jsii.String("OllamaEcrRepo"+idPart(v)), &awsecr.RepositoryProps{
			RepositoryName:  jsii.String(cfg.Registry.RepositoryName(v)),
			ImageScanOnPush: jsii.Bool(false),
			RemovalPolicy:   awscdk.RemovalPolicy_DESTROY,
			EmptyOnDelete:   jsii.Bool(true),
		})
		images.Repositories[v] = repo
		images.Deployments[v] = cdkecrdeployment.NewECRDeployment(scope, jsii.String("DeployDockerImage"+idPart(v)), &cdkecrdeployment.ECRDeploymentProps{
			Src:  cdkecrdeployment.NewDockerImageName(app.ImageUri(), nil),
			Dest: cdkecrdeployment.NewDockerImageName(jsii.String(images.ImageURI(v)), nil),
		})
	}
	return images, nil
}

func newImageAsset(scope constructs.Construct, id string, a config.Asset) (awsecrassets.DockerImageAsset, error) {
	file := a.File
	if file == "" {
		file = "Dockerfile"
	}
	if _, err := os.Stat(filepath.Join(a.Directory, file)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, err)
	}
	return awsecrassets.NewDockerImageAsset(scope, jsii.String(id), &awsecrassets.DockerImageAssetProps{
		Directory: jsii.String(a.Directory),
		File:      jsii.String(file),
		Exclude:   jsii.Strings(a.Exclude...),
		Platform:  awsecrassets.Platform_LINUX_AMD64(),
	}), nil
}
