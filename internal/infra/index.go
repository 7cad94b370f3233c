package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/customresources"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// SociVersion is the soci-snapshotter release used to build indexes.
const SociVersion = "0.9.0"

// IndexResourceType is the CloudFormation type of the index build resource.
const IndexResourceType = "Custom::SociIndex"

// IndexBuild derives a SOCI index for one image and pushes it next to the
// image. A CodeBuild project does the work. The custom resource starts it on
// every create and tag change and only completes once the build succeeded,
// so the deployment fails when the index cannot be built.
type IndexBuild struct {
	constructs.Construct
	Project  awscodebuild.Project
	Provider customresources.Provider
	Trigger  awscdk.CustomResource
}

func newIndexBuild(scope constructs.Construct, repo awsecr.IRepository, imageURI string, tag string) *IndexBuild {
	c := constructs.NewConstruct(scope, jsii.String("Index"))

	project := awscodebuild.NewProject(c, jsii.String("Builder"), &awscodebuild.ProjectProps{
		Description: jsii.String("Builds and pushes a SOCI index for " + tag),
		Environment: &awscodebuild.BuildEnvironment{
			BuildImage:  awscodebuild.LinuxBuildImage_STANDARD_7_0(),
			ComputeType: awscodebuild.ComputeType_SMALL,
			// containerd needs a privileged build container
			Privileged: jsii.Bool(true),
		},
		EnvironmentVariables: &map[string]*awscodebuild.BuildEnvironmentVariable{
			"IMAGE_URI":    {Value: jsii.String(imageURI)},
			"SOCI_VERSION": {Value: jsii.String(SociVersion)},
		},
		BuildSpec: awscodebuild.BuildSpec_FromObject(&map[string]interface{}{
			"version": "0.2",
			"phases": map[string]interface{}{
				"install": map[string]interface{}{
					"commands": []string{
						"curl -sSfL https://github.com/awslabs/soci-snapshotter/releases/download/v${SOCI_VERSION}/soci-snapshotter-${SOCI_VERSION}-linux-amd64.tar.gz | tar -xz -C /usr/local/bin soci",
						"nohup containerd > /tmp/containerd.log 2>&1 &",
						"sleep 3",
					},
				},
				"build": map[string]interface{}{
					"commands": []string{
						"PASSWORD=$(aws ecr get-login-password --region $AWS_REGION)",
						"ctr image pull --user AWS:$PASSWORD $IMAGE_URI",
						"soci create $IMAGE_URI",
						"soci push --user AWS:$PASSWORD $IMAGE_URI",
					},
				},
			},
		}),
	})
	repo.GrantPullPush(project)

	onEvent := newIndexHandler(c, "StartBuild", "index.onEvent", "codebuild:StartBuild", project)
	isComplete := newIndexHandler(c, "CheckBuild", "index.isComplete", "codebuild:BatchGetBuilds", project)
	provider := customresources.NewProvider(c, jsii.String("Provider"), &customresources.ProviderProps{
		OnEventHandler:    onEvent,
		IsCompleteHandler: isComplete,
		QueryInterval:     awscdk.Duration_Seconds(jsii.Number(30)),
		TotalTimeout:      awscdk.Duration_Hours(jsii.Number(1)),
	})
	// A new tag is an update, which builds a fresh index.
	trigger := awscdk.NewCustomResource(c, jsii.String("Build"), &awscdk.CustomResourceProps{
		ServiceToken: provider.ServiceToken(),
		ResourceType: jsii.String(IndexResourceType),
		Properties: &map[string]interface{}{
			"ProjectName": project.ProjectName(),
			"ImageTag":    tag,
		},
	})

	return &IndexBuild{Construct: c, Project: project, Provider: provider, Trigger: trigger}
}

// indexHandlerSource starts the build on create and update and fails the
// resource when the build does not succeed.
const indexHandlerSource = `const { CodeBuildClient, StartBuildCommand, BatchGetBuildsCommand } = require("@aws-sdk/client-codebuild");
const codebuild = new CodeBuildClient({});

exports.onEvent = async (event) => {
  if (event.RequestType === "Delete") {
    return { PhysicalResourceId: event.PhysicalResourceId };
  }
  const props = event.ResourceProperties;
  const out = await codebuild.send(new StartBuildCommand({ projectName: props.ProjectName }));
  return {
    PhysicalResourceId: "soci-index-" + props.ImageTag,
    Data: { BuildId: out.build.id },
  };
};

exports.isComplete = async (event) => {
  if (event.RequestType === "Delete") {
    return { IsComplete: true };
  }
  const id = event.Data.BuildId;
  const out = await codebuild.send(new BatchGetBuildsCommand({ ids: [id] }));
  const status = out.builds[0].buildStatus;
  if (status === "SUCCEEDED") {
    return { IsComplete: true };
  }
  if (status === "IN_PROGRESS") {
    return { IsComplete: false };
  }
  throw new Error("SOCI index build " + id + " ended with " + status);
};
`

func newIndexHandler(scope constructs.Construct, id, handler, action string, project awscodebuild.IProject) awslambda.Function {
	fn := awslambda.NewFunction(scope, jsii.String(id), &awslambda.FunctionProps{
		Runtime: awslambda.Runtime_NODEJS_20_X(),
		Handler: jsii.String(handler),
		Code:    awslambda.Code_FromInline(jsii.String(indexHandlerSource)),
		Timeout: awscdk.Duration_Minutes(jsii.Number(1)),
	})
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings(action),
		Resources: jsii.Strings(*project.ProjectArn()),
	}))
	return fn
}
