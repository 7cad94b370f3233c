package infra

import (
	"errors"
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecrassets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"fargatesoci/internal/contract"
	"fargatesoci/internal/variant"
)

// Fixed task sizing. Both variants must match for the comparison to hold.
const (
	TaskCPU       = 2048
	TaskMemoryMiB = 8192

	AppContainerName     = "OllamaContainer"
	SidecarContainerName = "amilazy"
)

var ErrIncompleteTaskInput = errors.New("incomplete task specification input")

// ecrPullActions is the read-only registry surface granted to the run role.
var ecrPullActions = []string{
	"ecr:GetDownloadUrlForLayer",
	"ecr:BatchGetImage",
	"ecr:BatchCheckLayerAvailability",
	"ecr:GetRepositoryPolicy",
	"ecr:DescribeRepositories",
	"ecr:ListImages",
	"ecr:DescribeImages",
}

// TaskSpecInput carries everything a task specification is built from.
// Only Variant and the registry it implies differ between the two calls.
type TaskSpecInput struct {
	Variant       variant.Variant
	LogGroup      awslogs.ILogGroup
	Repository    awsecr.IRepository
	Tag           *string
	Sidecar       awsecrassets.DockerImageAsset
	ExecutionRole awsiam.IRole
	RunRole       awsiam.IRole
	Model         string
	LogLevel      string
}

func (in TaskSpecInput) validate() error {
	var missing []error
	if in.LogGroup == nil {
		missing = append(missing, errors.New("log group"))
	}
	if in.Repository == nil {
		missing = append(missing, errors.New("repository"))
	}
	if in.Tag == nil || *in.Tag == "" {
		missing = append(missing, errors.New("image tag"))
	}
	if in.Sidecar == nil {
		missing = append(missing, errors.New("sidecar image"))
	}
	if in.ExecutionRole == nil {
		missing = append(missing, errors.New("execution role"))
	}
	if in.RunRole == nil {
		missing = append(missing, errors.New("run role"))
	}
	if in.Model == "" {
		missing = append(missing, errors.New("model"))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (%s): %w", ErrIncompleteTaskInput, in.Variant, errors.Join(missing...))
	}
	return nil
}

// TaskSpec is a built Fargate task definition plus the values it was built
// with, kept for assertions and for the service factory.
type TaskSpec struct {
	Variant     variant.Variant
	Definition  awsecs.FargateTaskDefinition
	App         awsecs.ContainerDefinition
	Sidecar     awsecs.ContainerDefinition
	Environment map[string]string
	Ports       []int
}

// Environment returns the application container environment for v.
func Environment(v variant.Variant, model, logLevel string) map[string]string {
	if logLevel == "" {
		logLevel = "INFO"
	}
	return map[string]string{
		contract.EnvLogLevel:       logLevel,
		contract.EnvMallocArenaMax: "2",
		contract.EnvModel:          model,
		contract.EnvEngineHost:     "0.0.0.0",
		contract.EnvHome:           "/tmp",
		contract.EnvModelStore:     "/tmp",
		contract.EnvLibraryPath:    "/var/task/lib",
		contract.EnvServiceName:    v.ServiceName(),
	}
}

func newTaskSpec(scope constructs.Construct, in TaskSpecInput) (*TaskSpec, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	v := in.Variant

	def := awsecs.NewFargateTaskDefinition(scope, jsii.String(idPart(v)+"TaskDef"), &awsecs.FargateTaskDefinitionProps{
		Family:         jsii.String("taskDef-" + v.Suffix()),
		Cpu:            jsii.Number(TaskCPU),
		MemoryLimitMiB: jsii.Number(TaskMemoryMiB),
		ExecutionRole:  in.ExecutionRole,
		TaskRole:       in.RunRole,
		RuntimePlatform: &awsecs.RuntimePlatform{
			CpuArchitecture:       awsecs.CpuArchitecture_X86_64(),
			OperatingSystemFamily: awsecs.OperatingSystemFamily_LINUX(),
		},
	})

	sidecar := def.AddContainer(jsii.String(SidecarContainerName), &awsecs.ContainerDefinitionOptions{
		Image: awsecs.ContainerImage_FromDockerImageAsset(in.Sidecar),
		Logging: awsecs.LogDrivers_AwsLogs(&awsecs.AwsLogDriverProps{
			StreamPrefix: jsii.String(SidecarContainerName + "-" + v.Suffix()),
			Mode:         awsecs.AwsLogDriverMode_NON_BLOCKING,
			LogGroup:     in.LogGroup,
		}),
		Essential: jsii.Bool(false),
	})

	env := Environment(v, in.Model, in.LogLevel)
	envRefs := make(map[string]*string, len(env))
	for k, val := range env {
		envRefs[k] = jsii.String(val)
	}
	app := def.AddContainer(jsii.String(AppContainerName), &awsecs.ContainerDefinitionOptions{
		Image:       awsecs.ContainerImage_FromEcrRepository(in.Repository, in.Tag),
		Environment: &envRefs,
		Logging: awsecs.LogDrivers_AwsLogs(&awsecs.AwsLogDriverProps{
			StreamPrefix: jsii.String("ollama-fargate-" + v.Suffix()),
			Mode:         awsecs.AwsLogDriverMode_NON_BLOCKING,
		}),
		Essential: jsii.Bool(true),
	})

	ports := []int{contract.PrimaryPort, contract.SecondaryPort}
	for _, p := range ports {
		app.AddPortMappings(&awsecs.PortMapping{
			ContainerPort: jsii.Number(float64(p)),
			Protocol:      awsecs.Protocol_TCP,
		})
	}

	def.AddToTaskRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings(ecrPullActions...),
		Resources: jsii.Strings(*in.Repository.RepositoryArn() + ":*"),
	}))
	def.AddToTaskRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("ecr:GetAuthorizationToken"),
		Resources: jsii.Strings("*"),
	}))

	return &TaskSpec{
		Variant:     v,
		Definition:  def,
		App:         app,
		Sidecar:     sidecar,
		Environment: env,
		Ports:       ports,
	}, nil
}
