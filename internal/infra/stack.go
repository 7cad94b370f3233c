// Package infra declares the SOCI comparison stack with the AWS CDK.
//
// Nothing here runs at deploy time. Each constructor adds constructs to the
// tree; the CDK synthesizes a CloudFormation template and the provider does
// the rest.
package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"fargatesoci/internal/config"
	"fargatesoci/internal/logger"
	"fargatesoci/internal/variant"
)

var stackLogger = logger.PackageLogger("📦 STACK")

// SociStack holds typed handles to everything the stack declares.
type SociStack struct {
	Stack      awscdk.Stack
	Config     config.Config
	Network    *Network
	Identities *Identities
	Images     *Images
	Index      *IndexBuild
	Cluster    awsecs.Cluster
	LogGroup   awslogs.LogGroup
	Tasks      map[variant.Variant]*TaskSpec
	Services   map[variant.Variant]*Service
	Dashboard  *Dashboard
	Ordering   *Ordering
}

// NewApp creates a CDK app holding the stack described by cfg.
func NewApp(cfg config.Config) (awscdk.App, *SociStack, error) {
	app := awscdk.NewApp(nil)
	s, err := NewSociStack(app, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, s, nil
}

// NewSociStack declares the whole topology under scope. It fails before
// creating anything when cfg is invalid, and while wiring when an input a
// factory needs cannot be resolved.
func NewSociStack(scope constructs.Construct, cfg config.Config) (*SociStack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stack := awscdk.NewStack(scope, jsii.String(cfg.StackName), &awscdk.StackProps{
		Env: &awscdk.Environment{Region: jsii.String(cfg.Region)},
	})
	s := &SociStack{
		Stack:    stack,
		Config:   cfg,
		Tasks:    map[variant.Variant]*TaskSpec{},
		Services: map[variant.Variant]*Service{},
		Ordering: &Ordering{},
	}

	s.Network = newNetwork(stack, cfg.Network)
	s.Identities = newIdentities(stack)

	images, err := newImages(stack, cfg)
	if err != nil {
		return nil, err
	}
	s.Images = images
	fastPush := images.Deployments[variant.FastStart]
	basePush := images.Deployments[variant.Baseline]

	// Only the fast-start repository gets an index; the baseline must pull
	// the classic way.
	s.Index = newIndexBuild(stack, images.Repositories[variant.FastStart], images.ImageURI(variant.FastStart), *images.Tag())
	s.Ordering.Wait(s.Index.Construct, fastPush)

	s.Cluster = awsecs.NewCluster(stack, jsii.String("OllamaCluster"), &awsecs.ClusterProps{
		Vpc:         s.Network.Vpc,
		ClusterName: jsii.String(cfg.Cluster.Name),
	})
	s.Ordering.Wait(s.Cluster, fastPush, basePush)

	s.LogGroup = awslogs.NewLogGroup(stack, jsii.String("soci"), &awslogs.LogGroupProps{
		LogGroupName:  jsii.String(cfg.Task.LogGroup),
		Retention:     awslogs.RetentionDays_ONE_DAY,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	for _, v := range variant.Variants() {
		task, err := newTaskSpec(stack, TaskSpecInput{
			Variant:       v,
			LogGroup:      s.LogGroup,
			Repository:    images.Repositories[v],
			Tag:           images.Tag(),
			Sidecar:       images.Sidecar,
			ExecutionRole: s.Identities.Execution,
			RunRole:       s.Identities.Run[v],
			Model:         cfg.Task.Model,
			LogLevel:      cfg.Task.LogLevel,
		})
		if err != nil {
			return nil, err
		}
		s.Ordering.Wait(task.Definition, images.Deployments[v], s.LogGroup)
		s.Tasks[v] = task
	}

	for _, v := range variant.Variants() {
		svc, err := newService(stack, ServiceInput{Cluster: s.Cluster, Task: s.Tasks[v]})
		if err != nil {
			return nil, fmt.Errorf("%s service: %w", v, err)
		}
		s.Ordering.Wait(svc.Pattern, s.Tasks[v].Definition)
		s.Services[v] = svc
	}

	s.Dashboard = newDashboard(stack, cfg.Dashboard.Name)
	for _, v := range variant.Variants() {
		s.Ordering.Wait(s.Dashboard.Dashboard, s.Tasks[v].Definition, s.Services[v].Pattern)
	}
	s.Ordering.Wait(s.Dashboard.Dashboard, s.Cluster)

	applyDestroyPolicy(stack)

	stackLogger.Debug("declared stack %s in %s with %d ordering edges", cfg.StackName, cfg.Region, len(s.Ordering.Edges()))
	return s, nil
}
