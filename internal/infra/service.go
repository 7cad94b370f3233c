package infra

import (
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecspatterns"
	elbv2 "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"fargatesoci/internal/contract"
	"fargatesoci/internal/variant"
)

// Rollout policy shared by both services. Min 0 % lets ECS stop the old task
// before the new one is healthy; the circuit breaker rolls back on failure.
const (
	DesiredCount      = 1
	MaxHealthyPercent = 200
	MinHealthyPercent = 0
)

var ErrIncompleteServiceInput = errors.New("incomplete service input")

// HealthPolicy is a target group health check.
type HealthPolicy struct {
	Path      string
	Port      int // 0 means the traffic port
	Codes     string
	Timeout   time.Duration
	Interval  time.Duration
	Healthy   int
	Unhealthy int
}

var (
	PrimaryHealth = HealthPolicy{
		Path:      contract.PrimaryHealthPath,
		Port:      contract.PrimaryPort,
		Codes:     contract.HealthyHTTPCodes,
		Timeout:   10 * time.Second,
		Interval:  25 * time.Second,
		Healthy:   2,
		Unhealthy: 3,
	}
	SecondaryHealth = HealthPolicy{
		Path:      contract.SecondaryHealthPath,
		Timeout:   5 * time.Second,
		Interval:  25 * time.Second,
		Healthy:   2,
		Unhealthy: 2,
	}
)

func (h HealthPolicy) healthCheck() *elbv2.HealthCheck {
	hc := &elbv2.HealthCheck{
		Path:                    jsii.String(h.Path),
		Timeout:                 awscdk.Duration_Seconds(jsii.Number(h.Timeout.Seconds())),
		Interval:                awscdk.Duration_Seconds(jsii.Number(h.Interval.Seconds())),
		HealthyThresholdCount:   jsii.Number(float64(h.Healthy)),
		UnhealthyThresholdCount: jsii.Number(float64(h.Unhealthy)),
	}
	if h.Port != 0 {
		hc.Port = jsii.String(strconv.Itoa(h.Port))
	}
	if h.Codes != "" {
		hc.HealthyHttpCodes = jsii.String(h.Codes)
	}
	return hc
}

type ServiceInput struct {
	Cluster awsecs.ICluster
	Task    *TaskSpec
}

// Service is a load-balanced Fargate service with a second listener for
// the engine port.
type Service struct {
	Variant              variant.Variant
	Pattern              awsecspatterns.ApplicationLoadBalancedFargateService
	SecondaryListener    elbv2.ApplicationListener
	SecondaryTargetGroup elbv2.ApplicationTargetGroup
}

func newService(scope constructs.Construct, in ServiceInput) (*Service, error) {
	if in.Cluster == nil || in.Task == nil || in.Task.Definition == nil {
		return nil, ErrIncompleteServiceInput
	}
	v := in.Task.Variant
	id := v.ServiceName()

	svc := awsecspatterns.NewApplicationLoadBalancedFargateService(scope, jsii.String(id), &awsecspatterns.ApplicationLoadBalancedFargateServiceProps{
		Cluster:            in.Cluster,
		ServiceName:        jsii.String(id),
		TaskDefinition:     in.Task.Definition,
		DesiredCount:       jsii.Number(DesiredCount),
		PublicLoadBalancer: jsii.Bool(true),
		AssignPublicIp:     jsii.Bool(true),
		TaskSubnets: &awsec2.SubnetSelection{
			SubnetType: awsec2.SubnetType_PUBLIC,
		},
		EnableExecuteCommand: jsii.Bool(true),
		MaxHealthyPercent:    jsii.Number(MaxHealthyPercent),
		MinHealthyPercent:    jsii.Number(MinHealthyPercent),
		CircuitBreaker: &awsecs.DeploymentCircuitBreaker{
			Enable:   jsii.Bool(true),
			Rollback: jsii.Bool(true),
		},
	})

	// No connection draining: replaced tasks leave the target group at once.
	svc.TargetGroup().SetAttribute(jsii.String("deregistration_delay.timeout_seconds"), jsii.String("0"))
	svc.TargetGroup().ConfigureHealthCheck(PrimaryHealth.healthCheck())

	listener := svc.LoadBalancer().AddListener(jsii.String("OllamaListener"), &elbv2.BaseApplicationListenerProps{
		Port:     jsii.Number(contract.SecondaryPort),
		Protocol: elbv2.ApplicationProtocol_HTTP,
		Open:     jsii.Bool(false),
	})
	tg := listener.AddTargets(jsii.String("OllamaTargetGroup"), &elbv2.AddApplicationTargetsProps{
		Port:     jsii.Number(contract.SecondaryPort),
		Protocol: elbv2.ApplicationProtocol_HTTP,
		Targets: &[]elbv2.IApplicationLoadBalancerTarget{
			svc.Service().LoadBalancerTarget(&awsecs.LoadBalancerTargetOptions{
				ContainerName: jsii.String(AppContainerName),
				ContainerPort: jsii.Number(contract.SecondaryPort),
				Protocol:      awsecs.Protocol_TCP,
			}),
		},
		HealthCheck: SecondaryHealth.healthCheck(),
	})

	return &Service{
		Variant:              v,
		Pattern:              svc,
		SecondaryListener:    listener,
		SecondaryTargetGroup: tg,
	}, nil
}
