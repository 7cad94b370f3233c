package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"fargatesoci/internal/variant"
)

const ecsTasksPrincipal = "ecs-tasks.amazonaws.com"

// Identities are the IAM roles tasks run under.
type Identities struct {
	// Execution is used by the ECS agent: image pulls, log delivery and
	// session-manager channels for execute-command.
	Execution awsiam.Role
	// Run holds one task role per variant; the application uses it to write
	// logs and metrics.
	Run map[variant.Variant]awsiam.Role
}

var sessionManagerActions = []string{
	"ssmmessages:CreateDataChannel",
	"ssmmessages:OpenDataChannel",
	"ssmmessages:OpenControlChannel",
	"ssmmessages:CreateControlChannel",
}

var telemetryActions = []string{
	"logs:CreateLogGroup",
	"logs:CreateLogStream",
	"logs:PutLogEvents",
	"logs:DescribeLogStreams",
	"logs:DescribeLogGroups",
	"cloudwatch:PutMetricData",
}

func newIdentities(scope constructs.Construct) *Identities {
	exec := awsiam.NewRole(scope, jsii.String("EcsTaskExecutionRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String(ecsTasksPrincipal), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AmazonECSTaskExecutionRolePolicy")),
		},
	})
	exec.AddToPrincipalPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    awsiam.Effect_ALLOW,
		Actions:   jsii.Strings(sessionManagerActions...),
		Resources: jsii.Strings("*"),
	}))

	ids := &Identities{Execution: exec, Run: map[variant.Variant]awsiam.Role{}}
	for _, v := range variant.Variants() {
		role := awsiam.NewRole(scope, jsii.String(idPart(v)+"TaskRole"), &awsiam.RoleProps{
			AssumedBy: awsiam.NewServicePrincipal(jsii.String(ecsTasksPrincipal), nil),
		})
		role.AddToPrincipalPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings(telemetryActions...),
			Resources: jsii.Strings("*"),
		}))
		ids.Run[v] = role
	}
	return ids
}

// idPart is the construct id fragment of a variant.
func idPart(v variant.Variant) string {
	if v.FastStart() {
		return "Soci"
	}
	return "NonSoci"
}
