package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
)

// destroyOnTeardown marks every L1 resource for deletion with the stack.
// The environment is ephemeral: registries, log groups and the dashboard
// go away together.
type destroyOnTeardown struct{}

func (destroyOnTeardown) Visit(node constructs.IConstruct) {
	if res, ok := node.(awscdk.CfnResource); ok {
		res.ApplyRemovalPolicy(awscdk.RemovalPolicy_DESTROY, nil)
	}
}

func applyDestroyPolicy(scope constructs.IConstruct) {
	awscdk.Aspects_Of(scope).Add(destroyOnTeardown{}, nil)
}
