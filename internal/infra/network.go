package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"fargatesoci/internal/config"
)

type Network struct {
	Vpc awsec2.Vpc
}

// newNetwork creates a VPC with public subnets only. There is no NAT, so
// anything that needs egress must hold a public address.
func newNetwork(scope constructs.Construct, cfg config.Network) *Network {
	vpc := awsec2.NewVpc(scope, jsii.String("OllamaVpc"), &awsec2.VpcProps{
		MaxAzs: jsii.Number(float64(cfg.MaxAzs)),
		SubnetConfiguration: &[]*awsec2.SubnetConfiguration{
			{
				Name:       jsii.String("public-subnet"),
				SubnetType: awsec2.SubnetType_PUBLIC,
				CidrMask:   jsii.Number(float64(cfg.CidrMask)),
			},
		},
		NatGateways: jsii.Number(0),
	})
	return &Network{Vpc: vpc}
}
