package config

import "fargatesoci/internal/variant"

// Config describes one deployment of the comparison stack.
type Config struct {
	Region    string    `yaml:"region" mapstructure:"region"`
	StackName string    `yaml:"stackName" mapstructure:"stackName"`
	Network   Network   `yaml:"network" mapstructure:"network"`
	Registry  Registry  `yaml:"registry" mapstructure:"registry"`
	Assets    Assets    `yaml:"assets" mapstructure:"assets"`
	Cluster   Cluster   `yaml:"cluster" mapstructure:"cluster"`
	Task      Task      `yaml:"task" mapstructure:"task"`
	Dashboard Dashboard `yaml:"dashboard" mapstructure:"dashboard"`
}

// Network contains VPC settings
type Network struct {
	MaxAzs   int `yaml:"maxAzs" mapstructure:"maxAzs"`
	CidrMask int `yaml:"cidrMask" mapstructure:"cidrMask"`
}

// Registry names the two ECR repositories.
type Registry struct {
	FastStart string `yaml:"fastStart" mapstructure:"fastStart"`
	Baseline  string `yaml:"baseline" mapstructure:"baseline"`
}

// RepositoryName returns the repository that serves v.
func (r Registry) RepositoryName(v variant.Variant) string {
	if v.FastStart() {
		return r.FastStart
	}
	return r.Baseline
}

// Assets locates the docker build contexts.
type Assets struct {
	App     Asset `yaml:"app" mapstructure:"app"`
	Sidecar Asset `yaml:"sidecar" mapstructure:"sidecar"`
}

// Asset is one docker build context.
type Asset struct {
	Directory string   `yaml:"directory" mapstructure:"directory"`
	File      string   `yaml:"file" mapstructure:"file"`
	Exclude   []string `yaml:"exclude,omitempty" mapstructure:"exclude"`
}

type Cluster struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// Task contains values injected into the application container.
type Task struct {
	Model    string `yaml:"model" mapstructure:"model"`
	LogLevel string `yaml:"logLevel" mapstructure:"logLevel"`
	LogGroup string `yaml:"logGroup" mapstructure:"logGroup"`
}

type Dashboard struct {
	Name string `yaml:"name" mapstructure:"name"`
}
