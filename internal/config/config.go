package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is looked up in the working directory when no path is given.
	ConfigFile = "fargatesoci.yml"
	EnvPrefix  = "SOCI"
)

var ErrInvalid = errors.New("invalid configuration")

// Default reproduces the reference deployment.
func Default() Config {
	return Config{
		Region:    "ca-central-1",
		StackName: "EcsFargateSociStack",
		Network:   Network{MaxAzs: 2, CidrMask: 24},
		Registry: Registry{
			FastStart: "ollama-fargate-soci",
			Baseline:  "ollama-fargate-non-soci",
		},
		Assets: Assets{
			App: Asset{
				Directory: ".",
				File:      "assets/app/Dockerfile",
				Exclude:   []string{"cdk.out", ".git", "_examples", "**/testdata"},
			},
			Sidecar: Asset{
				Directory: ".",
				File:      "assets/amilazy/Dockerfile",
				Exclude:   []string{"cdk.out", ".git", "_examples", "**/testdata"},
			},
		},
		Cluster: Cluster{Name: "soci-fargate-demo"},
		Task: Task{
			Model:    "deepseek-r1:1.5b",
			LogLevel: "DEBUG",
			LogGroup: "/aws/ecs/amilazy",
		},
		Dashboard: Dashboard{Name: "SOCI-Performance-Comparison-Dashboard"},
	}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("region", d.Region)
	v.SetDefault("stackName", d.StackName)
	v.SetDefault("network.maxAzs", d.Network.MaxAzs)
	v.SetDefault("network.cidrMask", d.Network.CidrMask)
	v.SetDefault("registry.fastStart", d.Registry.FastStart)
	v.SetDefault("registry.baseline", d.Registry.Baseline)
	v.SetDefault("assets.app.directory", d.Assets.App.Directory)
	v.SetDefault("assets.app.file", d.Assets.App.File)
	v.SetDefault("assets.app.exclude", d.Assets.App.Exclude)
	v.SetDefault("assets.sidecar.directory", d.Assets.Sidecar.Directory)
	v.SetDefault("assets.sidecar.file", d.Assets.Sidecar.File)
	v.SetDefault("assets.sidecar.exclude", d.Assets.Sidecar.Exclude)
	v.SetDefault("cluster.name", d.Cluster.Name)
	v.SetDefault("task.model", d.Task.Model)
	v.SetDefault("task.logLevel", d.Task.LogLevel)
	v.SetDefault("task.logGroup", d.Task.LogGroup)
	v.SetDefault("dashboard.name", d.Dashboard.Name)
}

// Load layers the YAML file at path and SOCI_* environment variables over
// Default. A missing file is not an error; an empty path means ConfigFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFile
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as YAML.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Write(cfg Config, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Validate rejects configurations that cannot produce a symmetric stack.
func (c Config) Validate() error {
	var errs []error
	required := map[string]string{
		"region":                   c.Region,
		"stackName":                c.StackName,
		"registry.fastStart":       c.Registry.FastStart,
		"registry.baseline":        c.Registry.Baseline,
		"assets.app.directory":     c.Assets.App.Directory,
		"assets.sidecar.directory": c.Assets.Sidecar.Directory,
		"cluster.name":             c.Cluster.Name,
		"task.model":               c.Task.Model,
		"task.logGroup":            c.Task.LogGroup,
		"dashboard.name":           c.Dashboard.Name,
	}
	for _, key := range slices.Sorted(maps.Keys(required)) {
		if strings.TrimSpace(required[key]) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is empty", ErrInvalid, key))
		}
	}
	if c.Registry.FastStart != "" && c.Registry.FastStart == c.Registry.Baseline {
		errs = append(errs, fmt.Errorf("%w: fast-start and baseline repositories must differ (both %q)", ErrInvalid, c.Registry.FastStart))
	}
	if c.Network.MaxAzs < 1 {
		errs = append(errs, fmt.Errorf("%w: network.maxAzs must be at least 1", ErrInvalid))
	}
	if c.Network.CidrMask < 16 || c.Network.CidrMask > 28 {
		errs = append(errs, fmt.Errorf("%w: network.cidrMask %d outside 16..28", ErrInvalid, c.Network.CidrMask))
	}
	return errors.Join(errs...)
}
