package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"fargatesoci/internal/config"
	"fargatesoci/internal/variant"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	got, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := config.Default()
	if got.Region != want.Region || got.Registry != want.Registry || got.Cluster != want.Cluster {
		t.Errorf("want defaults, got %+v", got)
	}
	if got.Registry.RepositoryName(variant.FastStart) != "ollama-fargate-soci" {
		t.Errorf("unexpected fast-start repository %q", got.Registry.RepositoryName(variant.FastStart))
	}
	if got.Registry.RepositoryName(variant.Baseline) != "ollama-fargate-non-soci" {
		t.Errorf("unexpected baseline repository %q", got.Registry.RepositoryName(variant.Baseline))
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fargatesoci.yml")
	cfg := config.Default()
	cfg.Region = "eu-west-1"
	cfg.Task.Model = "llama3.2:1b"
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("save: %s", err)
	}
	t.Setenv("SOCI_CLUSTER_NAME", "from-env")

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Region != "eu-west-1" {
		t.Errorf("region: want eu-west-1, got %s", got.Region)
	}
	if got.Task.Model != "llama3.2:1b" {
		t.Errorf("model: want llama3.2:1b, got %s", got.Task.Model)
	}
	if got.Cluster.Name != "from-env" {
		t.Errorf("cluster: want from-env, got %s", got.Cluster.Name)
	}
	if got.Network.MaxAzs != 2 {
		t.Errorf("maxAzs: want 2, got %d", got.Network.MaxAzs)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	if err := os.WriteFile(path, []byte("region: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected an error")
	}
}

func TestValidate(t *testing.T) {
	type When struct{ Mutate func(*config.Config) }
	type Then struct{ Invalid bool }

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			cfg := config.Default()
			when.Mutate(&cfg)
			err := cfg.Validate()
			if then.Invalid != errors.Is(err, config.ErrInvalid) {
				t.Errorf("want invalid=%v, got %v", then.Invalid, err)
			}
		}
	}

	t.Run("defaults are valid", theory(When{Mutate: func(*config.Config) {}}, Then{}))
	t.Run("same repository twice", theory(When{Mutate: func(c *config.Config) {
		c.Registry.Baseline = c.Registry.FastStart
	}}, Then{Invalid: true}))
	t.Run("empty cluster name", theory(When{Mutate: func(c *config.Config) {
		c.Cluster.Name = " "
	}}, Then{Invalid: true}))
	t.Run("no availability zones", theory(When{Mutate: func(c *config.Config) {
		c.Network.MaxAzs = 0
	}}, Then{Invalid: true}))
	t.Run("cidr mask too wide", theory(When{Mutate: func(c *config.Config) {
		c.Network.CidrMask = 8
	}}, Then{Invalid: true}))
}

func TestWriteRoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shown.yml")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Dashboard.Name = "custom"
	if err := config.Write(cfg, f); err != nil {
		t.Fatalf("write: %s", err)
	}
	f.Close()

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Dashboard.Name != "custom" || !reflect.DeepEqual(got.Assets, cfg.Assets) {
		t.Errorf("unexpected config %+v", got)
	}
}
