// Package docker checks that a machine can build the stack's image assets.
package docker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	"fargatesoci/internal/logger"
)

const DockerfileName = "Dockerfile"

var (
	dlog = logger.PackageLogger("🐳 DOCKER")

	ErrDockerNotRunning   = errors.New("docker daemon is not reachable")
	ErrDockerfileNotFound = errors.New("dockerfile not found")
)

// Pinger is the daemon call the preflight needs.
type Pinger interface {
	Ping(ctx context.Context) (types.Ping, error)
}

// NewClient connects to the daemon named by the DOCKER_* environment.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return cli, nil
}

type Preflight struct {
	Daemon Pinger
}

// BuildContext is a directory and the Dockerfile inside it, relative to the
// directory.
type BuildContext struct {
	Directory string
	File      string
}

// Check pings the daemon then confirms every build context has its
// Dockerfile. All missing files are reported together.
func (p *Preflight) Check(ctx context.Context, contexts ...BuildContext) error {
	ping, err := p.Daemon.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDockerNotRunning, err)
	}
	dlog.Debug("docker daemon API %s (%s)", ping.APIVersion, ping.OSType)

	var errs []error
	for _, bc := range contexts {
		ok, err := DockerfileExists(bc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDockerfileNotFound, filepath.Join(bc.Directory, bc.File)))
			continue
		}
		dlog.Success("found %s", filepath.Join(bc.Directory, bc.File))
	}
	return errors.Join(errs...)
}

// DockerfileExists checks whether the Dockerfile of bc is a regular file.
func DockerfileExists(bc BuildContext) (bool, error) {
	file := bc.File
	if file == "" {
		file = DockerfileName
	}
	path := filepath.Join(bc.Directory, file)

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("error checking Dockerfile existence: %w", err)
	}
	if stat.IsDir() {
		return false, fmt.Errorf("dockerfile path %s is a directory", path)
	}
	return true, nil
}
