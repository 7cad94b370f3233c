// Package taskmeta reads the ECS task metadata endpoint (version 4) from
// inside a running container.
package taskmeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"fargatesoci/internal/contract"
)

// SnapshotterSOCI is reported for containers whose image was lazily loaded.
const SnapshotterSOCI = "soci"

var (
	ErrNoEndpoint   = errors.New("task metadata endpoint is not set")
	ErrPullUnknown  = errors.New("image pull timestamps are missing")
	ErrPullReversed = errors.New("image pull stopped before it started")
)

type Container struct {
	DockerID    string `json:"DockerId"`
	Name        string `json:"Name"`
	Image       string `json:"Image"`
	ImageID     string `json:"ImageID"`
	KnownStatus string `json:"KnownStatus"`
	Snapshotter string `json:"Snapshotter"`
}

// Task is the subset of the task metadata response this module uses.
type Task struct {
	Cluster       string      `json:"Cluster"`
	TaskARN       string      `json:"TaskARN"`
	Family        string      `json:"Family"`
	Revision      string      `json:"Revision"`
	LaunchType    string      `json:"LaunchType"`
	PullStartedAt *time.Time  `json:"PullStartedAt"`
	PullStoppedAt *time.Time  `json:"PullStoppedAt"`
	Containers    []Container `json:"Containers"`
}

// ImagePullTime is how long the task spent pulling its images.
func (t Task) ImagePullTime() (time.Duration, error) {
	if t.PullStartedAt == nil || t.PullStoppedAt == nil {
		return 0, ErrPullUnknown
	}
	d := t.PullStoppedAt.Sub(*t.PullStartedAt)
	if d < 0 {
		return 0, fmt.Errorf("%w: started %s, stopped %s", ErrPullReversed, t.PullStartedAt, t.PullStoppedAt)
	}
	return d, nil
}

// LazyLoaded maps each container name to whether its image was served
// through the SOCI snapshotter.
func (t Task) LazyLoaded() map[string]bool {
	out := make(map[string]bool, len(t.Containers))
	for _, c := range t.Containers {
		out[c.Name] = strings.EqualFold(c.Snapshotter, SnapshotterSOCI)
	}
	return out
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewFromEnv builds a client from ECS_CONTAINER_METADATA_URI_V4.
func NewFromEnv() (*Client, error) {
	base := os.Getenv(contract.EnvTaskMetadataURI)
	if base == "" {
		return nil, ErrNoEndpoint
	}
	return &Client{
		BaseURL: strings.TrimSuffix(base, "/"),
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// Task fetches the metadata of the task this container belongs to.
func (c *Client) Task(ctx context.Context) (Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/task", nil)
	if err != nil {
		return Task{}, err
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Task{}, fmt.Errorf("get task metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Task{}, fmt.Errorf("get task metadata: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var t Task
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return Task{}, fmt.Errorf("decode task metadata: %w", err)
	}
	return t, nil
}
