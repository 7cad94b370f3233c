// Package contract holds the values shared between the stack definition and
// the processes running inside it. Changing one side without the other breaks
// health checks or leaves the dashboard empty.
package contract

import "time"

// Ports exposed by the application container.
const (
	PrimaryPort   = 8080  // application API
	SecondaryPort = 11434 // model engine API

	PrimaryHealthPath   = "/health"
	SecondaryHealthPath = "/"
	HealthyHTTPCodes    = "200"
)

// Environment keys read by the application container.
const (
	EnvLogLevel       = "LOG_LEVEL"
	EnvMallocArenaMax = "MALLOC_ARENA_MAX"
	EnvModel          = "OLLAMA_MODEL"
	EnvEngineHost     = "OLLAMA_HOST"
	EnvHome           = "HOME"
	EnvModelStore     = "OLLAMA_MODELS"
	EnvLibraryPath    = "LD_LIBRARY_PATH"
	EnvServiceName    = "SERVICE_NAME"

	// EnvTaskMetadataURI is injected by the ECS agent, not by the stack.
	EnvTaskMetadataURI = "ECS_CONTAINER_METADATA_URI_V4"
)

// Metrics emitted by the application and read by the dashboard.
const (
	MetricNamespace     = "SOCI/Performance/v1"
	MetricImagePullTime = "ImagePullTime"
	DimensionService    = "ServiceName"
	DashboardPeriod     = 5 * time.Minute
)

// Media types ECR reports for SOCI index artifacts.
const (
	SociIndexV1MediaType = "application/vnd.amazon.soci.index.v1+json"
	SociIndexV2MediaType = "application/vnd.amazon.soci.index.v2+json"
)

// IsSociIndex reports whether mediaType names a SOCI index artifact.
func IsSociIndex(mediaType string) bool {
	return mediaType == SociIndexV1MediaType || mediaType == SociIndexV2MediaType
}
