// Package warmup runs the cold-start sequence of the application container:
// bring the engine up, fetch the model, then report how long the image pull
// took.
package warmup

import (
	"context"
	"fmt"
	"time"

	"fargatesoci/internal/logger"
	"fargatesoci/internal/taskmeta"
)

var warmupLogger = logger.PackageLogger("🔥 WARMUP")

type Engine interface {
	Serve(ctx context.Context) error
	Pull(ctx context.Context) error
}

type Metadata interface {
	Task(ctx context.Context) (taskmeta.Task, error)
}

type Recorder interface {
	ImagePullTime(ctx context.Context, serviceName string, d time.Duration) error
}

type Warmup struct {
	Engine      Engine
	Metadata    Metadata
	Recorder    Recorder
	ServiceName string
}

// Result describes a completed warmup.
type Result struct {
	PullTime   time.Duration
	LazyLoaded map[string]bool
}

// StepError names the step a warmup stopped at.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("warmup %s: %s", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

const (
	StepServe    = "serve"
	StepPull     = "pull"
	StepMetadata = "metadata"
	StepMeasure  = "measure"
	StepPublish  = "publish"
)

// Run executes the sequence once. The first failing step ends it.
func (w *Warmup) Run(ctx context.Context) (Result, error) {
	warmupLogger.Info("Service name: %s", w.ServiceName)

	warmupLogger.Info("Starting engine...")
	if err := w.Engine.Serve(ctx); err != nil {
		return Result{}, &StepError{Step: StepServe, Err: err}
	}
	if err := w.Engine.Pull(ctx); err != nil {
		return Result{}, &StepError{Step: StepPull, Err: err}
	}

	warmupLogger.Info("Getting task metadata...")
	task, err := w.Metadata.Task(ctx)
	if err != nil {
		return Result{}, &StepError{Step: StepMetadata, Err: err}
	}
	d, err := task.ImagePullTime()
	if err != nil {
		return Result{}, &StepError{Step: StepMeasure, Err: err}
	}
	warmupLogger.Info("Image pull started at: %s", task.PullStartedAt.Format(time.RFC3339Nano))
	warmupLogger.Info("Image pull stopped at: %s", task.PullStoppedAt.Format(time.RFC3339Nano))
	warmupLogger.Info("Image pull time: %.2f seconds", d.Seconds())

	if err := w.Recorder.ImagePullTime(ctx, w.ServiceName, d); err != nil {
		return Result{}, &StepError{Step: StepPublish, Err: err}
	}

	warmupLogger.Success("Background initialization completed successfully")
	return Result{PullTime: d, LazyLoaded: task.LazyLoaded()}, nil
}
