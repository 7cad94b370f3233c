// Package ollama drives the model engine binary shipped in the application
// image.
package ollama

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"fargatesoci/internal/logger"
)

const (
	DefaultBinary       = "/mnt/bin/ollama"
	DefaultStartupGrace = 3 * time.Second
)

var (
	ollamaLogger = logger.PackageLogger("🦙 OLLAMA")

	ErrEngineExited = errors.New("engine exited during startup")
	ErrNotServing   = errors.New("engine is not running")
)

type Runner struct {
	Binary       string
	Model        string
	StartupGrace time.Duration
	// Stdout and Stderr receive the engine's output once it is serving.
	// They default to the process's own.
	Stdout io.Writer
	Stderr io.Writer

	mu    sync.Mutex
	serve *exec.Cmd
	done  chan struct{}
}

func New(binary, model string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{Binary: binary, Model: model, StartupGrace: DefaultStartupGrace}
}

// Serve starts "<binary> serve" and gives it StartupGrace to settle. The
// engine keeps running until ctx is done or Stop is called.
func (r *Runner) Serve(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.serve != nil {
		return nil
	}

	stderr := new(startupLog)
	cmd := exec.CommandContext(ctx, r.Binary, "serve")
	cmd.Stdout = r.stdout()
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s serve: %w", r.Binary, err)
	}
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		return fmt.Errorf("%w: %s", ErrEngineExited, strings.TrimSpace(stderr.String()))
	case <-time.After(r.StartupGrace):
	case <-ctx.Done():
		<-done
		return ctx.Err()
	}

	stderr.release(r.stderr())
	r.serve, r.done = cmd, done
	ollamaLogger.Info("serve started as pid %d", cmd.Process.Pid)
	return nil
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// Stop kills the engine started by Serve and waits for it to exit.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.serve == nil {
		return ErrNotServing
	}
	if err := r.serve.Process.Kill(); err != nil && !errors.Is(err, errAlreadyFinished) {
		return err
	}
	<-r.done
	r.serve, r.done = nil, nil
	return nil
}

// Pull downloads the configured model into the engine's store.
func (r *Runner) Pull(ctx context.Context) error {
	ollamaLogger.Info("Pulling model %s...", r.Model)
	if _, err := r.exec(ctx, "pull", r.Model); err != nil {
		return err
	}
	ollamaLogger.Success("Model %s pulled successfully", r.Model)
	return nil
}

// Run sends one prompt to the model and returns what it printed.
func (r *Runner) Run(ctx context.Context, prompt string) (string, error) {
	return r.exec(ctx, "run", r.Model, prompt)
}

func (r *Runner) exec(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", &CommandError{Args: args, Stderr: msg, Err: err}
	}
	return stdout.String(), nil
}

// CommandError carries the engine's stderr for a failed invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ollama %s: %s", strings.Join(e.Args, " "), e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }
