package warmup_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"fargatesoci/internal/taskmeta"
	"fargatesoci/internal/warmup"
)

type trace struct{ calls []string }

type fakeEngine struct {
	t        *trace
	serveErr error
	pullErr  error
}

func (f *fakeEngine) Serve(context.Context) error {
	f.t.calls = append(f.t.calls, "serve")
	return f.serveErr
}

func (f *fakeEngine) Pull(context.Context) error {
	f.t.calls = append(f.t.calls, "pull")
	return f.pullErr
}

type fakeMetadata struct {
	t    *trace
	task taskmeta.Task
	err  error
}

func (f *fakeMetadata) Task(context.Context) (taskmeta.Task, error) {
	f.t.calls = append(f.t.calls, "metadata")
	return f.task, f.err
}

type fakeRecorder struct {
	t       *trace
	service string
	value   time.Duration
	err     error
}

func (f *fakeRecorder) ImagePullTime(_ context.Context, service string, d time.Duration) error {
	f.t.calls = append(f.t.calls, "publish")
	f.service, f.value = service, d
	return f.err
}

func TestRun(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	stop := start.Add(7 * time.Second)
	measured := taskmeta.Task{
		PullStartedAt: &start,
		PullStoppedAt: &stop,
		Containers:    []taskmeta.Container{{Name: "OllamaContainer", Snapshotter: "soci"}},
	}
	boom := errors.New("boom")

	type When struct {
		ServeErr, PullErr, MetaErr, PublishErr error
		Task                                   taskmeta.Task
	}
	type Then struct {
		Calls []string
		Step  string
		Err   error
	}

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			tr := &trace{}
			rec := &fakeRecorder{t: tr, err: when.PublishErr}
			w := &warmup.Warmup{
				Engine:      &fakeEngine{t: tr, serveErr: when.ServeErr, pullErr: when.PullErr},
				Metadata:    &fakeMetadata{t: tr, task: when.Task, err: when.MetaErr},
				Recorder:    rec,
				ServiceName: "SociService",
			}

			got, err := w.Run(context.Background())
			if !slices.Equal(tr.calls, then.Calls) {
				t.Errorf("want calls %v, got %v", then.Calls, tr.calls)
			}
			if then.Step == "" {
				if err != nil {
					t.Fatalf("unexpected error: %s", err)
				}
				if got.PullTime != 7*time.Second || rec.value != 7*time.Second || rec.service != "SociService" {
					t.Errorf("unexpected result %+v / recorded %s for %s", got, rec.value, rec.service)
				}
				if !got.LazyLoaded["OllamaContainer"] {
					t.Errorf("lazy loading not reported: %v", got.LazyLoaded)
				}
				return
			}
			var serr *warmup.StepError
			if !errors.As(err, &serr) || serr.Step != then.Step {
				t.Fatalf("want failure at %s, got %v", then.Step, err)
			}
			if then.Err != nil && !errors.Is(err, then.Err) {
				t.Errorf("want %v wrapped, got %v", then.Err, err)
			}
		}
	}

	t.Run("full sequence", theory(
		When{Task: measured},
		Then{Calls: []string{"serve", "pull", "metadata", "publish"}},
	))
	t.Run("engine does not start", theory(
		When{ServeErr: boom, Task: measured},
		Then{Calls: []string{"serve"}, Step: warmup.StepServe, Err: boom},
	))
	t.Run("model pull fails", theory(
		When{PullErr: boom, Task: measured},
		Then{Calls: []string{"serve", "pull"}, Step: warmup.StepPull, Err: boom},
	))
	t.Run("metadata unavailable", theory(
		When{MetaErr: boom},
		Then{Calls: []string{"serve", "pull", "metadata"}, Step: warmup.StepMetadata, Err: boom},
	))
	t.Run("timestamps missing", theory(
		When{Task: taskmeta.Task{}},
		Then{Calls: []string{"serve", "pull", "metadata"}, Step: warmup.StepMeasure, Err: taskmeta.ErrPullUnknown},
	))
	t.Run("publish fails", theory(
		When{PublishErr: boom, Task: measured},
		Then{Calls: []string{"serve", "pull", "metadata", "publish"}, Step: warmup.StepPublish, Err: boom},
	))
}
