package job

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/veracite/veracite/internal/model"
	"github.com/veracite/veracite/internal/pipeline"
)

// mockRunner scripts the pipeline for coordinator tests
type mockRunner struct {
	run func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error)
}

func (m *mockRunner) Check(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
	return m.run(ctx, source, raw, progress)
}

func testJobConfig() model.JobConfig {
	return model.JobConfig{
		AsyncThresholdBytes: 100,
		MaxWallClock:        5 * time.Second,
		Workers:             2,
	}
}

func TestManager_ShouldRunAsync(t *testing.T) {
	m := NewManager(&mockRunner{}, testJobConfig(), zap.NewNop())

	if m.ShouldRunAsync(50) {
		t.Error("small document should run inline")
	}
	if !m.ShouldRunAsync(100) {
		t.Error("document at threshold should run async")
	}
	if !m.ShouldRunAsync(5000) {
		t.Error("large document should run async")
	}
}

func TestManager_SubmitAndWait(t *testing.T) {
	runner := &mockRunner{
		run: func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
			progress(50, "verify")
			return &model.Report{Source: source}, nil
		},
	}
	m := NewManager(runner, testJobConfig(), zap.NewNop())

	id := m.Submit("brief.txt", []byte("document"))
	if id == "" {
		t.Fatal("expected job ID")
	}

	job, err := m.Wait(context.Background(), id)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if job.Status != model.JobCompleted {
		t.Errorf("expected completed, got %s", job.Status)
	}
	if job.Progress != 100 {
		t.Errorf("expected progress 100, got %d", job.Progress)
	}
	if job.Result == nil || job.Result.Source != "brief.txt" {
		t.Error("expected result report with source label")
	}
}

func TestManager_StatusUnknownJob(t *testing.T) {
	m := NewManager(&mockRunner{}, testJobConfig(), zap.NewNop())

	_, err := m.Status("no-such-id")
	if !errors.Is(err, model.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestManager_RunnerError(t *testing.T) {
	runner := &mockRunner{
		run: func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
			return nil, errors.New("document is not valid UTF-8")
		},
	}
	m := NewManager(runner, testJobConfig(), zap.NewNop())

	id := m.Submit("blob.bin", []byte("x"))
	job, err := m.Wait(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	if job.Status != model.JobFailed {
		t.Errorf("expected failed, got %s", job.Status)
	}
	if !strings.Contains(job.Error, "UTF-8") {
		t.Errorf("expected error message preserved, got %q", job.Error)
	}
}

func TestManager_Cancel(t *testing.T) {
	started := make(chan struct{})
	runner := &mockRunner{
		run: func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
			progress(40, "verify")
			close(started)
			<-ctx.Done()
			// The pipeline returns the partial report on cancellation.
			return &model.Report{Source: source, Partial: true}, nil
		},
	}
	m := NewManager(runner, testJobConfig(), zap.NewNop())

	id := m.Submit("brief.txt", []byte("document"))
	<-started

	if err := m.Cancel(id); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	job, err := m.Wait(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	if job.Status != model.JobCancelled {
		t.Errorf("expected cancelled, got %s", job.Status)
	}
	if job.Result == nil || !job.Result.Partial {
		t.Error("cancelled job must retain the partial report")
	}
}

func TestManager_CancelTerminalJobIsNoop(t *testing.T) {
	runner := &mockRunner{
		run: func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
			return &model.Report{Source: source}, nil
		},
	}
	m := NewManager(runner, testJobConfig(), zap.NewNop())

	id := m.Submit("brief.txt", []byte("document"))
	if _, err := m.Wait(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	if err := m.Cancel(id); err != nil {
		t.Errorf("cancelling a terminal job must be a no-op, got %v", err)
	}

	job, _ := m.Status(id)
	if job.Status != model.JobCompleted {
		t.Errorf("terminal status must not change, got %s", job.Status)
	}
}

func TestManager_Timeout(t *testing.T) {
	runner := &mockRunner{
		run: func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
			progress(60, "verify")
			<-ctx.Done()
			return &model.Report{Source: source, Partial: true}, nil
		},
	}
	cfg := testJobConfig()
	cfg.MaxWallClock = 30 * time.Millisecond
	m := NewManager(runner, cfg, zap.NewNop())

	id := m.Submit("brief.txt", []byte("document"))
	job, err := m.Wait(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	if job.Status != model.JobFailed {
		t.Errorf("expected failed on timeout, got %s", job.Status)
	}
	if !strings.Contains(job.Error, "timed out") && !strings.Contains(job.Error, "exceeded") {
		t.Errorf("expected timeout error, got %q", job.Error)
	}
	if job.Result == nil || !job.Result.Partial {
		t.Error("timed-out job must retain the partial report")
	}
}

func TestManager_ProgressMonotone(t *testing.T) {
	release := make(chan struct{})
	runner := &mockRunner{
		run: func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
			progress(50, "verify")
			progress(30, "verify") // late, out of order
			close(release)
			<-ctx.Done()
			return &model.Report{Source: source}, nil
		},
	}
	m := NewManager(runner, testJobConfig(), zap.NewNop())

	id := m.Submit("brief.txt", []byte("document"))
	<-release

	job, err := m.Status(id)
	if err != nil {
		t.Fatal(err)
	}
	if job.Progress != 50 {
		t.Errorf("progress must not regress, expected 50, got %d", job.Progress)
	}

	_ = m.Cancel(id)
	_, _ = m.Wait(context.Background(), id)
}

func TestManager_WorkerSlotsBoundConcurrency(t *testing.T) {
	block := make(chan struct{})
	var running, peak int
	var mu = make(chan struct{}, 1)
	mu <- struct{}{}

	runner := &mockRunner{
		run: func(ctx context.Context, source string, raw []byte, progress pipeline.ProgressFunc) (*model.Report, error) {
			<-mu
			running++
			if running > peak {
				peak = running
			}
			mu <- struct{}{}

			<-block

			<-mu
			running--
			mu <- struct{}{}
			return &model.Report{Source: source}, nil
		},
	}

	cfg := testJobConfig()
	cfg.Workers = 2
	m := NewManager(runner, cfg, zap.NewNop())

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, m.Submit("brief.txt", []byte("document")))
	}

	time.Sleep(50 * time.Millisecond)
	close(block)

	for _, id := range ids {
		if _, err := m.Wait(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}

	if peak > 2 {
		t.Errorf("worker slots exceeded: peak %d", peak)
	}
}
