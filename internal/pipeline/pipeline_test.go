package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/commitmine/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.CrawlRun) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.CrawlRun) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestRun() *model.CrawlRun {
	return model.NewCrawlRun("https://github.com/o/r/commits/main")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddStep(&mockStep{name: "second"})
	p.AddStep(&mockStep{name: "third"})
	p.AddFinalStep(&mockStep{name: "final"})

	if p.StepCount() != 4 {
		t.Errorf("expected 4 steps, got %d", p.StepCount())
	}

	expected := []string{"first", "second", "third", "final"}
	names := p.StepNames()
	for i, name := range names {
		if name != expected[i] {
			t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
		}
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		step := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(_ context.Context, _ *model.CrawlRun) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New(WithLogger(quietLogger()))
		p.AddFinalStep(step("final"))
		p.AddStep(step("step-1"))
		p.AddStep(step("step-2"))

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"step-1", "step-2", "final"}
		if len(order) != len(want) {
			t.Fatalf("expected %d executions, got %v", len(want), order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("wrong execution order: %v", order)
				break
			}
		}
		if len(run.PerformedSteps) != 3 {
			t.Errorf("expected 3 performed steps, got %v", run.PerformedSteps)
		}
	})

	t.Run("stops on first error but runs final steps", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		skipped := &mockStep{name: "should-not-run"}
		final := &mockStep{name: "final"}

		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.CrawlRun) error {
				return expectedErr
			},
		})
		p.AddStep(skipped)
		p.AddFinalStep(final)

		run := newTestRun()
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if skipped.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if final.callCount != 1 {
			t.Error("final step should have been called")
		}
		if !errors.Is(run.Error, expectedErr) || run.ErrorMessage != "step failed" {
			t.Errorf("expected error recorded on run, got %v", run.Error)
		}
		if len(run.PerformedSteps) != 1 || run.PerformedSteps[0] != "final" {
			t.Errorf("unexpected performed steps: %v", run.PerformedSteps)
		}
	})

	t.Run("final steps get an uncancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		regular := &mockStep{name: "regular"}
		var finalCtxErr error
		final := &mockStep{
			name: "final",
			doFunc: func(ctx context.Context, _ *model.CrawlRun) error {
				finalCtxErr = ctx.Err()
				return nil
			},
		}

		p := New(WithLogger(quietLogger()))
		p.AddStep(regular)
		p.AddFinalStep(final)

		run := newTestRun()
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if regular.callCount != 0 {
			t.Error("regular step should not run after cancellation")
		}
		if final.callCount != 1 {
			t.Fatal("final step should run after cancellation")
		}
		if finalCtxErr != nil {
			t.Errorf("final step context should not be cancelled, got %v", finalCtxErr)
		}
	})

	t.Run("keeps the first error", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")
		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{name: "a", doFunc: func(context.Context, *model.CrawlRun) error { return first }})
		p.AddFinalStep(&mockStep{name: "b", doFunc: func(context.Context, *model.CrawlRun) error { return errors.New("second") }})

		run := newTestRun()
		if err := p.Execute(context.Background(), run); !errors.Is(err, first) {
			t.Errorf("expected first error, got %v", err)
		}
		if run.ErrorMessage != "first" {
			t.Errorf("expected first error on run, got %q", run.ErrorMessage)
		}
	})
}
