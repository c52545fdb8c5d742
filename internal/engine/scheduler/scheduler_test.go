package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	tracer *mocks.MockTracer
	span   *mocks.MockSpan
}

// setupSchedulerTest creates a scheduler with permissive tracer mocks.
func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
		tracer: mocks.NewMockTracer(ctrl),
		span:   mocks.NewMockSpan(ctrl),
	}

	m.span.EXPECT().End().AnyTimes()
	m.span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	m.span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	// Start has variadic signature: Start(ctx, name, ...opts).
	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, m.span
		},
	).AnyTimes()

	return scheduler.NewScheduler(m.tracer), m
}

// pipeline registers the forge task table with bodies that record their name.
func pipeline(t *testing.T, ran *[]string, fail string) *domain.Graph {
	t.Helper()
	body := func(name string) domain.TaskFunc {
		return func(context.Context, *domain.RunContext) error {
			*ran = append(*ran, name)
			if name == fail {
				return zerr.New("boom")
			}
			return nil
		}
	}

	g := domain.NewGraph()
	for _, task := range []domain.Task{
		{Name: "build"},
		{Name: "remove-all-files"},
		{Name: "copy-static", Dependencies: []string{"remove-all-files"}},
		{Name: "clean-build", Dependencies: []string{"remove-all-files", "copy-static", "build"}},
		{Name: "serve", Dependencies: []string{"clean-build"}},
	} {
		task.Run = body(task.Name)
		require.NoError(t, g.AddTask(task))
	}
	return g
}

func TestScheduler_Run_Order(t *testing.T) {
	s, m := setupSchedulerTest(t)

	want := []string{"remove-all-files", "copy-static", "build", "clean-build", "serve"}
	m.tracer.EXPECT().EmitPlan(gomock.Any(), want, "serve")

	var ran []string
	require.NoError(t, s.Run(context.Background(), pipeline(t, &ran, ""), "serve", nil))
	assert.Equal(t, want, ran)
}

func TestScheduler_Run_StopsOnFailure(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any())

	var ran []string
	err := s.Run(context.Background(), pipeline(t, &ran, "copy-static"), "serve", nil)

	require.ErrorContains(t, err, "task execution failed")
	assert.Equal(t, []string{"remove-all-files", "copy-static"}, ran, "dependants never run")

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, "copy-static", zErr.Metadata()["task"])
}

func TestScheduler_Run_PreservesCause(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any())

	cause := &domain.BuildError{Messages: []domain.Message{{Text: "unexpected token"}}}
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{
		Name: "build",
		Run:  func(context.Context, *domain.RunContext) error { return cause },
	}))

	err := s.Run(context.Background(), g, "build", nil)
	assert.True(t, errors.Is(err, domain.ErrBundleFailed))
}

func TestScheduler_Run_RecordsErrorOnSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	root := mocks.NewMockSpan(ctrl)
	span := mocks.NewMockSpan(ctrl)

	tracer.EXPECT().Start(gomock.Any(), "run:build", gomock.Any()).Return(context.Background(), root)
	tracer.EXPECT().Start(gomock.Any(), "build").Return(context.Background(), span)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"build"}, "build")

	span.EXPECT().SetAttribute("forge.mode", "production")
	span.EXPECT().SetAttribute("forge.incremental", false)
	span.EXPECT().RecordError(gomock.Any())
	span.EXPECT().End()
	root.EXPECT().RecordError(gomock.Any())
	root.EXPECT().End()

	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{
		Name: "build",
		Run:  func(context.Context, *domain.RunContext) error { return zerr.New("boom") },
	}))

	rc := &domain.RunContext{Mode: domain.ModeProduction}
	require.Error(t, scheduler.NewScheduler(tracer).Run(context.Background(), g, "build", rc))
}

func TestScheduler_Run_PassesRunContext(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any())

	rc := &domain.RunContext{Mode: domain.ModeProduction, KeepFiles: domain.NewSuppression(), Incremental: true}
	var seen []*domain.RunContext
	record := func(_ context.Context, got *domain.RunContext) error {
		seen = append(seen, got)
		return nil
	}

	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{Name: "a", Run: record}))
	require.NoError(t, g.AddTask(domain.Task{Name: "b", Dependencies: []string{"a"}, Run: record}))

	require.NoError(t, s.Run(context.Background(), g, "b", rc))
	require.Len(t, seen, 2)
	assert.Same(t, rc, seen[0])
	assert.Same(t, rc, seen[1])
}

func TestScheduler_Run_TaskWithoutBody(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any())

	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{Name: "default"}))

	require.NoError(t, s.Run(context.Background(), g, "default", nil))
}

func TestScheduler_Run_UnknownTarget(t *testing.T) {
	s, _ := setupSchedulerTest(t)

	err := s.Run(context.Background(), domain.NewGraph(), "deploy", nil)
	require.ErrorContains(t, err, "task not found")
}

func TestScheduler_Run_CancelledContext(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any())

	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{
		Name: "a",
		Run: func(context.Context, *domain.RunContext) error {
			ran = append(ran, "a")
			cancel()
			return nil
		},
	}))
	require.NoError(t, g.AddTask(domain.Task{
		Name:         "b",
		Dependencies: []string{"a"},
		Run: func(context.Context, *domain.RunContext) error {
			ran = append(ran, "b")
			return nil
		},
	}))

	err := s.Run(ctx, g, "b", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, ran)
}

func TestScheduler_Run_HooksPrecedeDependencies(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.tracer.EXPECT().EmitPlan(gomock.Any(), []string{"remove-all-files", "build", "clean-build"}, "clean-build")

	var ran []string
	record := func(name string) domain.TaskFunc {
		return func(context.Context, *domain.RunContext) error {
			ran = append(ran, name)
			return nil
		}
	}

	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{Name: "remove-all-files", Run: record("remove-all-files")}))
	require.NoError(t, g.AddTask(domain.Task{Name: "build", Run: record("build")}))
	require.NoError(t, g.AddTask(domain.Task{
		Name:         "clean-build",
		Dependencies: []string{"remove-all-files", "build"},
		Start:        record("start"),
		BeforeDependency: func(_ context.Context, _ *domain.RunContext, dep string) error {
			ran = append(ran, "before "+dep)
			return nil
		},
	}))

	require.NoError(t, s.Run(context.Background(), g, "clean-build", nil))
	assert.Equal(t, []string{
		"start",
		"before remove-all-files", "remove-all-files",
		"before build", "build",
	}, ran)
}

func TestScheduler_Run_HookFailureStopsRun(t *testing.T) {
	s, m := setupSchedulerTest(t)
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any())

	cause := zerr.New("no terminal")
	ranDep := false
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{
		Name: "build",
		Run: func(context.Context, *domain.RunContext) error {
			ranDep = true
			return nil
		},
	}))
	require.NoError(t, g.AddTask(domain.Task{
		Name:         "clean-build",
		Dependencies: []string{"build"},
		Start:        func(context.Context, *domain.RunContext) error { return cause },
	}))

	err := s.Run(context.Background(), g, "clean-build", nil)
	require.ErrorContains(t, err, "task execution failed")
	assert.True(t, errors.Is(err, cause))
	assert.False(t, ranDep)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, "clean-build", zErr.Metadata()["task"])
}
