package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"soldera/internal/models"

	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	outcome BatchOutcome
	err     error
	panics  bool
	eventID *string
}

func (s *stubRunner) Run(ctx context.Context, eventID *string) (BatchOutcome, error) {
	s.eventID = eventID
	if s.panics {
		panic("workbook exploded")
	}
	return s.outcome, s.err
}

func newTestTaskService(t *testing.T, runner IngestionRunner) *TaskService {
	t.Helper()

	service, err := NewTaskService(openTestDB(t), runner, nil)
	require.NoError(t, err)
	return service
}

func TestNewTaskServiceNilDependencies(t *testing.T) {
	_, err := NewTaskService(nil, &stubRunner{}, nil)
	require.Error(t, err)

	_, err = NewTaskService(openTestDB(t), nil, nil)
	require.Error(t, err)
}

func TestTaskServiceEnqueueSucceeds(t *testing.T) {
	runner := &stubRunner{outcome: BatchOutcome{Kind: OutcomeCreated, BatchID: 7, ContentHash: "abc"}}
	service := newTestTaskService(t, runner)
	ctx := context.Background()

	queued, err := service.Enqueue(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, queued.ID)
	require.Equal(t, models.TaskStatusQueued, queued.Status)
	require.Equal(t, TaskNameDiscovery, queued.Name)

	service.Wait()

	task, err := service.GetTask(ctx, queued.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusSucceeded, task.Status)
	require.NotNil(t, task.StartedAt)
	require.NotNil(t, task.FinishedAt)
	require.NotNil(t, task.Outcome)
	require.Equal(t, string(OutcomeCreated), *task.Outcome)
	require.NotNil(t, task.BatchID)
	require.Equal(t, uint(7), *task.BatchID)
	require.Nil(t, task.ExceptionKind)

	require.NotNil(t, runner.eventID)
	require.Equal(t, queued.ID, *runner.eventID)
}

func TestTaskServiceEnqueueSkipped(t *testing.T) {
	service := newTestTaskService(t, &stubRunner{outcome: BatchOutcome{Kind: OutcomeSkipped}})
	ctx := context.Background()

	queued, err := service.Enqueue(ctx)
	require.NoError(t, err)
	service.Wait()

	task, err := service.GetTask(ctx, queued.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusSucceeded, task.Status)
	require.Equal(t, string(OutcomeSkipped), *task.Outcome)
	require.Nil(t, task.BatchID)
}

func TestTaskServiceEnqueueFails(t *testing.T) {
	runErr := &DiscoveryError{
		State: StateFetching,
		Err:   &FetchError{URL: "https://www.eex.com/", StatusCode: 500},
	}
	service := newTestTaskService(t, &stubRunner{err: runErr})
	ctx := context.Background()

	queued, err := service.Enqueue(ctx)
	require.NoError(t, err)
	service.Wait()

	task, err := service.GetTask(ctx, queued.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.ExceptionKind)
	require.Equal(t, ErrorKindFetch, *task.ExceptionKind)
	require.NotNil(t, task.Traceback)
	require.Contains(t, *task.Traceback, "caused by: fetch https://www.eex.com/: status 500")
	require.Nil(t, task.Outcome)
}

func TestTaskServiceEnqueueRecoversPanic(t *testing.T) {
	service := newTestTaskService(t, &stubRunner{panics: true})
	ctx := context.Background()

	queued, err := service.Enqueue(ctx)
	require.NoError(t, err)
	service.Wait()

	task, err := service.GetTask(ctx, queued.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusFailed, task.Status)
	require.Equal(t, ErrorKindPanic, *task.ExceptionKind)
	require.Contains(t, *task.Traceback, "panic: workbook exploded")
	require.Contains(t, *task.Traceback, "runtime/debug.Stack")
}

func TestTaskServiceEnqueueOutlivesRequestContext(t *testing.T) {
	service := newTestTaskService(t, &stubRunner{outcome: BatchOutcome{Kind: OutcomeSkipped}})

	ctx, cancel := context.WithCancel(context.Background())
	queued, err := service.Enqueue(ctx)
	require.NoError(t, err)
	cancel()
	service.Wait()

	task, err := service.GetTask(context.Background(), queued.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusSucceeded, task.Status)
}

func TestTaskServiceGetTaskNotFound(t *testing.T) {
	service := newTestTaskService(t, &stubRunner{})

	_, err := service.GetTask(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrTaskNotFound), "err = %v", err)
}

func TestTaskServiceListTasks(t *testing.T) {
	service := newTestTaskService(t, &stubRunner{outcome: BatchOutcome{Kind: OutcomeSkipped}})
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	service.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := service.Enqueue(ctx)
	require.NoError(t, err)
	service.Wait()
	second, err := service.Enqueue(ctx)
	require.NoError(t, err)
	service.Wait()

	tasks, err := service.ListTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, second.ID, tasks[0].ID)
	require.Equal(t, first.ID, tasks[1].ID)

	tasks, err = service.ListTasks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	_, err = service.ListTasks(ctx, 0)
	require.Error(t, err)
}

func TestTraceback(t *testing.T) {
	err := &DiscoveryError{State: StateParsed, Err: fmt.Errorf("%w: row 3", ErrMalformedSpreadsheet)}
	require.Equal(t, ErrorKindMalformedSheet, taskErrorKind(err))
	require.Contains(t, traceback(err), "discovery failed while PARSED")
}

func TestTaskServiceNilReceiver(t *testing.T) {
	var service *TaskService
	_, err := service.Enqueue(context.Background())
	require.Error(t, err)
	_, err = service.GetTask(context.Background(), "id")
	require.Error(t, err)
	_, err = service.ListTasks(context.Background(), 1)
	require.Error(t, err)
	service.Wait()
}
