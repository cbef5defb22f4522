package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"soldera/internal/models"

	"gorm.io/gorm"
)

const TaskNameDiscovery = "discover_latest_results"

const ErrorKindPanic = "Panic"

type TaskService struct {
	db     *gorm.DB
	runner IngestionRunner
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

func NewTaskService(db *gorm.DB, runner IngestionRunner, logger *slog.Logger) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if runner == nil {
		return nil, errors.New("ingestion runner is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskService{
		db:     db,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Enqueue records a queued discovery task and starts it in the background.
// The run outlives ctx's cancellation; Wait blocks until it is done.
func (s *TaskService) Enqueue(ctx context.Context) (models.Task, error) {
	if s == nil {
		return models.Task{}, errors.New("task service is nil")
	}
	if s.db == nil || s.runner == nil {
		return models.Task{}, errors.New("task service is not initialized")
	}

	task := models.Task{
		Name:       TaskNameDiscovery,
		Status:     models.TaskStatusQueued,
		EnqueuedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(context.WithoutCancel(ctx), task.ID)
	}()

	return task, nil
}

// Wait blocks until every enqueued task has finished.
func (s *TaskService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

func (s *TaskService) GetTask(ctx context.Context, id string) (models.Task, error) {
	if s == nil {
		return models.Task{}, errors.New("task service is nil")
	}
	if s.db == nil {
		return models.Task{}, errors.New("db is nil")
	}

	var task models.Task
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, fmt.Errorf("%w: id=%s", ErrTaskNotFound, id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}

	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, limit int) ([]models.Task, error) {
	if s == nil {
		return nil, errors.New("task service is nil")
	}
	if s.db == nil {
		return nil, errors.New("db is nil")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	var tasks []models.Task
	if err := s.db.WithContext(ctx).Order("enqueued_at desc").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (s *TaskService) execute(ctx context.Context, id string) {
	logger := s.logger.With("task_id", id)

	started := s.now().UTC()
	if err := s.update(ctx, id, map[string]any{
		"status":     models.TaskStatusRunning,
		"started_at": started,
	}); err != nil {
		logger.Error("mark task running", "error", err)
	}

	outcome, err := s.runSafely(ctx, id)

	fields := map[string]any{"finished_at": s.now().UTC()}
	if err != nil {
		fields["status"] = models.TaskStatusFailed
		fields["exception_kind"] = taskErrorKind(err)
		fields["traceback"] = traceback(err)
		logger.Error("discovery task failed", "kind", fields["exception_kind"], "error", err)
	} else {
		fields["status"] = models.TaskStatusSucceeded
		fields["outcome"] = string(outcome.Kind)
		if outcome.Created() {
			fields["batch_id"] = outcome.BatchID
		}
		logger.Info("discovery task finished", "outcome", outcome.Kind, "batch_id", outcome.BatchID, "md5_hash", outcome.ContentHash)
	}

	if err := s.update(ctx, id, fields); err != nil {
		logger.Error("record task result", "error", err)
	}
}

func (s *TaskService) runSafely(ctx context.Context, id string) (outcome BatchOutcome, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &taskPanic{value: recovered, stack: debug.Stack()}
		}
	}()

	eventID := id
	return s.runner.Run(ctx, &eventID)
}

func (s *TaskService) update(ctx context.Context, id string, fields map[string]any) error {
	return s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error
}

type taskPanic struct {
	value any
	stack []byte
}

func (p *taskPanic) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

func taskErrorKind(err error) string {
	var panicErr *taskPanic
	if errors.As(err, &panicErr) {
		return ErrorKindPanic
	}
	return ErrorKind(err)
}

// traceback renders the stack of a recovered panic, or the chain of wrapped
// errors one cause per line.
func traceback(err error) string {
	var panicErr *taskPanic
	if errors.As(err, &panicErr) {
		return panicErr.Error() + "\n\n" + string(panicErr.stack)
	}

	var lines []string
	for current := err; current != nil; current = errors.Unwrap(current) {
		lines = append(lines, current.Error())
	}
	return strings.Join(lines, "\ncaused by: ")
}
