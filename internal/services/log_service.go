package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"soldera/internal/models"

	"gorm.io/gorm"
)

// maxLogMessage bounds stored messages in bytes; error chains from a failed
// parse can quote whole rows.
const maxLogMessage = 2000

var ErrUnknownLogValue = errors.New("unknown log action or outcome")

// LogQuery filters the audit trail. Empty strings match everything.
type LogQuery struct {
	Limit   int
	EventID string
	Action  string
	Outcome string
}

// LogService stores the audit trail of ingestion runs and imports. Each run
// writes its entries under the id of the task that started it.
type LogService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLogService(db *gorm.DB) (*LogService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}

	return &LogService{db: db, now: time.Now}, nil
}

func (s *LogService) CreateLog(ctx context.Context, eventID *string, action string, outcome string, message *string) error {
	if s == nil {
		return errors.New("log service is nil")
	}
	if s.db == nil {
		return errors.New("db is nil")
	}
	if !IsLogAction(action) {
		return fmt.Errorf("%w: action %q", ErrUnknownLogValue, action)
	}
	if !IsLogOutcome(outcome) {
		return fmt.Errorf("%w: outcome %q", ErrUnknownLogValue, outcome)
	}
	if eventID != nil && *eventID == "" {
		eventID = nil
	}
	if message != nil {
		clipped := clipMessage(*message)
		message = &clipped
	}

	entry := models.Log{
		EventID:  eventID,
		Datetime: s.now().UTC(),
		Action:   action,
		Outcome:  outcome,
		Message:  message,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("create %s log: %w", action, err)
	}

	return nil
}

// FindLogs returns matching entries, newest first.
func (s *LogService) FindLogs(ctx context.Context, query LogQuery) ([]models.Log, error) {
	if s == nil {
		return nil, errors.New("log service is nil")
	}
	if s.db == nil {
		return nil, errors.New("db is nil")
	}
	if query.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if query.Action != "" && !IsLogAction(query.Action) {
		return nil, fmt.Errorf("%w: action %q", ErrUnknownLogValue, query.Action)
	}
	if query.Outcome != "" && !IsLogOutcome(query.Outcome) {
		return nil, fmt.Errorf("%w: outcome %q", ErrUnknownLogValue, query.Outcome)
	}

	db := s.db.WithContext(ctx).Order("datetime desc, id desc").Limit(query.Limit)
	if query.EventID != "" {
		db = db.Where("event_id = ?", query.EventID)
	}
	if query.Action != "" {
		db = db.Where("action = ?", query.Action)
	}
	if query.Outcome != "" {
		db = db.Where("outcome = ?", query.Outcome)
	}

	var logs []models.Log
	if err := db.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("find logs: %w", err)
	}

	return logs, nil
}

// GetRunLogs returns the audit trail of one run in the order it was written.
func (s *LogService) GetRunLogs(ctx context.Context, eventID string) ([]models.Log, error) {
	if s == nil {
		return nil, errors.New("log service is nil")
	}
	if s.db == nil {
		return nil, errors.New("db is nil")
	}
	if eventID == "" {
		return nil, errors.New("event id is empty")
	}

	var logs []models.Log
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order("datetime asc").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("get run logs: %w", err)
	}

	return logs, nil
}

// clipMessage cuts message to maxLogMessage bytes without splitting a rune.
func clipMessage(message string) string {
	if len(message) <= maxLogMessage {
		return message
	}
	cut := maxLogMessage
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
