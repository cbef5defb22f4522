package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusQueued    = "queued"
	TaskStatusRunning   = "running"
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
)

// Task records one asynchronous discovery run.
type Task struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string     `gorm:"type:text;not null" json:"name"`
	Status        string     `gorm:"type:varchar(16);not null;index" json:"status"`
	EnqueuedAt    time.Time  `gorm:"not null;index" json:"enqueued_at"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	Outcome       *string    `gorm:"type:varchar(16)" json:"outcome,omitempty"`
	BatchID       *uint      `json:"batch_id,omitempty"`
	ExceptionKind *string    `gorm:"type:text" json:"exception_kind,omitempty"`
	Traceback     *string    `gorm:"type:text" json:"traceback,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
