package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Log struct {
	ID       string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	EventID  *string   `gorm:"type:varchar(36);index" json:"event_id,omitempty"`
	Datetime time.Time `gorm:"column:datetime;not null" json:"datetime"`
	Action   string    `gorm:"type:text;not null" json:"action"`
	Outcome  string    `gorm:"type:text;not null" json:"outcome"`
	Message  *string   `gorm:"type:text" json:"message,omitempty"`
}

func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
