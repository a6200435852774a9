package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageDirection type
type MessageDirection string

const (
	// MessageDirectionInbound const
	MessageDirectionInbound MessageDirection = "INBOUND"
	// MessageDirectionOutbound const
	MessageDirectionOutbound MessageDirection = "OUTBOUND"
)

// MessageRecord struct - audit entry for one message crossing the channel
type MessageRecord struct {
	ID             *uuid.UUID        `gorm:"type:uuid;primary_key;"`
	ConversationID string            `gorm:"type:varchar(64);not null;index"`
	Direction      *MessageDirection `gorm:"type:varchar(8);not null;"`
	Body           *string           `gorm:"type:TEXT"`
	CreatedAt      *time.Time        `gorm:"type:timestamp"`
}

// TableName func
func (m *MessageRecord) TableName() string {
	return "message_records"
}

// BeforeCreate hook - generates UUID before creating
func (m *MessageRecord) BeforeCreate(tx *gorm.DB) (err error) {
	id, err := uuid.NewRandom() // v4
	if err != nil {
		return err
	}
	m.ID = &id
	return nil
}

// MigrateDatabase func - Auto-migrate database schema
func MigrateDatabase(db *gorm.DB) {
	if db == nil {
		panic("An error when connect database")
	}

	err := db.AutoMigrate(&MessageRecord{})
	if err != nil {
		panic(err)
	}
}
