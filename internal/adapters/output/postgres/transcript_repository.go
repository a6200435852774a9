package postgres

import (
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Compile-time check to ensure TranscriptRepository implements the output port
var _ output.TranscriptRepository = (*TranscriptRepository)(nil)

// TranscriptRepository struct - Secondary/Driven adapter for PostgreSQL.
// Stores the message audit log; conversation state itself is never
// persisted here.
type TranscriptRepository struct {
	dbGorm *gorm.DB
}

// NewTranscriptRepository func - Creates new PostgreSQL repository
func NewTranscriptRepository(dbGorm *gorm.DB) *TranscriptRepository {
	logrus.Info("Migrate database ...")
	domain.MigrateDatabase(dbGorm)
	return &TranscriptRepository{
		dbGorm: dbGorm,
	}
}

// Record stores one message-log entry
func (p *TranscriptRepository) Record(conversationID string, direction domain.MessageDirection, body string) error {
	record := domain.MessageRecord{
		ConversationID: conversationID,
		Direction:      &direction,
		Body:           &body,
	}
	if err := p.dbGorm.Create(&record).Error; err != nil {
		logrus.Errorln(err)
		return err
	}
	return nil
}

// RecentByConversation returns the newest records for one conversation,
// newest first, bounded by limit.
func (p *TranscriptRepository) RecentByConversation(conversationID string, limit int) ([]domain.MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []domain.MessageRecord
	err := p.dbGorm.
		Where("conversation_id = ?", conversationID).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		logrus.Errorln(err)
		return nil, err
	}
	return records, nil
}
