package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Message represents the messages table
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conversation"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string
	ImageKey       sql.NullString
	IsEdited       bool
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation,sort:desc"`
	UpdatedAt      time.Time
	DeletedAt      sql.NullTime
}

func (Message) TableName() string {
	return "messages"
}
