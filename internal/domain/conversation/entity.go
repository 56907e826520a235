package conversation

import (
	"time"

	"sensasi-chat/internal/domain/message"

	"github.com/google/uuid"
)

// Conversation represents the conversations table. A conversation is a
// durable thread between exactly two users. UserLowID/UserHighID hold the
// pair in canonical order so the unique index makes duplicate creation
// impossible regardless of which side initiates.
type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserLowID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair"`
	UserHighID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastMessageAt time.Time `gorm:"index:idx_conversations_last_message,sort:desc"`

	// Relationships
	Participants []Participant `gorm:"foreignKey:ConversationID"`

	// Derived, not persisted
	LastMessage *message.Message `gorm:"-"`
	UnreadCount int64            `gorm:"-"`
}

// Participant represents the participants table, one row per
// (conversation, user) pair tracking that user's read progress.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_participants_user"`
	JoinedAt       time.Time
	LastReadAt     time.Time
}

// PairKey returns the canonical ordering of two user ids. Both creation and
// lookup must go through this so (a,b) and (b,a) land on the same row.
func PairKey(a, b uuid.UUID) (low, high uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "participants"
}
