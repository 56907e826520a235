package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sensasi-chat/internal/domain/conversation"
	"sensasi-chat/internal/domain/message"
)

type ConversationRepository interface {
	// GetOrCreate returns the conversation between the unordered pair,
	// creating it (plus both participant rows) when none exists. Safe under
	// concurrent calls: the pair's uniqueness constraint decides the winner
	// and the loser refetches.
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error)

	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)

	// AdvanceLastRead moves the participant's read marker forward to
	// max(current, asOf). It never regresses.
	AdvanceLastRead(ctx context.Context, conversationID, userID uuid.UUID, asOf time.Time) error
}

type MessageRepository interface {
	// Create persists the message and advances the conversation's
	// last_message_at to max(current, created_at) in the same transaction,
	// so a failure leaves neither half behind.
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// ListBefore returns up to limit live messages strictly older than the
	// cursor position (all newest when cursor is nil), newest first.
	ListBefore(ctx context.Context, conversationID uuid.UUID, before *Cursor, limit int) ([]message.Message, error)
	GetLatestMessage(ctx context.Context, conversationID uuid.UUID) (message.Message, error)
	CountUnread(ctx context.Context, conversationID, userID uuid.UUID, since time.Time) (int64, error)
}
