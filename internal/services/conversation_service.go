package services

import (
	"context"
	"errors"
	"time"

	"sensasi-chat/internal/domain/conversation"
	"sensasi-chat/internal/repository"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
)

type ConversationService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
}

func NewConversationService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) *ConversationService {
	return &ConversationService{convRepo: convRepo, msgRepo: msgRepo}
}

// ListConversations returns the viewer's conversations ordered by
// last_message_at descending, each enriched with the viewer's unread count
// and the latest message snapshot. An empty list is a valid result.
func (s *ConversationService) ListConversations(ctx context.Context, viewerID uuid.UUID) ([]conversation.Conversation, error) {
	if viewerID == uuid.Nil {
		return nil, sensasi_errors.ErrNotFound
	}
	conversations, err := s.convRepo.GetUserConversations(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	for i := range conversations {
		if err := s.enrich(ctx, &conversations[i], viewerID); err != nil {
			return nil, err
		}
	}
	return conversations, nil
}

// StartConversation returns the conversation between the viewer and the
// peer, creating it when the pair has never messaged. Repeated calls for
// the same pair always yield the same conversation.
func (s *ConversationService) StartConversation(ctx context.Context, viewerID, peerID uuid.UUID) (conversation.Conversation, error) {
	conv, err := s.convRepo.GetOrCreate(ctx, viewerID, peerID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if err := s.enrich(ctx, &conv, viewerID); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

func (s *ConversationService) GetConversation(ctx context.Context, viewerID, conversationID uuid.UUID) (conversation.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !hasParticipant(conv, viewerID) {
		return conversation.Conversation{}, sensasi_errors.ErrForbidden
	}
	if err := s.enrich(ctx, &conv, viewerID); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

// MarkRead advances the viewer's read marker to max(current, asOf). A zero
// asOf means "now". The marker never moves backwards.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, viewerID uuid.UUID, asOf time.Time) error {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return err
	}
	err := s.convRepo.AdvanceLastRead(ctx, conversationID, viewerID, asOf)
	if errors.Is(err, sensasi_errors.ErrNotFound) {
		// Conversation exists but the viewer has no participant row.
		return sensasi_errors.ErrForbidden
	}
	return err
}

// EnsureParticipant confirms the viewer belongs to the conversation.
func (s *ConversationService) EnsureParticipant(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	ok, err := s.convRepo.IsParticipant(ctx, conversationID, viewerID)
	if err != nil {
		return err
	}
	if !ok {
		return sensasi_errors.ErrForbidden
	}
	return nil
}

func (s *ConversationService) UnreadCount(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	p, err := s.convRepo.GetParticipant(ctx, conversationID, viewerID)
	if err != nil {
		if errors.Is(err, sensasi_errors.ErrNotFound) {
			return 0, sensasi_errors.ErrForbidden
		}
		return 0, err
	}
	return s.msgRepo.CountUnread(ctx, conversationID, viewerID, p.LastReadAt)
}

func (s *ConversationService) enrich(ctx context.Context, conv *conversation.Conversation, viewerID uuid.UUID) error {
	var lastRead time.Time
	for _, p := range conv.Participants {
		if p.UserID == viewerID {
			lastRead = p.LastReadAt
			break
		}
	}

	unread, err := s.msgRepo.CountUnread(ctx, conv.ID, viewerID, lastRead)
	if err != nil {
		return err
	}
	conv.UnreadCount = unread

	last, err := s.msgRepo.GetLatestMessage(ctx, conv.ID)
	switch {
	case err == nil:
		conv.LastMessage = &last
	case errors.Is(err, sensasi_errors.ErrNotFound):
		conv.LastMessage = nil
	default:
		return err
	}
	return nil
}

func hasParticipant(conv conversation.Conversation, userID uuid.UUID) bool {
	for _, p := range conv.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
