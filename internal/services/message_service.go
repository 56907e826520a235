package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"sensasi-chat/internal/domain/message"
	"sensasi-chat/internal/repository"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type MessageService struct {
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository
}

func NewMessageService(msgRepo repository.MessageRepository, convRepo repository.ConversationRepository) *MessageService {
	return &MessageService{msgRepo: msgRepo, convRepo: convRepo}
}

type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	ImageKey       string
}

// Send validates and persists a message. A message needs trimmed text
// content, an image, or both. The repository advances the conversation's
// last_message_at in the same transaction as the insert, so a failed send
// leaves no partial state behind.
func (s *MessageService) Send(ctx context.Context, input SendMessageInput) (message.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" && input.ImageKey == "" {
		return message.Message{}, sensasi_errors.ErrInvalidInput
	}

	conv, err := s.convRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return message.Message{}, err
	}
	ok, err := s.convRepo.IsParticipant(ctx, conv.ID, input.SenderID)
	if err != nil {
		return message.Message{}, err
	}
	if !ok {
		return message.Message{}, sensasi_errors.ErrForbidden
	}

	now := time.Now()
	m := message.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       input.SenderID,
		Content:        content,
		ImageKey:       nullString(input.ImageKey),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.msgRepo.Create(ctx, &m); err != nil {
		return message.Message{}, err
	}
	return m, nil
}

// Edit replaces a message's content. Only the original sender may edit, and
// the edit marks the message so readers can tell it changed.
func (s *MessageService) Edit(ctx context.Context, messageID, editorID uuid.UUID, newContent string) (message.Message, error) {
	content := strings.TrimSpace(newContent)
	if content == "" {
		return message.Message{}, sensasi_errors.ErrInvalidInput
	}

	m, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if m.DeletedAt.Valid {
		return message.Message{}, sensasi_errors.ErrNotFound
	}
	if m.SenderID != editorID {
		return message.Message{}, sensasi_errors.ErrForbidden
	}

	editedAt := time.Now()
	if !editedAt.After(m.CreatedAt) {
		editedAt = m.CreatedAt.Add(time.Millisecond)
	}
	if err := s.msgRepo.UpdateContent(ctx, m.ID, content, editedAt); err != nil {
		return message.Message{}, err
	}

	m.Content = content
	m.IsEdited = true
	m.UpdatedAt = editedAt
	return m, nil
}

// Delete soft-deletes a message. Sender only.
func (s *MessageService) Delete(ctx context.Context, messageID, requesterID uuid.UUID) error {
	m, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != requesterID {
		return sensasi_errors.ErrForbidden
	}
	return s.msgRepo.SoftDelete(ctx, m.ID)
}

// List returns a page of messages for the conversation, oldest to newest
// within the page, together with the cursor for the next (older) page. An
// empty cursor starts at the newest messages.
func (s *MessageService) List(ctx context.Context, conversationID, viewerID uuid.UUID, cursorToken string, limit int) ([]message.Message, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, "", err
	}
	ok, err := s.convRepo.IsParticipant(ctx, conv.ID, viewerID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", sensasi_errors.ErrForbidden
	}

	before, err := repository.DecodeCursor(cursorToken)
	if err != nil {
		return nil, "", err
	}

	rows, err := s.msgRepo.ListBefore(ctx, conv.ID, before, limit)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) == limit {
		oldest := rows[len(rows)-1]
		next = repository.EncodeCursor(repository.Cursor{CreatedAt: oldest.CreatedAt, ID: oldest.ID})
	}

	// Rows arrive newest first; flip for display order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, next, nil
}

func (s *MessageService) Get(ctx context.Context, messageID, viewerID uuid.UUID) (message.Message, error) {
	m, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if m.DeletedAt.Valid {
		return message.Message{}, sensasi_errors.ErrNotFound
	}
	ok, err := s.convRepo.IsParticipant(ctx, m.ConversationID, viewerID)
	if err != nil {
		return message.Message{}, err
	}
	if !ok {
		return message.Message{}, sensasi_errors.ErrForbidden
	}
	return m, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
