package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sensasi-chat/internal/domain/conversation"
	"sensasi-chat/internal/domain/message"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

// Create inserts the message and bumps the conversation's last_message_at
// in one transaction. GREATEST keeps the activity timestamp monotonic even
// when sends land out of order.
func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		res := tx.Model(&conversation.Conversation{}).
			Where("id = ?", m.ConversationID).
			Updates(map[string]interface{}{
				"last_message_at": gorm.Expr("GREATEST(last_message_at, ?)", m.CreatedAt),
				"updated_at":      time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return sensasi_errors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return sensasi_errors.ErrConflict
		}
		return classify(err)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, sensasi_errors.ErrNotFound
		}
		return message.Message{}, classify(err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"content":    content,
			"is_edited":  true,
			"updated_at": editedAt,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return sensasi_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return sensasi_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) ListBefore(ctx context.Context, conversationID uuid.UUID, before *Cursor, limit int) ([]message.Message, error) {
	var messages []message.Message
	q := r.db.WithContext(ctx).
		Where("conversation_id = ? AND deleted_at IS NULL", conversationID)

	if before != nil {
		// Composite comparison keeps the page boundary stable when several
		// messages share a created_at.
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)",
			before.CreatedAt, before.CreatedAt, before.ID)
	}

	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, classify(err)
	}
	return messages, nil
}

func (r *PostgresMessageRepository) GetLatestMessage(ctx context.Context, conversationID uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND deleted_at IS NULL", conversationID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, sensasi_errors.ErrNotFound
		}
		return message.Message{}, classify(err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) CountUnread(ctx context.Context, conversationID, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND created_at > ? AND deleted_at IS NULL",
			conversationID, userID, since).
		Count(&count).Error
	if err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// classify folds unexpected driver failures into the transient bucket so
// callers can rely on errors.Is against the taxonomy alone.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sensasi_errors.ErrNotFound),
		errors.Is(err, sensasi_errors.ErrConflict),
		errors.Is(err, sensasi_errors.ErrInvalidInput),
		errors.Is(err, sensasi_errors.ErrForbidden):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return sensasi_errors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return sensasi_errors.ErrConflict
	default:
		return fmt.Errorf("%w: %v", sensasi_errors.ErrTransient, err)
	}
}
