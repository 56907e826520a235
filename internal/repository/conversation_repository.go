package repository

import (
	"context"
	"errors"
	"time"

	"sensasi-chat/internal/domain/conversation"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error) {
	if userA == uuid.Nil || userB == uuid.Nil || userA == userB {
		return conversation.Conversation{}, sensasi_errors.ErrInvalidInput
	}
	low, high := conversation.PairKey(userA, userB)

	existing, err := r.getByPair(ctx, low, high)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sensasi_errors.ErrNotFound) {
		return conversation.Conversation{}, err
	}

	now := time.Now()
	conv := conversation.Conversation{
		ID:            uuid.New(),
		UserLowID:     low,
		UserHighID:    high,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastMessageAt: now,
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		for _, userID := range []uuid.UUID{low, high} {
			p := conversation.Participant{
				ConversationID: conv.ID,
				UserID:         userID,
				JoinedAt:       now,
				LastReadAt:     now,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			conv.Participants = append(conv.Participants, p)
		}
		return nil
	})
	if err != nil {
		// Lost the race against a concurrent creation for the same pair:
		// the unique index fired, so the row we wanted now exists.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.getByPair(ctx, low, high)
		}
		return conversation.Conversation{}, classify(err)
	}
	return conv, nil
}

func (r *PostgresConversationRepository) getByPair(ctx context.Context, low, high uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, sensasi_errors.ErrNotFound
		}
		return conversation.Conversation{}, classify(err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, sensasi_errors.ErrNotFound
		}
		return conversation.Conversation{}, classify(err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	if userID == uuid.Nil {
		return nil, sensasi_errors.ErrNotFound
	}
	var conversations []conversation.Conversation

	subQuery := r.db.WithContext(ctx).Model(&conversation.Participant{}).
		Select("conversation_id").
		Where("user_id = ?", userID)

	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)", subQuery).
		Order("last_message_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, classify(err)
	}
	return conversations, nil
}

func (r *PostgresConversationRepository) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	var p conversation.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Participant{}, sensasi_errors.ErrNotFound
		}
		return conversation.Participant{}, classify(err)
	}
	return p, nil
}

func (r *PostgresConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&conversation.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, classify(err)
	}
	return count > 0, nil
}

func (r *PostgresConversationRepository) AdvanceLastRead(ctx context.Context, conversationID, userID uuid.UUID, asOf time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", gorm.Expr("GREATEST(last_read_at, ?)", asOf))
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return sensasi_errors.ErrNotFound
	}
	return nil
}
