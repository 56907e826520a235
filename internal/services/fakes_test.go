package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"sensasi-chat/internal/domain/conversation"
	"sensasi-chat/internal/domain/message"
	"sensasi-chat/internal/repository"
	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
)

// fakeStore is the shared in-memory state behind the fake repositories. It
// mirrors the Postgres implementations' contract: canonical pair ordering,
// monotonic read markers, soft-deleted rows invisible to listing.
type fakeStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*conversation.Conversation
	participants  map[uuid.UUID]map[uuid.UUID]*conversation.Participant
	messages      map[uuid.UUID]*message.Message
}

type fakeConvRepo struct{ *fakeStore }

type fakeMsgRepo struct{ *fakeStore }

var (
	_ repository.ConversationRepository = fakeConvRepo{}
	_ repository.MessageRepository      = fakeMsgRepo{}
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[uuid.UUID]*conversation.Conversation),
		participants:  make(map[uuid.UUID]map[uuid.UUID]*conversation.Participant),
		messages:      make(map[uuid.UUID]*message.Message),
	}
}

func (f *fakeStore) convRepo() fakeConvRepo { return fakeConvRepo{f} }

func (f *fakeStore) msgRepo() fakeMsgRepo { return fakeMsgRepo{f} }

func (r fakeConvRepo) GetOrCreate(_ context.Context, userA, userB uuid.UUID) (conversation.Conversation, error) {
	if userA == uuid.Nil || userB == uuid.Nil || userA == userB {
		return conversation.Conversation{}, sensasi_errors.ErrInvalidInput
	}
	low, high := conversation.PairKey(userA, userB)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.UserLowID == low && c.UserHighID == high {
			return r.loaded(c), nil
		}
	}

	now := time.Now()
	c := &conversation.Conversation{
		ID:            uuid.New(),
		UserLowID:     low,
		UserHighID:    high,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastMessageAt: now,
	}
	r.conversations[c.ID] = c
	r.participants[c.ID] = map[uuid.UUID]*conversation.Participant{
		low:  {ConversationID: c.ID, UserID: low, JoinedAt: now, LastReadAt: now},
		high: {ConversationID: c.ID, UserID: high, JoinedAt: now, LastReadAt: now},
	}
	return r.loaded(c), nil
}

func (r fakeConvRepo) GetByID(_ context.Context, id uuid.UUID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return conversation.Conversation{}, sensasi_errors.ErrNotFound
	}
	return r.loaded(c), nil
}

func (r fakeConvRepo) GetUserConversations(_ context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []conversation.Conversation
	for id, c := range r.conversations {
		if _, ok := r.participants[id][userID]; ok {
			out = append(out, r.loaded(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (r fakeConvRepo) GetParticipant(_ context.Context, conversationID, userID uuid.UUID) (conversation.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[conversationID][userID]
	if !ok {
		return conversation.Participant{}, sensasi_errors.ErrNotFound
	}
	return *p, nil
}

func (r fakeConvRepo) IsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[conversationID][userID]
	return ok, nil
}

func (r fakeConvRepo) AdvanceLastRead(_ context.Context, conversationID, userID uuid.UUID, asOf time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[conversationID][userID]
	if !ok {
		return sensasi_errors.ErrNotFound
	}
	if asOf.After(p.LastReadAt) {
		p.LastReadAt = asOf
	}
	return nil
}

// Create mirrors the Postgres repository: the insert and the activity bump
// happen together or not at all.
func (r fakeMsgRepo) Create(_ context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[m.ConversationID]
	if !ok {
		return sensasi_errors.ErrNotFound
	}
	stored := *m
	r.messages[m.ID] = &stored
	if m.CreatedAt.After(c.LastMessageAt) {
		c.LastMessageAt = m.CreatedAt
	}
	return nil
}

func (r fakeMsgRepo) GetByID(_ context.Context, id uuid.UUID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return message.Message{}, sensasi_errors.ErrNotFound
	}
	return *m, nil
}

func (r fakeMsgRepo) UpdateContent(_ context.Context, id uuid.UUID, content string, editedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.DeletedAt.Valid {
		return sensasi_errors.ErrNotFound
	}
	m.Content = content
	m.IsEdited = true
	m.UpdatedAt = editedAt
	return nil
}

func (r fakeMsgRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.DeletedAt.Valid {
		return sensasi_errors.ErrNotFound
	}
	m.DeletedAt.Time = time.Now()
	m.DeletedAt.Valid = true
	return nil
}

func (r fakeMsgRepo) ListBefore(_ context.Context, conversationID uuid.UUID, before *repository.Cursor, limit int) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []message.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.DeletedAt.Valid {
			continue
		}
		if before != nil {
			older := m.CreatedAt.Before(before.CreatedAt) ||
				(m.CreatedAt.Equal(before.CreatedAt) && m.ID.String() < before.ID.String())
			if !older {
				continue
			}
		}
		rows = append(rows, *m)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r fakeMsgRepo) GetLatestMessage(_ context.Context, conversationID uuid.UUID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *message.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.DeletedAt.Valid {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return message.Message{}, sensasi_errors.ErrNotFound
	}
	return *latest, nil
}

func (r fakeMsgRepo) CountUnread(_ context.Context, conversationID, userID uuid.UUID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.DeletedAt.Valid {
			continue
		}
		if m.SenderID != userID && m.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) loaded(c *conversation.Conversation) conversation.Conversation {
	out := *c
	out.Participants = nil
	for _, p := range f.participants[c.ID] {
		out.Participants = append(out.Participants, *p)
	}
	return out
}

// seedMessage inserts a message with an explicit timestamp, bypassing the
// service layer.
func (f *fakeStore) seedMessage(conversationID, senderID uuid.UUID, content string, at time.Time) message.Message {
	m := message.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	_ = f.msgRepo().Create(context.Background(), &m)
	return m
}
