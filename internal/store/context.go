package store

import (
	"context"
	"sync"
	"time"

	"sensasi-chat/internal/domain/conversation"
	"sensasi-chat/internal/domain/message"
	"sensasi-chat/internal/redis"
	"sensasi-chat/internal/services"

	"github.com/google/uuid"
)

type ViewState int

const (
	StateUninitialized ViewState = iota
	StateLoading
	StateReady
	StateStale
)

func (s ViewState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

type EditMessageInput struct {
	MessageID uuid.UUID
	Content   string
}

type MarkReadInput struct {
	ConversationID uuid.UUID
	AsOf           time.Time
}

// PageCache is the shared snapshot store behind the per-viewer contexts.
// *redis.CacheStore is the production implementation.
type PageCache interface {
	GetConversationList(ctx context.Context, viewerID uuid.UUID) ([]conversation.Conversation, error)
	SetConversationList(ctx context.Context, viewerID uuid.UUID, list []conversation.Conversation) error
	InvalidateConversationList(ctx context.Context, viewerID uuid.UUID) error
	GetMessagePage(ctx context.Context, conversationID uuid.UUID) ([]message.Message, string, error)
	SetMessagePage(ctx context.Context, conversationID uuid.UUID, page []message.Message, nextCursor string) error
	InvalidateMessagePage(ctx context.Context, conversationID uuid.UUID) error
}

var _ PageCache = (*redis.CacheStore)(nil)

// readyTTL bounds how long a Ready view is served without refetching. The
// viewer's own mutations invalidate immediately; the peer's writes become
// visible when the window lapses.
const readyTTL = 30 * time.Second

// ConversationContext holds one viewer's cached conversation list and the
// currently open conversation's newest message page. Mutations run through
// MutationExecutors; a successful mutation marks the affected entries stale
// and drops the shared redis snapshots, so the next read refetches.
type ConversationContext struct {
	conversations *services.ConversationService
	messages      *services.MessageService
	cache         PageCache // optional
	viewerID      uuid.UUID
	readyTTL      time.Duration

	mu            sync.Mutex
	listState     ViewState
	list          []conversation.Conversation
	listFetchedAt time.Time

	openID        uuid.UUID
	openState     ViewState
	openPage      []message.Message
	openCursor    string
	openFetchedAt time.Time

	send     *services.MutationExecutor[services.SendMessageInput, message.Message]
	edit     *services.MutationExecutor[EditMessageInput, message.Message]
	markRead *services.MutationExecutor[MarkReadInput, struct{}]
}

func NewConversationContext(convSvc *services.ConversationService, msgSvc *services.MessageService, cache PageCache, viewerID uuid.UUID) *ConversationContext {
	c := &ConversationContext{
		conversations: convSvc,
		messages:      msgSvc,
		cache:         cache,
		viewerID:      viewerID,
		readyTTL:      readyTTL,
		listState:     StateUninitialized,
		openState:     StateUninitialized,
	}
	c.send = services.NewMutationExecutor(func(ctx context.Context, input services.SendMessageInput) (message.Message, error) {
		input.SenderID = viewerID
		return msgSvc.Send(ctx, input)
	})
	c.edit = services.NewMutationExecutor(func(ctx context.Context, input EditMessageInput) (message.Message, error) {
		return msgSvc.Edit(ctx, input.MessageID, viewerID, input.Content)
	})
	c.markRead = services.NewMutationExecutor(func(ctx context.Context, input MarkReadInput) (struct{}, error) {
		return struct{}{}, convSvc.MarkRead(ctx, input.ConversationID, viewerID, input.AsOf)
	})
	return c
}

func (c *ConversationContext) ListState() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listState
}

func (c *ConversationContext) OpenState() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openState
}

// Conversations returns the viewer's conversation list, serving the cached
// copy while it is ready and refetching after invalidation.
func (c *ConversationContext) Conversations(ctx context.Context) ([]conversation.Conversation, error) {
	c.mu.Lock()
	if c.listState == StateReady && time.Since(c.listFetchedAt) < c.readyTTL {
		cached := append([]conversation.Conversation(nil), c.list...)
		c.mu.Unlock()
		return cached, nil
	}
	c.listState = StateLoading
	c.mu.Unlock()

	list, err := c.fetchConversations(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.listState = StateStale
		return nil, err
	}
	c.list = list
	c.listFetchedAt = time.Now()
	c.listState = StateReady
	return append([]conversation.Conversation(nil), list...), nil
}

func (c *ConversationContext) fetchConversations(ctx context.Context) ([]conversation.Conversation, error) {
	if c.cache != nil {
		if cached, err := c.cache.GetConversationList(ctx, c.viewerID); err == nil && cached != nil {
			return cached, nil
		}
	}
	list, err := c.conversations.ListConversations(ctx, c.viewerID)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		_ = c.cache.SetConversationList(ctx, c.viewerID, list)
	}
	return list, nil
}

// Open loads the newest message page of a conversation and makes it the
// active one. Opening a different conversation discards the previous page.
func (c *ConversationContext) Open(ctx context.Context, conversationID uuid.UUID) ([]message.Message, error) {
	c.mu.Lock()
	if c.openID == conversationID && c.openState == StateReady && time.Since(c.openFetchedAt) < c.readyTTL {
		cached := append([]message.Message(nil), c.openPage...)
		c.mu.Unlock()
		return cached, nil
	}
	c.openID = conversationID
	c.openState = StateLoading
	c.mu.Unlock()

	page, cursor, err := c.fetchMessagePage(ctx, conversationID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openID != conversationID {
		// A later Open superseded this load; drop the result.
		return page, err
	}
	if err != nil {
		c.openState = StateStale
		return nil, err
	}
	c.openPage = page
	c.openCursor = cursor
	c.openFetchedAt = time.Now()
	c.openState = StateReady
	return append([]message.Message(nil), page...), nil
}

func (c *ConversationContext) fetchMessagePage(ctx context.Context, conversationID uuid.UUID) ([]message.Message, string, error) {
	if c.cache != nil {
		cached, next, err := c.cache.GetMessagePage(ctx, conversationID)
		if err == nil && cached != nil {
			// The page snapshot is keyed by conversation and shared across
			// viewers; gate it exactly like a storage read.
			if err := c.conversations.EnsureParticipant(ctx, conversationID, c.viewerID); err != nil {
				return nil, "", err
			}
			return cached, next, nil
		}
	}
	page, cursor, err := c.messages.List(ctx, conversationID, c.viewerID, "", 0)
	if err != nil {
		return nil, "", err
	}
	if c.cache != nil {
		_ = c.cache.SetMessagePage(ctx, conversationID, page, cursor)
	}
	return page, cursor, nil
}

// LoadOlder fetches the page before the oldest loaded message and prepends
// it to the open conversation.
func (c *ConversationContext) LoadOlder(ctx context.Context) ([]message.Message, error) {
	c.mu.Lock()
	conversationID := c.openID
	cursor := c.openCursor
	c.mu.Unlock()
	if conversationID == uuid.Nil || cursor == "" {
		return nil, nil
	}

	older, next, err := c.messages.List(ctx, conversationID, c.viewerID, cursor, 0)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openID == conversationID {
		c.openPage = append(append([]message.Message(nil), older...), c.openPage...)
		c.openCursor = next
	}
	return older, nil
}

func (c *ConversationContext) Send(ctx context.Context, conversationID uuid.UUID, content, imageKey string) (message.Message, error) {
	m, err := c.send.Mutate(ctx, services.SendMessageInput{
		ConversationID: conversationID,
		Content:        content,
		ImageKey:       imageKey,
	})
	if err != nil {
		return message.Message{}, err
	}
	c.invalidate(ctx, conversationID)
	return m, nil
}

func (c *ConversationContext) EditMessage(ctx context.Context, messageID uuid.UUID, content string) (message.Message, error) {
	m, err := c.edit.Mutate(ctx, EditMessageInput{MessageID: messageID, Content: content})
	if err != nil {
		return message.Message{}, err
	}
	c.invalidate(ctx, m.ConversationID)
	return m, nil
}

func (c *ConversationContext) MarkRead(ctx context.Context, conversationID uuid.UUID, asOf time.Time) error {
	_, err := c.markRead.Mutate(ctx, MarkReadInput{ConversationID: conversationID, AsOf: asOf})
	if err != nil {
		return err
	}
	c.invalidate(ctx, conversationID)
	return nil
}

// Mutation snapshots for UI layers that render loading/error state.

func (c *ConversationContext) SendSnapshot() services.MutationSnapshot[message.Message] {
	return c.send.Snapshot()
}

func (c *ConversationContext) ResetSend() {
	c.send.Reset()
}

func (c *ConversationContext) EditSnapshot() services.MutationSnapshot[message.Message] {
	return c.edit.Snapshot()
}

func (c *ConversationContext) ResetEdit() {
	c.edit.Reset()
}

// invalidate marks the affected cached views stale and drops the shared
// redis snapshots. The next read refetches from storage.
func (c *ConversationContext) invalidate(ctx context.Context, conversationID uuid.UUID) {
	c.mu.Lock()
	if c.listState == StateReady {
		c.listState = StateStale
	}
	if c.openID == conversationID && c.openState == StateReady {
		c.openState = StateStale
	}
	c.mu.Unlock()

	if c.cache != nil {
		_ = c.cache.InvalidateConversationList(ctx, c.viewerID)
		_ = c.cache.InvalidateMessagePage(ctx, conversationID)
	}
}
