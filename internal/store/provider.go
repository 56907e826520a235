package store

import (
	"sync"

	"sensasi-chat/internal/services"

	"github.com/google/uuid"
)

// maxContexts bounds the per-viewer context map. Contexts are cheap to
// rebuild, so on overflow the map is simply dropped.
const maxContexts = 10000

// Provider hands out one ConversationContext per viewer so cached view
// state and mutation snapshots survive across requests.
type Provider struct {
	conversations *services.ConversationService
	messages      *services.MessageService
	cache         PageCache

	mu       sync.Mutex
	contexts map[uuid.UUID]*ConversationContext
}

func NewProvider(convSvc *services.ConversationService, msgSvc *services.MessageService, cache PageCache) *Provider {
	return &Provider{
		conversations: convSvc,
		messages:      msgSvc,
		cache:         cache,
		contexts:      make(map[uuid.UUID]*ConversationContext),
	}
}

func (p *Provider) For(viewerID uuid.UUID) *ConversationContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.contexts[viewerID]; ok {
		return c
	}
	if len(p.contexts) >= maxContexts {
		p.contexts = make(map[uuid.UUID]*ConversationContext)
	}
	c := NewConversationContext(p.conversations, p.messages, p.cache, viewerID)
	p.contexts[viewerID] = c
	return c
}
