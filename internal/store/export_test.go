package store

import "time"

// SetReadyTTL shortens the Ready-view lifetime so tests can watch it lapse.
func (c *ConversationContext) SetReadyTTL(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyTTL = d
}
