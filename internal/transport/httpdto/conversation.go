package httpdto

import (
	"time"

	"sensasi-chat/internal/domain/conversation"

	"github.com/google/uuid"
)

type StartConversationRequest struct {
	PeerID string `json:"peer_id" binding:"required"`
}

type MarkReadRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

type ParticipantResponse struct {
	UserID     string    `json:"user_id"`
	JoinedAt   time.Time `json:"joined_at"`
	LastReadAt time.Time `json:"last_read_at"`
}

type ConversationResponse struct {
	ID            string                `json:"id"`
	PeerID        string                `json:"peer_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	LastMessageAt time.Time             `json:"last_message_at"`
	UnreadCount   int64                 `json:"unread_count"`
	LastMessage   *MessageResponse      `json:"last_message,omitempty"`
	Participants  []ParticipantResponse `json:"participants,omitempty"`
}

type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// FromConversation shapes a conversation for the given viewer: the peer is
// whichever side of the pair the viewer is not.
func FromConversation(c conversation.Conversation, viewerID uuid.UUID) ConversationResponse {
	resp := ConversationResponse{
		ID:            c.ID.String(),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   c.UnreadCount,
	}
	if viewerID != uuid.Nil {
		if c.UserLowID == viewerID {
			resp.PeerID = c.UserHighID.String()
		} else {
			resp.PeerID = c.UserLowID.String()
		}
	}
	if c.LastMessage != nil {
		last := FromMessage(*c.LastMessage)
		resp.LastMessage = &last
	}
	for _, p := range c.Participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			UserID:     p.UserID.String(),
			JoinedAt:   p.JoinedAt,
			LastReadAt: p.LastReadAt,
		})
	}
	return resp
}

func FromConversationSlice(items []conversation.Conversation, viewerID uuid.UUID) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, c := range items {
		out = append(out, FromConversation(c, viewerID))
	}
	return out
}
