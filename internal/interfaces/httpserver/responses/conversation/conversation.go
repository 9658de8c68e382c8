package conversationresponses

import (
	"github.com/janhq/money-coach/internal/domain/conversation"
)

// ConversationResponse is the public view of a conversation. The internal
// numeric id and a sentinel session id never leave the service.
type ConversationResponse struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	ChatType     string `json:"chat_type"`
	Status       string `json:"status"`
	State        string `json:"state"`
	SessionID    string `json:"session_id,omitempty"`
	MessageCount int64  `json:"message_count"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// ConversationListResponse represents a paginated list of conversations
type ConversationListResponse struct {
	Object  string                 `json:"object"`
	Data    []ConversationResponse `json:"data"`
	FirstID string                 `json:"first_id"`
	LastID  string                 `json:"last_id"`
	HasMore bool                   `json:"has_more"`
	Total   int64                  `json:"total"`
}

func NewConversationResponse(conv *conversation.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:           conv.PublicID,
		Object:       "conversation",
		ChatType:     string(conv.ChatType),
		Status:       string(conv.Status),
		State:        string(conv.State()),
		SessionID:    conv.UpstreamSessionID(),
		MessageCount: conv.MessageCount,
		CreatedAt:    conv.CreatedAt.Unix(),
		UpdatedAt:    conv.UpdatedAt.Unix(),
	}
}

func NewConversationListResponse(conversations []*conversation.Conversation, hasMore bool, total int64) *ConversationListResponse {
	data := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		if conv == nil {
			continue
		}
		data = append(data, *NewConversationResponse(conv))
	}

	resp := &ConversationListResponse{
		Object:  "list",
		Data:    data,
		HasMore: hasMore,
		Total:   total,
	}
	if len(data) > 0 {
		resp.FirstID = data[0].ID
		resp.LastID = data[len(data)-1].ID
	}
	return resp
}
