package messageresponses

import (
	"github.com/janhq/money-coach/internal/domain/message"
)

type MessageResponse struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	Sequence  int64          `json:"sequence"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

type MessageListResponse struct {
	Object  string            `json:"object"`
	Data    []MessageResponse `json:"data"`
	FirstID string            `json:"first_id"`
	LastID  string            `json:"last_id"`
	HasMore bool              `json:"has_more"`
	Total   int64             `json:"total"`
}

type MessageDeletedResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

func NewMessageResponse(msg *message.Message) *MessageResponse {
	return &MessageResponse{
		ID:        msg.PublicID,
		Object:    "message",
		Sequence:  msg.Sequence,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Metadata:  msg.Metadata,
		CreatedAt: msg.CreatedAt.Unix(),
	}
}

func NewMessageResponses(msgs []*message.Message) []MessageResponse {
	data := make([]MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		data = append(data, *NewMessageResponse(msg))
	}
	return data
}

func NewMessageListResponse(msgs []*message.Message, hasMore bool, total int64) *MessageListResponse {
	data := NewMessageResponses(msgs)
	resp := &MessageListResponse{
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

func NewMessageDeletedResponse(publicID string) *MessageDeletedResponse {
	return &MessageDeletedResponse{
		ID:      publicID,
		Object:  "message.deleted",
		Deleted: true,
	}
}
