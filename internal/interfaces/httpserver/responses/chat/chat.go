package chatresponses

import (
	"github.com/janhq/money-coach/internal/domain/chatsession"
	conversationresponses "github.com/janhq/money-coach/internal/interfaces/httpserver/responses/conversation"
	messageresponses "github.com/janhq/money-coach/internal/interfaces/httpserver/responses/message"
)

// ReplyResponse is the normalized assistant reply.
type ReplyResponse struct {
	Version   int               `json:"version"`
	Text      string            `json:"text"`
	RawText   string            `json:"raw_text"`
	Valid     bool              `json:"valid"`
	Ambiguous bool              `json:"ambiguous"`
	Structure string            `json:"structure"`
	Fields    map[string]any    `json:"fields,omitempty"`
	Amounts   map[string]string `json:"amounts,omitempty"`
}

// ChatResponse is the result of one chat turn.
type ChatResponse struct {
	Object       string                                      `json:"object"`
	SessionID    string                                      `json:"session_id,omitempty"`
	Reply        ReplyResponse                               `json:"reply"`
	Conversation *conversationresponses.ConversationResponse `json:"conversation,omitempty"`
	Messages     []messageresponses.MessageResponse          `json:"messages,omitempty"`
}

func NewChatResponse(result *chatsession.TurnResult) *ChatResponse {
	p := result.Payload
	reply := ReplyResponse{
		Version:   p.Version,
		Text:      p.DisplayText,
		RawText:   p.RawText,
		Valid:     p.Valid,
		Ambiguous: p.Ambiguous,
		Structure: string(p.Structure),
		Fields:    p.Fields,
	}
	if len(p.Amounts) > 0 {
		reply.Amounts = make(map[string]string, len(p.Amounts))
		for k, v := range p.Amounts {
			reply.Amounts[k] = v.String()
		}
	}

	resp := &ChatResponse{
		Object:    "chat.turn",
		SessionID: result.SessionID,
		Reply:     reply,
	}
	if result.Conversation != nil {
		resp.Conversation = conversationresponses.NewConversationResponse(result.Conversation)
	}
	if len(result.Messages) > 0 {
		resp.Messages = messageresponses.NewMessageResponses(result.Messages)
	}
	return resp
}
