package chathandler

import (
	"context"

	"github.com/janhq/money-coach/internal/domain/chatsession"
	"github.com/janhq/money-coach/internal/domain/conversation"
	chatrequests "github.com/janhq/money-coach/internal/interfaces/httpserver/requests/chat"
	chatresponses "github.com/janhq/money-coach/internal/interfaces/httpserver/responses/chat"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type ChatHandler struct {
	orchestrator *chatsession.Orchestrator
}

func NewChatHandler(orchestrator *chatsession.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// ChatByType relays a turn into the user's conversation for the chat type,
// opening it on first use.
func (h *ChatHandler) ChatByType(ctx context.Context, userID uint, rawChatType string, req chatrequests.ChatRequest) (*chatresponses.ChatResponse, error) {
	chatType, ok := conversation.ParseChatType(rawChatType)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "unknown chat type", nil, "0a734ace-8ac5-4551-a5a9-2a31ff16d428")
	}
	return h.send(ctx, chatsession.TurnRequest{
		Mode:     chatsession.ModePersisted,
		ChatType: chatType,
		Text:     req.Text,
		UserID:   userID,
	})
}

// ChatInConversation relays a turn into an existing owned conversation.
func (h *ChatHandler) ChatInConversation(ctx context.Context, userID uint, conv *conversation.Conversation, req chatrequests.ChatRequest) (*chatresponses.ChatResponse, error) {
	return h.send(ctx, chatsession.TurnRequest{
		Mode:           chatsession.ModePersisted,
		ChatType:       conv.ChatType,
		Text:           req.Text,
		UserID:         userID,
		ConversationID: conv.PublicID,
	})
}

// PublicChat relays an anonymous turn. Nothing is stored; the returned
// session id carries continuity.
func (h *ChatHandler) PublicChat(ctx context.Context, rawChatType string, req chatrequests.PublicChatRequest) (*chatresponses.ChatResponse, error) {
	chatType, ok := conversation.ParseChatType(rawChatType)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "unknown chat type", nil, "76cd248c-75a7-4a93-99cd-9921ad6e0a65")
	}
	return h.send(ctx, chatsession.TurnRequest{
		Mode:      chatsession.ModeAnonymous,
		ChatType:  chatType,
		Text:      req.Text,
		SessionID: req.SessionID,
	})
}

func (h *ChatHandler) send(ctx context.Context, req chatsession.TurnRequest) (*chatresponses.ChatResponse, error) {
	result, err := h.orchestrator.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return chatresponses.NewChatResponse(result), nil
}
