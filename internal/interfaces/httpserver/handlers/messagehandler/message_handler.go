package messagehandler

import (
	"context"

	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/domain/message"
	messagerequests "github.com/janhq/money-coach/internal/interfaces/httpserver/requests/message"
	messageresponses "github.com/janhq/money-coach/internal/interfaces/httpserver/responses/message"
	"github.com/janhq/money-coach/internal/utils/functional"
)

type MessageHandler struct {
	messageService *message.Service
}

func NewMessageHandler(messageService *message.Service) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) ListMessages(ctx context.Context, conv *conversation.Conversation, opts message.ListOptions) (*messageresponses.MessageListResponse, error) {
	msgs, total, err := h.messageService.List(ctx, conv.ID, opts)
	if err != nil {
		return nil, err
	}
	hasMore := int64(opts.Offset+len(msgs)) < total
	return messageresponses.NewMessageListResponse(msgs, hasMore, total), nil
}

// AppendMessages writes the request's messages in order, all or nothing.
func (h *MessageHandler) AppendMessages(ctx context.Context, conv *conversation.Conversation, req messagerequests.AppendMessagesRequest) (*messageresponses.MessageListResponse, error) {
	drafts := functional.Map(req.Messages, func(in messagerequests.MessageInput) message.Draft {
		return message.Draft{
			Role:     message.Role(in.Role),
			Content:  in.Content,
			Metadata: in.Metadata,
		}
	})
	stored, err := h.messageService.AddMany(ctx, conv.ID, drafts)
	if err != nil {
		return nil, err
	}
	return messageresponses.NewMessageListResponse(stored, false, int64(len(stored))), nil
}

func (h *MessageHandler) GetMessage(ctx context.Context, userID uint, messageID string) (*messageresponses.MessageResponse, error) {
	msg, err := h.messageService.Get(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	return messageresponses.NewMessageResponse(msg), nil
}

func (h *MessageHandler) DeleteMessage(ctx context.Context, userID uint, messageID string) (*messageresponses.MessageDeletedResponse, error) {
	if err := h.messageService.Delete(ctx, messageID, userID); err != nil {
		return nil, err
	}
	return messageresponses.NewMessageDeletedResponse(messageID), nil
}
