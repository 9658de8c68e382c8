package conversationhandler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/authhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/responses"
	conversationresponses "github.com/janhq/money-coach/internal/interfaces/httpserver/responses/conversation"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

const (
	conversationContextKey = "conversation"
	ConversationIDParam    = "conversation_id"
)

type ConversationHandler struct {
	conversationService *conversation.Service
	logger              zerolog.Logger
}

func NewConversationHandler(conversationService *conversation.Service, logger zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		logger:              logger.With().Str("component", "conversation_handler").Logger(),
	}
}

// ConversationMiddleware loads the caller's conversation named by the
// :conversation_id path parameter. It accepts the public id or the session id;
// absent and foreign conversations both answer 404.
func (h *ConversationHandler) ConversationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		usr, ok := authhandler.GetUserFromContext(c)
		if !ok {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "38344fee-3223-4032-b51d-84f45c9f9423")
			return
		}

		conv, err := h.conversationService.GetOwned(c.Request.Context(), c.Param(ConversationIDParam), usr.ID)
		if err != nil {
			responses.HandleError(c, err, "failed to load conversation")
			return
		}
		c.Set(conversationContextKey, conv)
		c.Next()
	}
}

// GetConversationFromContext returns the conversation loaded by ConversationMiddleware.
func GetConversationFromContext(c *gin.Context) (*conversation.Conversation, bool) {
	val, ok := c.Get(conversationContextKey)
	if !ok {
		return nil, false
	}
	conv, ok := val.(*conversation.Conversation)
	return conv, ok && conv != nil
}

func (h *ConversationHandler) ListConversations(ctx context.Context, userID uint, pagination conversation.Pagination) (*conversationresponses.ConversationListResponse, error) {
	convs, total, err := h.conversationService.List(ctx, userID, pagination)
	if err != nil {
		return nil, err
	}
	hasMore := int64(pagination.Offset+len(convs)) < total
	return conversationresponses.NewConversationListResponse(convs, hasMore, total), nil
}

// CreateConversation returns the caller's conversation for the chat type,
// creating it when absent.
func (h *ConversationHandler) CreateConversation(ctx context.Context, userID uint, rawChatType string) (*conversationresponses.ConversationResponse, error) {
	chatType, err := parseChatType(ctx, rawChatType)
	if err != nil {
		return nil, err
	}
	conv, err := h.conversationService.FindOrCreate(ctx, userID, chatType, "")
	if err != nil {
		return nil, err
	}
	return conversationresponses.NewConversationResponse(conv), nil
}

func (h *ConversationHandler) GetConversationByType(ctx context.Context, userID uint, rawChatType string) (*conversationresponses.ConversationResponse, error) {
	chatType, err := parseChatType(ctx, rawChatType)
	if err != nil {
		return nil, err
	}
	conv, err := h.conversationService.GetByType(ctx, userID, chatType)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "6640df40-4c51-404a-a579-96b7de845ff1")
	}
	return conversationresponses.NewConversationResponse(conv), nil
}

func (h *ConversationHandler) ArchiveConversation(ctx context.Context, userID uint, conv *conversation.Conversation) (*conversationresponses.ConversationResponse, error) {
	archived, err := h.conversationService.Archive(ctx, conv.PublicID, userID)
	if err != nil {
		return nil, err
	}
	h.logger.Info().Str("conversation_id", conv.PublicID).Msg("conversation archived")
	return conversationresponses.NewConversationResponse(archived), nil
}

func parseChatType(ctx context.Context, raw string) (conversation.ChatType, error) {
	chatType, ok := conversation.ParseChatType(raw)
	if !ok {
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "unknown chat type", nil, "01760d40-a245-496c-896a-fe3107d100be", map[string]any{"chat_type": raw})
	}
	return chatType, nil
}
