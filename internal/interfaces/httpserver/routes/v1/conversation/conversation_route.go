package conversation

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/domain/message"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/authhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/conversationhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/messagehandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/requests"
	chatrequests "github.com/janhq/money-coach/internal/interfaces/httpserver/requests/chat"
	conversationrequests "github.com/janhq/money-coach/internal/interfaces/httpserver/requests/conversation"
	messagerequests "github.com/janhq/money-coach/internal/interfaces/httpserver/requests/message"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/responses"
	conversationresponses "github.com/janhq/money-coach/internal/interfaces/httpserver/responses/conversation"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type ConversationRoute struct {
	handler        *conversationhandler.ConversationHandler
	messageHandler *messagehandler.MessageHandler
	chatHandler    *chathandler.ChatHandler
	authHandler    *authhandler.AuthHandler
}

func NewConversationRoute(
	handler *conversationhandler.ConversationHandler,
	messageHandler *messagehandler.MessageHandler,
	chatHandler *chathandler.ChatHandler,
	authHandler *authhandler.AuthHandler,
) *ConversationRoute {
	return &ConversationRoute{
		handler:        handler,
		messageHandler: messageHandler,
		chatHandler:    chatHandler,
		authHandler:    authHandler,
	}
}

func (route *ConversationRoute) RegisterRouter(router gin.IRouter) {
	conversations := router.Group("/conversations")
	conversations.GET("", route.authHandler.WithAppUserAuthChain(route.listConversations)...)
	conversations.POST("", route.authHandler.WithAppUserAuthChain(route.createConversation)...)
	conversations.GET("/by-type/:chat_type", route.authHandler.WithAppUserAuthChain(route.getConversationByType)...)
	conversations.GET("/:conversation_id", route.authHandler.WithAppUserAuthChain(route.handler.ConversationMiddleware(), route.getConversation)...)
	conversations.POST("/:conversation_id/archive", route.authHandler.WithAppUserAuthChain(route.handler.ConversationMiddleware(), route.archiveConversation)...)
	conversations.GET("/:conversation_id/messages", route.authHandler.WithAppUserAuthChain(route.handler.ConversationMiddleware(), route.listMessages)...)
	conversations.POST("/:conversation_id/messages", route.authHandler.WithAppUserAuthChain(route.handler.ConversationMiddleware(), route.appendMessages)...)
	conversations.POST("/:conversation_id/chat", route.authHandler.WithAppUserAuthChain(route.handler.ConversationMiddleware(), route.chat)...)
}

// listConversations returns the caller's conversations, most recently active first.
//
// @Summary List conversations
// @Tags Conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} conversationresponses.ConversationListResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 503 {object} platformerrors.HTTPErrorResponse "Service unavailable"
// @Router /v1/conversations [get]
func (route *ConversationRoute) listConversations(reqCtx *gin.Context) {
	user, ok := authhandler.GetUserFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "28c270aa-9a76-442f-adf2-7325ba525b18")
		return
	}

	page, ok := requests.GetPageFromQuery(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid query parameters", "6ea33a0d-7de2-46f3-9875-5b1411154f12")
		return
	}

	response, err := route.handler.ListConversations(reqCtx.Request.Context(), user.ID, conversation.Pagination{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to list conversations")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// createConversation opens the conversation for a chat type. Calling it again
// for the same chat type returns the same conversation.
//
// @Summary Create conversation
// @Description Finds or creates the conversation for a chat type.
// @Tags Conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body conversationrequests.CreateConversationRequest true "Request body"
// @Success 200 {object} conversationresponses.ConversationResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 503 {object} platformerrors.HTTPErrorResponse "Service unavailable"
// @Router /v1/conversations [post]
func (route *ConversationRoute) createConversation(reqCtx *gin.Context) {
	user, ok := authhandler.GetUserFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "976b0ade-ffe3-4077-bc8d-f2216157a9c7")
		return
	}

	var req conversationrequests.CreateConversationRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "c14d81de-e671-48cb-a37f-5818c35a00bc")
		return
	}

	response, err := route.handler.CreateConversation(reqCtx.Request.Context(), user.ID, req.ChatType)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to create conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// getConversationByType godoc
// @Summary Get conversation by chat type
// @Description Returns the caller's conversation for a chat type.
// @Tags Conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param chat_type path string true "Chat type (income, debt, expenses, savings, open_chat)"
// @Success 200 {object} conversationresponses.ConversationResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Router /v1/conversations/by-type/{chat_type} [get]
func (route *ConversationRoute) getConversationByType(reqCtx *gin.Context) {
	user, ok := authhandler.GetUserFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "321b31c9-c3a5-40dc-8343-6f4977c91e45")
		return
	}

	response, err := route.handler.GetConversationByType(reqCtx.Request.Context(), user.ID, reqCtx.Param("chat_type"))
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to get conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// getConversation godoc
// @Summary Get conversation
// @Description Returns an owned conversation by public id or session id.
// @Tags Conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} conversationresponses.ConversationResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Router /v1/conversations/{conversation_id} [get]
func (route *ConversationRoute) getConversation(reqCtx *gin.Context) {
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "31a5fd19-ea87-40b7-83d7-a8636f014f02")
		return
	}
	reqCtx.JSON(http.StatusOK, conversationresponses.NewConversationResponse(conv))
}

// archiveConversation godoc
// @Summary Archive conversation
// @Tags Conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} conversationresponses.ConversationResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Failure 503 {object} platformerrors.HTTPErrorResponse "Service unavailable"
// @Router /v1/conversations/{conversation_id}/archive [post]
func (route *ConversationRoute) archiveConversation(reqCtx *gin.Context) {
	user, _ := authhandler.GetUserFromContext(reqCtx)
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok || user == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "76c0ae82-1526-4817-be77-d4d24deac7ca")
		return
	}

	response, err := route.handler.ArchiveConversation(reqCtx.Request.Context(), user.ID, conv)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to archive conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// listMessages godoc
// @Summary List messages
// @Tags Messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Rows to skip"
// @Param order query string false "asc or desc"
// @Success 200 {object} messageresponses.MessageListResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Router /v1/conversations/{conversation_id}/messages [get]
func (route *ConversationRoute) listMessages(reqCtx *gin.Context) {
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "e464128a-2e4b-4568-8b7a-fb8aa85a9e1f")
		return
	}

	page, ok := requests.GetPageFromQuery(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid query parameters", "df226846-4deb-4183-883b-075775707b52")
		return
	}
	opts := message.ListOptions{
		Limit:  page.Limit,
		Offset: page.Offset,
		Order:  message.Order(strings.ToLower(strings.TrimSpace(reqCtx.Query("order")))),
	}

	response, err := route.messageHandler.ListMessages(reqCtx.Request.Context(), conv, opts)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to list messages")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// appendMessages writes messages to the conversation as one unit: either all
// of them are stored in order or none is.
//
// @Summary Append messages
// @Tags Messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body messagerequests.AppendMessagesRequest true "Request body"
// @Success 201 {object} messageresponses.MessageListResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Failure 503 {object} platformerrors.HTTPErrorResponse "Service unavailable"
// @Router /v1/conversations/{conversation_id}/messages [post]
func (route *ConversationRoute) appendMessages(reqCtx *gin.Context) {
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "eea80b59-eb5c-40b2-90be-2cd5fbb442fd")
		return
	}

	var req messagerequests.AppendMessagesRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "9ac1c0e3-44a8-4e35-8fee-86e470efb64f")
		return
	}

	response, err := route.messageHandler.AppendMessages(reqCtx.Request.Context(), conv, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to append messages")
		return
	}
	reqCtx.JSON(http.StatusCreated, response)
}

// chat godoc
// @Summary Chat in conversation
// @Description Sends one turn to the coach within an owned conversation.
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body chatrequests.ChatRequest true "Request body"
// @Success 200 {object} chatresponses.ChatResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Failure 502 {object} platformerrors.HTTPErrorResponse "Upstream unavailable"
// @Router /v1/conversations/{conversation_id}/chat [post]
func (route *ConversationRoute) chat(reqCtx *gin.Context) {
	user, _ := authhandler.GetUserFromContext(reqCtx)
	conv, ok := conversationhandler.GetConversationFromContext(reqCtx)
	if !ok || user == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "d41996d4-6800-4f4e-a2d6-5e41cba837bd")
		return
	}

	var req chatrequests.ChatRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "ae35059c-327b-4cf2-98c9-b2798c98e0a2")
		return
	}

	response, err := route.chatHandler.ChatInConversation(reqCtx.Request.Context(), user.ID, conv, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "chat turn failed")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}
