package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/authhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/chathandler"
	chatrequests "github.com/janhq/money-coach/internal/interfaces/httpserver/requests/chat"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/responses"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type ChatRoute struct {
	handler     *chathandler.ChatHandler
	authHandler *authhandler.AuthHandler
}

func NewChatRoute(handler *chathandler.ChatHandler, authHandler *authhandler.AuthHandler) *ChatRoute {
	return &ChatRoute{
		handler:     handler,
		authHandler: authHandler,
	}
}

func (route *ChatRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/chat/:chat_type", route.authHandler.WithAppUserAuthChain(route.chatByType)...)
}

// RegisterPublicRouter registers the anonymous chat endpoint.
func (route *ChatRoute) RegisterPublicRouter(router gin.IRouter) {
	router.POST("/public/chat/:chat_type", route.publicChat)
}

// chatByType relays one turn into the caller's conversation for the chat type.
//
// @Summary Chat by chat type
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param chat_type path string true "Chat type"
// @Param request body chatrequests.ChatRequest true "Request body"
// @Success 200 {object} chatresponses.ChatResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 502 {object} platformerrors.HTTPErrorResponse "Upstream unavailable"
// @Router /v1/chat/{chat_type} [post]
func (route *ChatRoute) chatByType(reqCtx *gin.Context) {
	user, ok := authhandler.GetUserFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "93004183-6a9d-4b70-80d7-9a638b86ffc6")
		return
	}

	var req chatrequests.ChatRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "51beed6f-cc1b-4c32-a031-8fe49e7f8736")
		return
	}

	response, err := route.handler.ChatByType(reqCtx.Request.Context(), user.ID, reqCtx.Param("chat_type"), req)
	if err != nil {
		responses.HandleError(reqCtx, err, "chat turn failed")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// publicChat godoc
// @Summary Anonymous chat
// @Description Relays one turn without storing history. The returned session_id continues the conversation.
// @Tags Chat
// @Accept json
// @Produce json
// @Param chat_type path string true "Chat type"
// @Param request body chatrequests.PublicChatRequest true "Request body"
// @Success 200 {object} chatresponses.ChatResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse "Invalid request"
// @Failure 502 {object} platformerrors.HTTPErrorResponse "Upstream unavailable"
// @Router /v1/public/chat/{chat_type} [post]
func (route *ChatRoute) publicChat(reqCtx *gin.Context) {
	var req chatrequests.PublicChatRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "a9cce446-d103-4032-896e-a5b9a4e7cd81")
		return
	}

	response, err := route.handler.PublicChat(reqCtx.Request.Context(), reqCtx.Param("chat_type"), req)
	if err != nil {
		responses.HandleError(reqCtx, err, "public chat turn failed")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}
