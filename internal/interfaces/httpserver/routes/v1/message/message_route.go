package message

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/authhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/messagehandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/responses"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

type MessageRoute struct {
	handler     *messagehandler.MessageHandler
	authHandler *authhandler.AuthHandler
}

func NewMessageRoute(handler *messagehandler.MessageHandler, authHandler *authhandler.AuthHandler) *MessageRoute {
	return &MessageRoute{
		handler:     handler,
		authHandler: authHandler,
	}
}

func (route *MessageRoute) RegisterRouter(router gin.IRouter) {
	messages := router.Group("/messages")
	messages.GET("/:message_id", route.authHandler.WithAppUserAuthChain(route.getMessage)...)
	messages.DELETE("/:message_id", route.authHandler.WithAppUserAuthChain(route.deleteMessage)...)
}

// getMessage godoc
// @Summary Get message
// @Tags Messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param message_id path string true "Message ID"
// @Success 200 {object} messageresponses.MessageResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Router /v1/messages/{message_id} [get]
func (route *MessageRoute) getMessage(reqCtx *gin.Context) {
	user, ok := authhandler.GetUserFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "0b598453-0dfa-4d45-b134-e746c585aabf")
		return
	}

	response, err := route.handler.GetMessage(reqCtx.Request.Context(), user.ID, reqCtx.Param("message_id"))
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to get message")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// deleteMessage answers 404 for messages in other users' conversations, the
// same as for messages that do not exist.
//
// @Summary Delete message
// @Tags Messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param message_id path string true "Message ID"
// @Success 200 {object} messageresponses.MessageDeletedResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse "Unauthorized"
// @Failure 404 {object} platformerrors.HTTPErrorResponse "Not found"
// @Failure 503 {object} platformerrors.HTTPErrorResponse "Service unavailable"
// @Router /v1/messages/{message_id} [delete]
func (route *MessageRoute) deleteMessage(reqCtx *gin.Context) {
	user, ok := authhandler.GetUserFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "347aaa7d-2cc7-4f45-a4b3-3ebeae769dd1")
		return
	}

	response, err := route.handler.DeleteMessage(reqCtx.Request.Context(), user.ID, reqCtx.Param("message_id"))
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to delete message")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}
