package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/chat"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/conversation"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/message"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/webhook"
)

type V1Route struct {
	conversation *conversation.ConversationRoute
	message      *message.MessageRoute
	chat         *chat.ChatRoute
	webhook      *webhook.WebhookRoute
}

func NewV1Route(
	conversation *conversation.ConversationRoute,
	message *message.MessageRoute,
	chat *chat.ChatRoute,
	webhook *webhook.WebhookRoute,
) *V1Route {
	return &V1Route{
		conversation,
		message,
		chat,
		webhook,
	}
}

// RegisterRouter registers endpoints behind bearer authentication.
func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Route.conversation.RegisterRouter(v1Router)
	v1Route.message.RegisterRouter(v1Router)
	v1Route.chat.RegisterRouter(v1Router)
}

// RegisterPublicRouter registers endpoints that do not require authentication
func (v1Route *V1Route) RegisterPublicRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Route.webhook.RegisterPublicRouter(v1Router)
	v1Route.chat.RegisterPublicRouter(v1Router)
}
