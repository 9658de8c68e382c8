package routes

import (
	"github.com/google/wire"

	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers"
	v1 "github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/chat"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/conversation"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/message"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/routes/v1/webhook"
)

var RouteProvider = wire.NewSet(
	handlers.HandlerProvider,

	v1.NewV1Route,
	chat.NewChatRoute,
	conversation.NewConversationRoute,
	message.NewMessageRoute,
	webhook.NewWebhookRoute,
)
