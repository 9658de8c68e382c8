package handlers

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/money-coach/internal/config"
	"github.com/janhq/money-coach/internal/domain/user"
	"github.com/janhq/money-coach/internal/infrastructure/deliverycache"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/authhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/conversationhandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/messagehandler"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/handlers/webhookhandler"
)

var HandlerProvider = wire.NewSet(
	authhandler.NewAuthHandler,
	chathandler.NewChatHandler,
	conversationhandler.NewConversationHandler,
	messagehandler.NewMessageHandler,
	ProvideWebhookHandler,
)

// ProvideWebhookHandler wires the identity webhook handler, with Redis delivery
// dedupe when a cache is configured.
func ProvideWebhookHandler(cfg *config.Config, userService *user.Service, cache *deliverycache.Cache, logger zerolog.Logger) (*webhookhandler.WebhookHandler, error) {
	var deduper webhookhandler.DeliveryDeduper
	if cache != nil {
		deduper = cache
	}
	return webhookhandler.NewWebhookHandler(userService, cfg.IdentityWebhookSecret, deduper, logger)
}
