package domain

import (
	"github.com/google/wire"

	"github.com/janhq/money-coach/internal/config"
	"github.com/janhq/money-coach/internal/domain/chatsession"
	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/domain/message"
	"github.com/janhq/money-coach/internal/domain/normalizer"
	"github.com/janhq/money-coach/internal/domain/user"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	// Identity
	user.NewService,

	// Conversation store
	conversation.NewService,
	message.NewService,

	// Chat turns
	ProvideNormalizerPolicy,
	normalizer.New,
	chatsession.NewOrchestrator,
)

func ProvideNormalizerPolicy(cfg *config.Config) normalizer.Policy {
	return normalizer.Policy{
		DefaultValid:     cfg.NormalizerDefaultValid,
		DefaultAmbiguous: cfg.NormalizerDefaultAmbiguous,
	}
}
