package webhookhandler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/janhq/money-coach/internal/domain/user"
	"github.com/janhq/money-coach/internal/infrastructure/metrics"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

const deliveryIDHeader = "svix-id"

// DeliveryDeduper remembers processed deliveries. Implementations must treat
// their own failures as misses.
type DeliveryDeduper interface {
	Seen(ctx context.Context, deliveryID string) bool
	Remember(ctx context.Context, deliveryID string)
}

// DeliveryResult is what a delivery did.
type DeliveryResult struct {
	EventType string
	Outcome   user.EventOutcome
	Duplicate bool
}

type WebhookHandler struct {
	userService *user.Service
	verifier    *svix.Webhook
	deduper     DeliveryDeduper
	logger      zerolog.Logger
}

// NewWebhookHandler builds the identity webhook handler. deduper may be nil.
func NewWebhookHandler(userService *user.Service, secret string, deduper DeliveryDeduper, logger zerolog.Logger) (*WebhookHandler, error) {
	verifier, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return &WebhookHandler{
		userService: userService,
		verifier:    verifier,
		deduper:     deduper,
		logger:      logger.With().Str("component", "webhook_handler").Logger(),
	}, nil
}

// HandleDelivery verifies the signature over the raw body, then parses and
// applies the event. Nothing is parsed or persisted for an unverified body.
func (h *WebhookHandler) HandleDelivery(ctx context.Context, payload []byte, headers http.Header) (*DeliveryResult, error) {
	if err := h.verifier.Verify(payload, headers); err != nil {
		metrics.RecordWebhookEvent("", "rejected_signature")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUnauthorized, "invalid webhook signature", err, "c05d9da3-8114-4a73-961f-52d8d3179490")
	}

	event, err := user.ParseWebhookEvent(payload)
	if err != nil {
		metrics.RecordWebhookEvent("", "rejected_payload")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "malformed webhook payload", err, "6d5a2281-7a9f-4afd-88ce-b3357b2ef993")
	}

	deliveryID := headers.Get(deliveryIDHeader)
	if h.deduper != nil && deliveryID != "" && h.deduper.Seen(ctx, deliveryID) {
		metrics.RecordWebhookEvent(event.Type, "duplicate")
		h.logger.Debug().Str("delivery_id", deliveryID).Str("event_type", event.Type).Msg("skipping replayed delivery")
		return &DeliveryResult{EventType: event.Type, Duplicate: true}, nil
	}

	outcome, err := h.userService.HandleEvent(ctx, event)
	if err != nil {
		metrics.RecordWebhookEvent(event.Type, "failed")
		return nil, err
	}

	if h.deduper != nil && deliveryID != "" {
		h.deduper.Remember(ctx, deliveryID)
	}
	metrics.RecordWebhookEvent(event.Type, string(outcome))
	h.logger.Info().
		Str("delivery_id", deliveryID).
		Str("event_type", event.Type).
		Str("external_id", event.Data.ID).
		Str("outcome", string(outcome)).
		Msg("identity webhook processed")

	return &DeliveryResult{EventType: event.Type, Outcome: outcome}, nil
}
