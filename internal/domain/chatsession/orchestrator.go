package chatsession

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/domain/message"
	"github.com/janhq/money-coach/internal/domain/normalizer"
	"github.com/janhq/money-coach/internal/utils/functional"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

var tracer = otel.Tracer("money-coach/chatsession")

// Orchestrator runs one turn: resolve the conversation, call the AI service,
// normalize the reply, then store the message pair and link the session id in
// a single transaction.
type Orchestrator struct {
	conversations *conversation.Service
	messages      *message.Service
	tx            Transactor
	ai            AIClient
	normalizer    *normalizer.Normalizer
	recorder      TurnRecorder
	log           zerolog.Logger
}

func NewOrchestrator(
	conversations *conversation.Service,
	messages *message.Service,
	tx Transactor,
	ai AIClient,
	norm *normalizer.Normalizer,
	recorder TurnRecorder,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		messages:      messages,
		tx:            tx,
		ai:            ai,
		normalizer:    norm,
		recorder:      recorder,
		log:           log.With().Str("component", "chat_orchestrator").Logger(),
	}
}

// Send runs a turn. Input problems are rejected before the AI service is
// called; every AI failure surfaces as ErrorTypeExternal.
func (o *Orchestrator) Send(ctx context.Context, req TurnRequest) (result *TurnResult, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "chatsession.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.mode", string(req.Mode)),
		attribute.String("chat.type", string(req.ChatType)),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			if perr := platformerrors.GetPlatformError(err); perr != nil {
				outcome = strings.ToLower(string(perr.Type))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		if o.recorder != nil {
			o.recorder.RecordTurn(req.Mode, req.ChatType, outcome, time.Since(start))
		}
	}()

	text, err := o.validate(ctx, &req)
	if err != nil {
		return nil, err
	}

	switch req.Mode {
	case ModePersisted:
		return o.sendPersisted(ctx, req, text)
	default:
		return o.sendAnonymous(ctx, req, text)
	}
}

func (o *Orchestrator) validate(ctx context.Context, req *TurnRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	switch {
	case text == "":
		return "", invalid(ctx, "text is required")
	case utf8.RuneCountInString(text) > MaxInputLength:
		return "", invalid(ctx, "text is too long")
	}

	switch req.Mode {
	case ModePersisted:
		if req.UserID == 0 {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "persisted turns need a user", nil, "de39fd5a-6f5a-41c0-b41f-9e057678902b")
		}
		if strings.TrimSpace(req.ConversationID) != "" {
			return text, nil
		}
	case ModeAnonymous:
		req.SessionID = strings.TrimSpace(req.SessionID)
		if len(req.SessionID) > MaxSessionIDLength {
			return "", invalid(ctx, "session_id is too long")
		}
	default:
		return "", invalid(ctx, "unknown turn mode")
	}

	chatType, ok := conversation.ParseChatType(string(req.ChatType))
	if !ok {
		return "", invalid(ctx, "unknown chat type")
	}
	req.ChatType = chatType
	return text, nil
}

func (o *Orchestrator) sendPersisted(ctx context.Context, req TurnRequest, text string) (*TurnResult, error) {
	var (
		conv *conversation.Conversation
		err  error
	)
	if id := strings.TrimSpace(req.ConversationID); id != "" {
		conv, err = o.conversations.GetOwned(ctx, id, req.UserID)
	} else {
		conv, err = o.conversations.FindOrCreate(ctx, req.UserID, req.ChatType, "")
	}
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve conversation")
	}

	payload, err := o.exchange(ctx, UpstreamRequest{
		ChatType:  conv.ChatType,
		Text:      text,
		SessionID: conv.UpstreamSessionID(),
	})
	if err != nil {
		return nil, err
	}

	var stored []*message.Message
	err = o.tx.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		if stored, txErr = o.messages.AddPair(ctx, conv.ID, text, payload.DisplayText, payload.Metadata()); txErr != nil {
			return txErr
		}
		if txErr = o.conversations.Reactivate(ctx, conv); txErr != nil {
			return txErr
		}
		return o.conversations.LinkSession(ctx, conv, payload.SessionID)
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to store turn")
	}

	o.log.Debug().
		Str("conversation_id", conv.PublicID).
		Str("state", string(conv.State())).
		Str("structure", string(payload.Structure)).
		Msg("persisted turn stored")

	return &TurnResult{
		Payload:      payload,
		SessionID:    conv.UpstreamSessionID(),
		Conversation: conv,
		Messages:     stored,
	}, nil
}

func (o *Orchestrator) sendAnonymous(ctx context.Context, req TurnRequest, text string) (*TurnResult, error) {
	payload, err := o.exchange(ctx, UpstreamRequest{
		ChatType:  req.ChatType,
		Text:      text,
		SessionID: req.SessionID,
	})
	if err != nil {
		return nil, err
	}
	payload.SessionID = functional.FirstNonEmpty(payload.SessionID, req.SessionID)
	return &TurnResult{Payload: payload, SessionID: payload.SessionID}, nil
}

func (o *Orchestrator) exchange(ctx context.Context, upstream UpstreamRequest) (normalizer.Payload, error) {
	reply, err := o.ai.Chat(ctx, upstream)
	if err != nil {
		return normalizer.Payload{}, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "AI service call failed")
	}

	var payload normalizer.Payload
	if len(reply.RawOutputs) > 0 {
		payload = o.normalizer.Normalize(reply.RawOutputs, reply.SessionID)
	} else {
		payload = o.normalizer.NormalizeText(reply.DisplayText)
		payload.SessionID = functional.FirstNonEmpty(strings.TrimSpace(reply.SessionID), payload.SessionID)
	}
	if strings.TrimSpace(payload.DisplayText) == "" {
		return normalizer.Payload{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "AI service returned an empty reply", nil, "9b10ae58-09ff-4004-8ca3-2f81b54ab373")
	}
	return payload, nil
}

func invalid(ctx context.Context, msg string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msg, nil, "e7d25540-f564-48ec-a440-1f9af34eb127")
}
