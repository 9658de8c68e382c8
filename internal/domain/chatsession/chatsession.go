package chatsession

import (
	"context"
	"time"

	"github.com/janhq/money-coach/internal/domain/conversation"
	"github.com/janhq/money-coach/internal/domain/message"
	"github.com/janhq/money-coach/internal/domain/normalizer"
)

// Mode selects how a turn is persisted. It is always explicit; identifiers are
// never inspected to guess it.
type Mode string

const (
	// ModePersisted turns belong to an authenticated user's stored conversation.
	ModePersisted Mode = "persisted"
	// ModeAnonymous turns keep no local history; the session id is the only continuity.
	ModeAnonymous Mode = "anonymous"
)

const (
	MaxInputLength     = 8000
	MaxSessionIDLength = 255
)

// TurnRequest is one user message to relay.
type TurnRequest struct {
	Mode     Mode
	ChatType conversation.ChatType
	Text     string

	// UserID owns the conversation in persisted mode.
	UserID uint
	// ConversationID optionally targets an owned conversation by public or
	// session id in persisted mode; ChatType is then taken from it.
	ConversationID string

	// SessionID is the caller's continuity token in anonymous mode.
	SessionID string
}

// TurnResult is what a completed turn produced.
type TurnResult struct {
	Payload normalizer.Payload
	// SessionID is the token to send with the next anonymous turn, or the
	// linked session id of a persisted conversation.
	SessionID    string
	Conversation *conversation.Conversation
	Messages     []*message.Message
}

// UpstreamRequest is what the AI service receives. SessionID is empty for a
// first exchange and never a sentinel.
type UpstreamRequest struct {
	ChatType  conversation.ChatType
	Text      string
	SessionID string
}

// UpstreamReply is the AI service answer before normalization.
type UpstreamReply struct {
	DisplayText string
	SessionID   string
	RawOutputs  map[string]any
}

// AIClient calls the external AI service. Every failure it returns is an
// ErrorTypeExternal platform error.
type AIClient interface {
	Chat(ctx context.Context, req UpstreamRequest) (*UpstreamReply, error)
}

// Transactor runs fn in one store transaction carried by the context.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TurnRecorder receives per-turn measurements.
type TurnRecorder interface {
	RecordTurn(mode Mode, chatType conversation.ChatType, outcome string, elapsed time.Duration)
}
