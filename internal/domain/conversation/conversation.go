package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ChatType is the topic a conversation is scoped to.
type ChatType string

const (
	ChatTypeIncome   ChatType = "INCOME"
	ChatTypeDebt     ChatType = "DEBT"
	ChatTypeExpenses ChatType = "EXPENSES"
	ChatTypeSavings  ChatType = "SAVINGS"
	ChatTypeOpenChat ChatType = "OPEN_CHAT"
)

var chatTypes = []ChatType{ChatTypeIncome, ChatTypeDebt, ChatTypeExpenses, ChatTypeSavings, ChatTypeOpenChat}

// ParseChatType accepts any casing and "-" in place of "_".
func ParseChatType(raw string) (ChatType, bool) {
	candidate := ChatType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(raw)), "-", "_"))
	for _, ct := range chatTypes {
		if ct == candidate {
			return ct, true
		}
	}
	return "", false
}

// Status is the soft lifecycle of a conversation; rows are never hard-deleted.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// State is the session-link phase of a conversation.
type State string

const (
	// StateCreated: not persisted yet.
	StateCreated State = "created"
	// StateAwaitingFirstExchange: persisted with a sentinel session id.
	StateAwaitingFirstExchange State = "awaiting_first_exchange"
	// StateLinked: holds the session id issued by the AI service. Terminal.
	StateLinked State = "linked"
)

// Conversation is one topic-scoped exchange between a user and the AI service.
// At most one exists per (UserID, ChatType).
type Conversation struct {
	ID                uint
	PublicID          string
	UserID            uint
	ChatType          ChatType
	ExternalSessionID string
	SessionLinked     bool
	Status            Status
	MessageCount      int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c *Conversation) State() State {
	switch {
	case c.ID == 0:
		return StateCreated
	case !c.SessionLinked:
		return StateAwaitingFirstExchange
	default:
		return StateLinked
	}
}

// UpstreamSessionID returns the id to send to the AI service, or "" while the
// conversation still holds a sentinel.
func (c *Conversation) UpstreamSessionID() string {
	if c.State() != StateLinked {
		return ""
	}
	return c.ExternalSessionID
}

// SentinelSessionID builds the placeholder session id stored before the first exchange.
func SentinelSessionID(userID uint, chatType ChatType, now time.Time) string {
	return fmt.Sprintf("%d-%s-%d", userID, chatType, now.UnixMilli())
}

// Pagination bounds a listing.
type Pagination struct {
	Limit  int
	Offset int
}

// Repository persists conversations. Find methods return (nil, nil) when absent.
type Repository interface {
	// Create fails with ErrorTypeConflict when a unique key is already taken.
	Create(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	FindByUserAndType(ctx context.Context, userID uint, chatType ChatType) (*Conversation, error)
	// FindByPublicOrExternalID matches either the public id or the external session id.
	FindByPublicOrExternalID(ctx context.Context, key string) (*Conversation, error)
	ListByUser(ctx context.Context, userID uint, pagination Pagination) ([]*Conversation, int64, error)
	// Touch fails with ErrorTypeNotFound when the row does not exist.
	Touch(ctx context.Context, id uint) error
	// LinkSession applies only while the conversation is unlinked and reports whether it did.
	LinkSession(ctx context.Context, id uint, sessionID string) (bool, error)
	// UpdateStatus fails with ErrorTypeNotFound unless the row exists and belongs to userID.
	UpdateStatus(ctx context.Context, id uint, userID uint, status Status) error
}
