package message

import (
	"context"
	"time"
)

// Role is who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// MaxContentLength bounds a single message, in characters.
const MaxContentLength = 32000

// Message is one turn. Sequence orders messages within a conversation and is
// assigned at append time, so rows written in one transaction keep their order.
type Message struct {
	ID             uint
	PublicID       string
	ConversationID uint
	Sequence       int64
	Role           Role
	Content        string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Draft is a message about to be appended.
type Draft struct {
	Role     Role
	Content  string
	Metadata map[string]any
}

// Order is the listing direction by sequence.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ListOptions paginates a conversation's history.
type ListOptions struct {
	Limit  int
	Offset int
	Order  Order
}

// Repository persists messages.
type Repository interface {
	// Append writes drafts in order as one transaction, reserving sequence
	// numbers and bumping the conversation's updated_at. It fails with
	// ErrorTypeNotFound when the conversation does not exist.
	Append(ctx context.Context, conversationID uint, drafts []*Message) ([]*Message, error)
	List(ctx context.Context, conversationID uint, opts ListOptions) ([]*Message, int64, error)
	// FindOwned returns (nil, nil) unless the message exists and its conversation belongs to userID.
	FindOwned(ctx context.Context, publicID string, userID uint) (*Message, error)
	// DeleteOwned reports whether a message owned by userID was removed.
	DeleteOwned(ctx context.Context, publicID string, userID uint) (bool, error)
}
