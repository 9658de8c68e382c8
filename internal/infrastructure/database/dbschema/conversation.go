package dbschema

import (
	"time"

	"github.com/janhq/money-coach/internal/domain/conversation"
)

type Conversation struct {
	ID                uint      `gorm:"primaryKey"`
	PublicID          string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_conversations_public_id"`
	UserID            uint      `gorm:"not null;uniqueIndex:ux_conversations_user_chat_type,priority:1"`
	ChatType          string    `gorm:"type:varchar(32);not null;uniqueIndex:ux_conversations_user_chat_type,priority:2"`
	ExternalSessionID string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_conversations_external_session_id"`
	SessionLinked     bool      `gorm:"not null;default:false"`
	Status            string    `gorm:"type:varchar(20);not null;default:'active'"`
	MessageSeq        int64     `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:                c.ID,
		PublicID:          c.PublicID,
		UserID:            c.UserID,
		ChatType:          string(c.ChatType),
		ExternalSessionID: c.ExternalSessionID,
		SessionLinked:     c.SessionLinked,
		Status:            string(c.Status),
		MessageSeq:        c.MessageCount,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:                c.ID,
		PublicID:          c.PublicID,
		UserID:            c.UserID,
		ChatType:          conversation.ChatType(c.ChatType),
		ExternalSessionID: c.ExternalSessionID,
		SessionLinked:     c.SessionLinked,
		Status:            conversation.Status(c.Status),
		MessageCount:      c.MessageSeq,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
