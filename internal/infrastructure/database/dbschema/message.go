package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/janhq/money-coach/internal/domain/message"
)

type Message struct {
	ID             uint              `gorm:"primaryKey"`
	PublicID       string            `gorm:"type:varchar(64);not null;uniqueIndex:ux_messages_public_id"`
	ConversationID uint              `gorm:"not null;uniqueIndex:ux_messages_conversation_sequence,priority:1"`
	Sequence       int64             `gorm:"not null;uniqueIndex:ux_messages_conversation_sequence,priority:2"`
	Role           string            `gorm:"type:varchar(16);not null"`
	Content        string            `gorm:"type:text;not null"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"not null"`

	Conversation *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func NewSchemaMessage(m *message.Message) *Message {
	var metadata datatypes.JSONMap
	if len(m.Metadata) > 0 {
		metadata = datatypes.JSONMap(m.Metadata)
	}
	return &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Sequence:       m.Sequence,
		Role:           string(m.Role),
		Content:        m.Content,
		Metadata:       metadata,
		CreatedAt:      m.CreatedAt,
	}
}

func (m *Message) EtoD() *message.Message {
	return &message.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Sequence:       m.Sequence,
		Role:           message.Role(m.Role),
		Content:        m.Content,
		Metadata:       map[string]any(m.Metadata),
		CreatedAt:      m.CreatedAt,
	}
}

// All lists every model in dependency order, for schema creation in tests.
func All() []any {
	return []any{&User{}, &Conversation{}, &Message{}}
}
