package conversationrequests

// CreateConversationRequest opens the caller's conversation for a chat type.
// It returns the existing one when present.
type CreateConversationRequest struct {
	ChatType string `json:"chat_type" binding:"required"`
}
