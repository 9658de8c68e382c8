package messagerequests

// AppendMessagesRequest writes messages to a conversation in the given order.
type AppendMessagesRequest struct {
	Messages []MessageInput `json:"messages" binding:"required,min=1,max=20,dive"`
}

type MessageInput struct {
	Role     string         `json:"role" binding:"required"`
	Content  string         `json:"content" binding:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
