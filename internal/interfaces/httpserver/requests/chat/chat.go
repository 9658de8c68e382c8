package chatrequests

// ChatRequest is one authenticated turn.
type ChatRequest struct {
	Text string `json:"text" binding:"required"`
}

// PublicChatRequest is one anonymous turn. SessionID is the token returned by
// the previous turn, absent on the first.
type PublicChatRequest struct {
	Text      string `json:"text" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}
