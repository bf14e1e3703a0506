package models

// ChatMessage is one entry of a chat's JSONB message array.
type ChatMessage struct {
	Role      string                 `json:"role"`               // "user", "assistant", "system"
	Content   string                 `json:"content"`            // The message text
	Timestamp int64                  `json:"timestamp"`          // Unix seconds
	Hide      int                    `json:"hide"`               // 0 = show, 1 = hide
	Metadata  map[string]interface{} `json:"metadata,omitempty"` // e.g. provider, fallback
}

// Visible reports whether the message is shown to the user and used as history.
func (m ChatMessage) Visible() bool { return m.Hide == 0 }
