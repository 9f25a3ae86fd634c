package notify

import "time"

// Notification is one feed entry, ordered by CreatedAt descending.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Type      string    `json:"type,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// TopicFor derives the per-identity push topic for notification changes.
func TopicFor(identityID string) string {
	return "notifications:" + identityID
}
