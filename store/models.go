package store

// User holds the profile claims returned by the identity provider,
// keyed by the provider's subject identifier.
type User struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type Session struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
}
