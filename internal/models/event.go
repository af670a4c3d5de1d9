package models

// UserRegistered is published after an account is created.
type UserRegistered struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"` // Unix seconds
}
