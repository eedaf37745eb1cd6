package models

import "time"

// Expense represents a dated expense recorded by a user.
// Date holds the canonical MM-DD-YYYY form; use ParseDate to get its fields.
type Expense struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	UserID      int64   `json:"user_id"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	Token        string
	User         *User
	LastActivity time.Time
	ExpiresAt    time.Time
}
