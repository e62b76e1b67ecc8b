package auth

import "time"

// User represents an account able to sign in at the counter.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	DisplayName  string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
