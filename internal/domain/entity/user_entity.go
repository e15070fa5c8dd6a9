package entity

import "time"

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile carries the display name and authorization role for a user.
// Exactly one profile row exists per user; the role drives the admin gate.
type Profile struct {
	UserID    string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
