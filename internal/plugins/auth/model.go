// Package auth handles principals, password credentials, browser sessions,
// and the guards that protect the JSON API. Sessions live in Redis; bearer
// tokens come from the token codec and are stateless.
package auth

import (
	"strings"
	"time"
)

// User is a registered principal. The users CRUD plugin and the API read and
// write this struct directly.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	APIToken     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns "First Last", or the username when no name is set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Filter selects a single user in FindOne. Empty fields are ignored; at
// least one must be set.
type Filter struct {
	Username string
	Email    string
	APIToken string
}

// --- Service Input DTOs ---

// RegisterInput is the validated input for creating a user with a password.
type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateInput is the validated input for editing a user. An empty Password
// leaves the stored credential untouched.
type UpdateInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// --- Session ---

// Session is an authenticated browser session stored in Redis. The session
// ID is the key, and this struct is the value (JSON-encoded).
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
