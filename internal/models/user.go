// Package models holds the records exchanged between the authenticator and
// the persistence layer.
package models

import "time"

// User is a stored account. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Attributes   map[string]string
	CreatedAt    time.Time
}

// NewUser is the sign-up payload handed to the user-creation callback.
// Attributes carries any extra profile fields the caller wants to store.
type NewUser struct {
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
