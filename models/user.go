package models

import "time"

// MaxNameLength and MaxEmailLength match the users table columns, in characters.
const (
	MaxNameLength  = 255
	MaxEmailLength = 255
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the body of POST /usuarios.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginResult is returned in the envelope extra field after a successful login.
type LoginResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
