// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfileImg   string    `json:"profileImg,omitempty"`
	CreatedAt    time.Time `json:"createDate"`
}

// Author is the public projection of a User embedded in posts and replies.
type Author struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	ProfileImg string `json:"profileImg,omitempty"`
}
