// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account that can spend credits on generation requests.
//
// The username is the primary key: it is the subject of every JWT we issue
// and the only identity the rest of the system sees. GitHubID is zero for
// accounts created with a password, and PasswordHash is empty for accounts
// that only ever signed in through GitHub.
type User struct {
	ID           string    `json:"id"`      // username
	Credits      int       `json:"credits"` // never negative
	GitHubID     int64     `json:"githubId,omitempty"`
	Email        string    `json:"email,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
