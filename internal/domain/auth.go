package domain

import "time"

// AccessToken describes an issued bearer token.
type AccessToken struct {
	ID        string
	UserID    string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
