package domain

import "time"

// IssuedToken describes a signed access token handed to a client.
type IssuedToken struct {
	ID        string
	UserID    string
	Role      UserRole
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
