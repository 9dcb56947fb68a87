package models

import (
	"time"

	"github.com/google/uuid"
)

// Server side record of an issued refresh token
// ExpiresAt is tracked separately from the token's own exp claim, so the
// stored window may be configured tighter than the embedded one
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by AuthService on register, login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
