package apperrors

import (
	"errors"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token failed signature, expiry, type or subject checks
	ErrTokenInvalid = errors.New("token is invalid")
	// Token verifies fine but has no stored record anymore (rotated out or logged out)
	ErrTokenRevoked = errors.New("refresh token revoked")
	// Stored record outlived its persisted expiry
	ErrTokenExpired         = errors.New("refresh token expired")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	ErrTaskNotFound     = errors.New("task not found")
	ErrTitleRequired    = errors.New("task title is required")
	ErrTaskAccessDenied = errors.New("access to task denied")
	ErrNoFieldsToUpdate = errors.New("no fields provided for update")
)
