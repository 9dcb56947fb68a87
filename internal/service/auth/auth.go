package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskward/internal/apperrors"
	"github.com/nkiryanov/taskward/internal/models"
	"github.com/nkiryanov/taskward/internal/repository"
	"github.com/nkiryanov/taskward/internal/service/auth/tokencodec"
)

const authScheme = "Bearer"

type Config struct {
	// Bcrypt cost factor used when hashing passwords on registration
	// Zero means the library default
	BcryptCost int

	// Hasher to use during registration or login
	// If not set the bcrypt hasher with the configured cost is used
	Hasher PasswordHasher
}

// Result of register or login: the user and their fresh token pair
type AuthResult struct {
	User models.User
	Pair models.TokenPair
}

// AuthService orchestrates the user's authentication lifecycle:
// register, login, access token refresh and logout
type AuthService struct {
	codec *tokencodec.Codec

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repositories to access long term data
	storage repository.Storage
}

func NewService(cfg Config, codec *tokencodec.Codec, storage repository.Storage) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{Cost: cfg.BcryptCost}
	}

	if codec == nil || storage == nil {
		return nil, errors.New("codec and storage must not be nil")
	}

	return &AuthService{
		codec:   codec,
		hasher:  hasher,
		storage: storage,
	}, nil
}

// NormalizeEmail lower-cases and trims the email so lookups never depend on
// how the client typed it
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, email string, password string) (AuthResult, error) {
	email = NormalizeEmail(email)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, email, hash)
	if err != nil {
		return AuthResult{}, err
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return AuthResult{User: user, Pair: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Same error as on password mismatch, nothing leaks which check failed
		return AuthResult{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return AuthResult{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return AuthResult{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return AuthResult{User: user, Pair: pair}, nil
}

// issuePair signs a fresh token pair and rotates the stored refresh token:
// all previous records of the user are deleted and the new one saved inside
// one transaction, so concurrent logins can't leave two live tokens around
func (s *AuthService) issuePair(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	access, err := s.codec.SignAccess(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.codec.SignRefresh(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		if _, err := st.Refresh().DeleteForUser(ctx, userID); err != nil {
			return err
		}

		_, err := st.Refresh().Save(ctx, models.RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			Token:     refresh.Value,
			CreatedAt: time.Now().Truncate(time.Second),
			ExpiresAt: s.codec.RefreshExpiresAt(),
		})
		return err
	})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token
// The refresh token itself is NOT rotated: the same string is returned and
// stays valid until it expires or the next login/logout
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	userID, err := s.codec.VerifyRefresh(refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	record, err := s.storage.Refresh().Get(ctx, refresh)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return models.TokenPair{}, apperrors.ErrTokenRevoked
	case err != nil:
		return models.TokenPair{}, err
	}

	// A signature valid token whose stored owner differs was rotated out
	// under this user id and re-issued to someone else. Treat as revoked
	if record.UserID != userID {
		return models.TokenPair{}, apperrors.ErrTokenRevoked
	}

	// The stored window may be configured tighter than the embedded claim,
	// so the record expiry is checked on its own. Expired records are removed
	if record.ExpiresAt.Before(time.Now()) {
		_ = s.storage.Refresh().DeleteByToken(ctx, refresh)
		return models.TokenPair{}, apperrors.ErrTokenExpired
	}

	access, err := s.codec.SignAccess(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: record.ExpiresAt},
	}, nil
}

// Logout deletes the stored refresh token record
// Idempotent and silent: nothing leaks about whether the token ever existed
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.storage.Refresh().DeleteByToken(ctx, refresh)
}

// Authenticate resolves the user behind the request's Bearer access token
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != authScheme {
		return models.User{}, fmt.Errorf("%w: missing bearer token", apperrors.ErrTokenInvalid)
	}

	userID, err := s.codec.VerifyAccess(strings.TrimSpace(token))
	if err != nil {
		return models.User{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: unknown subject", apperrors.ErrTokenInvalid)
	}

	return user, nil
}
