package tokencodec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/taskward/internal/apperrors"
	"github.com/nkiryanov/taskward/internal/models"
)

// Embedded token category, checked on verify so an access token can not be
// replayed as a refresh token or vice versa
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const (
	defaultSigningMethod = "HS256"
	defaultAccessTTL     = "15m"
	defaultRefreshTTL    = "7d"
)

type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// Codec config with sensible defaults
type Config struct {
	// Secrets to sign access and refresh tokens
	// Both required to be set, and should differ from each other
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes as '<integer><unit>' strings
	// where unit is one of s, m, h, d. If not set then default is used
	AccessTTL  string
	RefreshTTL string
}

// Codec signs and verifies the two bearer token categories
// Both share one signing method but use distinct secrets and lifetimes
type Codec struct {
	accessKey  []byte
	refreshKey []byte

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultTTL := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultTTL(&cfg.AccessTTL, defaultAccessTTL)
	setDefaultTTL(&cfg.RefreshTTL, defaultRefreshTTL)

	accessTTL, err := ParseDuration(cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("access token lifetime: %w", err)
	}
	refreshTTL, err := ParseDuration(cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("refresh token lifetime: %w", err)
	}

	return &Codec{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// SignAccess issues a short lived access token for the user
func (c *Codec) SignAccess(userID uuid.UUID) (models.IssuedToken, error) {
	return c.sign(userID, TokenTypeAccess, c.accessKey, c.accessTTL)
}

// SignRefresh issues a refresh token for the user
func (c *Codec) SignRefresh(userID uuid.UUID) (models.IssuedToken, error) {
	return c.sign(userID, TokenTypeRefresh, c.refreshKey, c.refreshTTL)
}

func (c *Codec) sign(userID uuid.UUID, tokenType string, key []byte, ttl time.Duration) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		c.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   userID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			TokenType: tokenType,
		},
	)

	signed, err := token.SignedString(key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", tokenType, err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// VerifyAccess validates an access token and returns its subject
func (c *Codec) VerifyAccess(token string) (uuid.UUID, error) {
	return c.verify(token, TokenTypeAccess, c.accessKey)
}

// VerifyRefresh validates a refresh token and returns its subject
func (c *Codec) VerifyRefresh(token string) (uuid.UUID, error) {
	return c.verify(token, TokenTypeRefresh, c.refreshKey)
}

func (c *Codec) verify(token string, tokenType string, key []byte) (uuid.UUID, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	// The signature alone does not prove the category: a token signed with
	// the right key but the wrong type claim is still a forgery here
	if claims.TokenType != tokenType || claims.Subject == "" {
		return uuid.Nil, fmt.Errorf("%w: expected %s token", apperrors.ErrTokenInvalid, tokenType)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", apperrors.ErrTokenInvalid)
	}

	return userID, nil
}

// RefreshExpiresAt computes the expiry instant for the persisted refresh
// token record. Kept separate from the token's own exp claim so the stored
// window never depends on anything client controlled
func (c *Codec) RefreshExpiresAt() time.Time {
	return time.Now().Truncate(time.Second).Add(c.refreshTTL)
}

var durationRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseDuration parses lifetimes in '<integer><unit>' form, unit in s, m, h, d
// Called once at construction: a malformed value is a startup error, never a
// per-request one
func ParseDuration(value string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q, use number + s|m|h|d", value)
	}

	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}

	switch m[2] {
	case "s":
		return time.Duration(amount) * time.Second, nil
	case "m":
		return time.Duration(amount) * time.Minute, nil
	case "h":
		return time.Duration(amount) * time.Hour, nil
	default:
		return time.Duration(amount) * 24 * time.Hour, nil
	}
}
