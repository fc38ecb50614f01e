package auth

import (
	"errors"
	"fmt"
	"time"

	"chirp/internal/config"
	"chirp/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrSigning          = errors.New("token signing failed")
)

// Claims is the payload carried by every token kind.
type Claims struct {
	UserID    uint                    `json:"userId"`
	TokenType models.TokenType        `json:"token_type"`
	Verify    models.UserVerifyStatus `json:"verify"`
	jwt.RegisteredClaims
}

// JTI returns the session identifier.
func (c *Claims) JTI() string {
	return c.ID
}

// IssueParams describes one token to sign. A zero TTL uses the configured lifetime for Kind.
type IssueParams struct {
	Kind   models.TokenType
	UserID uint
	JTI    string
	Verify models.UserVerifyStatus
	TTL    time.Duration
}

// TokenPair is the access/refresh pair returned by login, register and refresh.
type TokenPair struct {
	AccessToken   string  `json:"access_token"`
	RefreshToken  string  `json:"refresh_token"`
	RefreshClaims *Claims `json:"-"`
}

type keySpec struct {
	secret []byte
	ttl    time.Duration
}

// TokenService signs and verifies HS256 tokens with one key per token kind.
type TokenService struct {
	keys map[models.TokenType]keySpec
	skew time.Duration
	now  func() time.Time
}

// NewTokenService builds a service from the configured secrets and lifetimes.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		keys: map[models.TokenType]keySpec{
			models.AccessTokenKind:         {secret: []byte(cfg.AccessTokenSecret), ttl: cfg.AccessTokenTTL},
			models.RefreshTokenKind:        {secret: []byte(cfg.RefreshTokenSecret), ttl: cfg.RefreshTokenTTL},
			models.EmailVerifyTokenKind:    {secret: []byte(cfg.EmailVerifyTokenSecret), ttl: cfg.EmailVerifyTokenTTL},
			models.ForgotPasswordTokenKind: {secret: []byte(cfg.ForgotPasswordTokenSecret), ttl: cfg.ForgotPasswordTokenTTL},
		},
		skew: cfg.TokenClockSkew,
		now:  time.Now,
	}
}

// WithClock returns a copy of s that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *s
	clone.now = now
	return &clone
}

// NewJTI mints a fresh session identifier.
func NewJTI() string {
	return uuid.NewString()
}

// Issue signs a token for p.
func (s *TokenService) Issue(p IssueParams) (string, *Claims, error) {
	spec, ok := s.keys[p.Kind]
	if !ok || len(spec.secret) == 0 {
		return "", nil, fmt.Errorf("%w: no key for %s tokens", ErrSigning, p.Kind)
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = spec.ttl
	}
	jti := p.JTI
	if jti == "" {
		jti = NewJTI()
	}

	now := s.now().UTC().Truncate(time.Second)
	claims := &Claims{
		UserID:    p.UserID,
		TokenType: p.Kind,
		Verify:    p.Verify,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(spec.secret)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, claims, nil
}

// IssuePair signs an access and a refresh token that share jti.
func (s *TokenService) IssuePair(userID uint, jti string, verify models.UserVerifyStatus) (*TokenPair, error) {
	access, _, err := s.Issue(IssueParams{Kind: models.AccessTokenKind, UserID: userID, JTI: jti, Verify: verify})
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := s.Issue(IssueParams{Kind: models.RefreshTokenKind, UserID: userID, JTI: jti, Verify: verify})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, RefreshClaims: refreshClaims}, nil
}

// Decode verifies token against the key for kind and returns its claims.
func (s *TokenService) Decode(token string, kind models.TokenType) (*Claims, error) {
	spec, ok := s.keys[kind]
	if !ok {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return spec.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.skew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}
	if !parsed.Valid || claims.TokenType != kind || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// AsAppError converts a token error into the Unauthorized response error.
func AsAppError(err error) *models.AppError {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return models.WrapUnauthorized("Token expired", err)
	case errors.Is(err, ErrTokenNotYetValid):
		return models.WrapUnauthorized("Token not yet valid", err)
	case errors.Is(err, ErrSigning):
		return models.NewInternalError(err)
	default:
		return models.WrapUnauthorized("Invalid token", err)
	}
}
