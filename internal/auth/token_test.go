package auth

import (
	"strings"
	"testing"
	"time"

	"chirp/internal/config"
	"chirp/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:         "access-secret-at-least-32-chars-long!!",
		RefreshTokenSecret:        "refresh-secret-at-least-32-chars-long!",
		EmailVerifyTokenSecret:    "verify-secret-at-least-32-chars-long!!",
		ForgotPasswordTokenSecret: "forgot-secret-at-least-32-chars-long!!",
		AccessTokenTTL:            15 * time.Minute,
		RefreshTokenTTL:           24 * time.Hour,
		EmailVerifyTokenTTL:       time.Hour,
		ForgotPasswordTokenTTL:    time.Hour,
		TokenClockSkew:            30 * time.Second,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	svc := NewTokenService(testConfig())

	token, claims, err := svc.Issue(IssueParams{Kind: models.RefreshTokenKind, UserID: 42, JTI: "jti-1", Verify: models.UserVerified})
	require.NoError(t, err)
	assert.Equal(t, "jti-1", claims.JTI())

	got, err := svc.Decode(token, models.RefreshTokenKind)
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.UserID)
	assert.Equal(t, models.RefreshTokenKind, got.TokenType)
	assert.Equal(t, models.UserVerified, got.Verify)
	assert.Equal(t, "jti-1", got.ID)
	assert.Equal(t, claims.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestIssue_GeneratesJTIWhenEmpty(t *testing.T) {
	svc := NewTokenService(testConfig())
	_, claims, err := svc.Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1})
	require.NoError(t, err)
	assert.Len(t, claims.ID, 36)
}

func TestIssue_UsesConfiguredTTL(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := NewTokenService(testConfig()).WithClock(fixedClock(now))

	_, claims, err := svc.Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), claims.ExpiresAt.Time.UTC())

	_, claims, err = svc.Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1, TTL: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), claims.ExpiresAt.Time.UTC())
}

func TestIssuePair_SharesJTI(t *testing.T) {
	svc := NewTokenService(testConfig())
	pair, err := svc.IssuePair(7, "shared", models.UserUnverified)
	require.NoError(t, err)

	access, err := svc.Decode(pair.AccessToken, models.AccessTokenKind)
	require.NoError(t, err)
	refresh, err := svc.Decode(pair.RefreshToken, models.RefreshTokenKind)
	require.NoError(t, err)
	assert.Equal(t, "shared", access.ID)
	assert.Equal(t, "shared", refresh.ID)
	assert.Equal(t, "shared", pair.RefreshClaims.ID)
}

func TestDecode_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	svc := NewTokenService(testConfig())

	token, _, err := svc.WithClock(fixedClock(issued)).Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1})
	require.NoError(t, err)

	_, err = svc.Decode(token, models.AccessTokenKind)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestDecode_IssuedInFuture(t *testing.T) {
	svc := NewTokenService(testConfig())

	token, _, err := svc.WithClock(fixedClock(time.Now().Add(10 * time.Minute))).
		Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1})
	require.NoError(t, err)

	_, err = svc.Decode(token, models.AccessTokenKind)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestDecode_WithinClockSkew(t *testing.T) {
	svc := NewTokenService(testConfig())

	token, _, err := svc.WithClock(fixedClock(time.Now().Add(10 * time.Second))).
		Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1})
	require.NoError(t, err)

	_, err = svc.Decode(token, models.AccessTokenKind)
	assert.NoError(t, err)
}

func TestDecode_WrongKindRejected(t *testing.T) {
	svc := NewTokenService(testConfig())
	token, _, err := svc.Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1})
	require.NoError(t, err)

	// different key
	_, err = svc.Decode(token, models.RefreshTokenKind)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestDecode_SameKeyWrongTypeClaim(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	svc := NewTokenService(cfg)

	token, _, err := svc.Issue(IssueParams{Kind: models.RefreshTokenKind, UserID: 1})
	require.NoError(t, err)

	_, err = svc.Decode(token, models.AccessTokenKind)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestDecode_Tampered(t *testing.T) {
	svc := NewTokenService(testConfig())
	token, _, err := svc.Issue(IssueParams{Kind: models.AccessTokenKind, UserID: 1})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = svc.Decode(tampered, models.AccessTokenKind)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.Decode("garbage", models.AccessTokenKind)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestDecode_RejectsNoneAlgorithm(t *testing.T) {
	svc := NewTokenService(testConfig())
	claims := &Claims{
		UserID:    1,
		TokenType: models.AccessTokenKind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Decode(token, models.AccessTokenKind)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssue_MissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.EmailVerifyTokenSecret = ""
	svc := NewTokenService(cfg)

	_, _, err := svc.Issue(IssueParams{Kind: models.EmailVerifyTokenKind, UserID: 1})
	assert.ErrorIs(t, err, ErrSigning)
}

func TestAsAppError(t *testing.T) {
	assert.Equal(t, models.CodeUnauthorized, AsAppError(ErrTokenExpired).Code)
	assert.Equal(t, "Token expired", AsAppError(ErrTokenExpired).Message)
	assert.Equal(t, models.CodeUnauthorized, AsAppError(ErrTokenInvalid).Code)
	assert.Equal(t, models.CodeInternal, AsAppError(ErrSigning).Code)
}
