package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chirp/internal/auth"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/validation"

	"github.com/google/uuid"
)

const errInvalidCredentials = "Invalid credentials"

// AuthService owns registration, login and the refresh-session lifecycle.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *auth.TokenService
}

type RegisterInput struct {
	Name            string    `json:"name" validate:"required,min=1,max=100"`
	Email           string    `json:"email" validate:"required,email"`
	Password        string    `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string    `json:"confirm_password" validate:"required,eqfield=Password"`
	DateOfBirth     time.Time `json:"date_of_birth" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordInput struct {
	Token           string `json:"forgot_password_token" validate:"required"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ChangePasswordInput struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	User         models.UserSummary `json:"user"`
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokens: tokens}
}

func authEvent(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	observability.AuthEvents.WithLabelValues(op, outcome).Inc()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	defer func() { authEvent("register", err) }()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:             in.Name,
		Email:            in.Email,
		Password:         hash,
		BirthDate:        in.DateOfBirth,
		Verify:           models.UserUnverified,
		EmailVerifyToken: uuid.NewString(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logEmailToken(ctx, user, models.EmailVerifyTokenKind, user.EmailVerifyToken)

	return s.openSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (res *AuthResult, err error) {
	defer func() { authEvent("login", err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(errInvalidCredentials)
	}
	ok, err := auth.CheckPassword(user.Password, in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, models.NewUnauthorizedError(errInvalidCredentials)
	}
	return s.openSession(ctx, user)
}

// openSession issues a pair under a fresh jti and records the refresh session.
func (s *AuthService) openSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.issueAndStore(ctx, user.ID, user.Verify)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user.Summary()}, nil
}

func (s *AuthService) issueAndStore(ctx context.Context, userID uint, verify models.UserVerifyStatus) (*auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID, auth.NewJTI(), verify)
	if err != nil {
		return nil, auth.AsAppError(err)
	}
	session := &models.RefreshToken{
		UserID:    userID,
		JTI:       pair.RefreshClaims.JTI(),
		IssuedAt:  pair.RefreshClaims.IssuedAt.Time,
		ExpiresAt: pair.RefreshClaims.ExpiresAt.Time,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		middleware.Logger.ErrorContext(ctx, "session insert failed after token issue",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		return nil, err
	}
	return pair, nil
}

// Refresh rotates a refresh token. The old session is deleted before anything new is
// issued, so a replayed token finds nothing to delete.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *auth.TokenPair, err error) {
	defer func() { authEvent("refresh", err) }()

	claims, err := s.tokens.Decode(refreshToken, models.RefreshTokenKind)
	if err != nil {
		return nil, auth.AsAppError(err)
	}

	deleted, err := s.sessions.DeleteByJTI(ctx, claims.JTI())
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, models.NewUnauthorizedError("Refresh token used or does not exist")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Refresh token used or does not exist")
		}
		return nil, err
	}
	return s.issueAndStore(ctx, user.ID, user.Verify)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { authEvent("logout", err) }()

	claims, err := s.tokens.Decode(refreshToken, models.RefreshTokenKind)
	if err != nil {
		return auth.AsAppError(err)
	}
	deleted, err := s.sessions.DeleteByJTI(ctx, claims.JTI())
	if err != nil {
		return err
	}
	if deleted == 0 {
		return models.NewUnauthorizedError("Session not found")
	}
	return nil
}

// Authenticate decodes an access token and requires its session to still be live.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.tokens.Decode(accessToken, models.AccessTokenKind)
	if err != nil {
		return nil, auth.AsAppError(err)
	}
	live, err := s.sessions.IsLive(ctx, claims.JTI())
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, models.NewUnauthorizedError("Session revoked")
	}
	return claims, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Decode(token, models.EmailVerifyTokenKind)
	if err != nil {
		return auth.AsAppError(err)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.EmailVerifyToken != claims.JTI() {
		return models.NewValidationError("Invalid email verify token")
	}
	if user.Verify == models.UserVerified {
		return models.NewValidationError("Email already verified")
	}
	return s.users.UpdateFields(ctx, user.ID, map[string]any{
		"verify":             models.UserVerified,
		"email_verify_token": "",
	})
}

// ResendVerifyEmail rotates the stored verify token. It returns a message for the caller.
func (s *AuthService) ResendVerifyEmail(ctx context.Context, userID uint) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Verify == models.UserVerified {
		return "Email already verified", nil
	}

	fresh := uuid.NewString()
	if err := s.users.UpdateFields(ctx, user.ID, map[string]any{"email_verify_token": fresh}); err != nil {
		return "", err
	}
	user.EmailVerifyToken = fresh
	s.logEmailToken(ctx, user, models.EmailVerifyTokenKind, fresh)
	return "Resend verify email success", nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundMessage("User not found")
	}

	fresh := uuid.NewString()
	if err := s.users.UpdateFields(ctx, user.ID, map[string]any{"forgot_password_token": fresh}); err != nil {
		return err
	}
	s.logEmailToken(ctx, user, models.ForgotPasswordTokenKind, fresh)
	return nil
}

// VerifyForgotPassword checks a reset token against the one stored for its user.
func (s *AuthService) VerifyForgotPassword(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Decode(token, models.ForgotPasswordTokenKind)
	if err != nil {
		return nil, auth.AsAppError(err)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.ForgotPasswordToken == "" || user.ForgotPasswordToken != claims.JTI() {
		return nil, models.NewValidationError("Invalid forgot password token")
	}
	return user, nil
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := s.VerifyForgotPassword(ctx, in.Token)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.UpdateFields(ctx, user.ID, map[string]any{
		"password":              hash,
		"forgot_password_token": "",
	}); err != nil {
		return err
	}
	if _, err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		middleware.Logger.ErrorContext(ctx, "session cleanup failed after password reset",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(user.Password, in.OldPassword)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewUnprocessableError("Old password is incorrect")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.users.UpdateFields(ctx, user.ID, map[string]any{"password": hash})
}

// logEmailToken stands in for mail delivery.
func (s *AuthService) logEmailToken(ctx context.Context, user *models.User, kind models.TokenType, jti string) {
	token, _, err := s.tokens.Issue(auth.IssueParams{Kind: kind, UserID: user.ID, JTI: jti, Verify: user.Verify})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to sign email token",
			slog.String("kind", kind.String()), slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
		return
	}
	middleware.Logger.DebugContext(ctx, "email token issued",
		slog.String("kind", kind.String()), slog.String("email", user.Email), slog.String("token", token))
}
