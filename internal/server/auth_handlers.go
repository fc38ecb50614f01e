package server

import (
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles POST /api/users/register
// @Summary Register
// @Description Create an account and open a session
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} object{message=string,result=service.AuthResult}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Register success",
		"result":  res,
	})
}

// Login handles POST /api/users/login
// @Summary Login
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} object{message=string,result=service.AuthResult}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Login success",
		"result":  res,
	})
}

// Logout handles POST /api/users/logout
// @Summary Logout
// @Description Revoke the session behind a refresh token
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{refresh_token=string} true "Refresh token"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	var req refreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.authService.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logout success"})
}

// RefreshToken handles POST /api/users/refresh-token
// @Summary Rotate a refresh token
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{refresh_token=string} true "Refresh token"
// @Success 200 {object} object{message=string,result=auth.TokenPair}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/refresh-token [post]
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req refreshTokenRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	pair, err := s.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Refresh token success",
		"result":  pair,
	})
}

// VerifyEmail handles POST /api/users/verify-email
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"email_verify_token"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email verify token is required"))
	}
	if err := s.authService.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Email verify success"})
}

// ResendVerifyEmail handles POST /api/users/resend-verify-email
func (s *Server) ResendVerifyEmail(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	msg, err := s.authService.ResendVerifyEmail(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

// ForgotPassword handles POST /api/users/forgot-password
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}
	if err := s.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Check email to reset password"})
}

// VerifyForgotPassword handles POST /api/users/verify-forgot-password
func (s *Server) VerifyForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"forgot_password_token"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Forgot password token is required"))
	}
	if _, err := s.authService.VerifyForgotPassword(c.UserContext(), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Verify forgot password success"})
}

// ResetPassword handles POST /api/users/password-reset
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req service.ResetPasswordInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.authService.ResetPassword(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reset password success"})
}

// ChangePassword handles PUT /api/users/change-password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	var req service.ChangePasswordInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.authService.ChangePassword(c.UserContext(), userID, req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Change password success"})
}
