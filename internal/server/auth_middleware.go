package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"chirp/internal/cache"
	"chirp/internal/middleware"
	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const errInvalidTicket = "Invalid or expired WebSocket ticket"

// AuthRequired returns the authentication middleware. Websocket routes accept a
// single-use ticket instead of a bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/ws") && c.Method() == fiber.MethodGet {
			ticket := c.Query("ticket")
			if ticket == "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("WebSocket ticket required"))
			}
			userID, err := s.consumeWSTicket(c.UserContext(), ticket)
			if err != nil {
				return respondError(c, err)
			}
			middleware.SetUserID(c, userID)
			return c.Next()
		}

		token, ok := middleware.BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Access token is required"))
		}
		claims, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return respondError(c, err)
		}
		middleware.SetUserID(c, claims.UserID)
		return c.Next()
	}
}

// OptionalAuth resolves the viewer when a valid access token is present and
// otherwise continues anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := middleware.BearerToken(c)
		if !ok {
			return c.Next()
		}
		if claims, err := s.authService.Authenticate(c.UserContext(), token); err == nil {
			middleware.SetUserID(c, claims.UserID)
		}
		return c.Next()
	}
}

// VerifiedRequired rejects unverified and banned accounts. Must run after AuthRequired.
func (s *Server) VerifiedRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserIDFromLocals(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Access token is required"))
		}

		user, err := s.userService.GetMe(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err)
		}
		switch user.Verify {
		case models.UserUnverified:
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewForbiddenError("User not verified"))
		case models.UserBanned:
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewForbiddenError("User is banned"))
		}
		return c.Next()
	}
}

// consumeWSTicket redeems a ticket exactly once.
func (s *Server) consumeWSTicket(ctx context.Context, ticket string) (uint, error) {
	if s.redis == nil {
		return 0, models.NewUnauthorizedError(errInvalidTicket)
	}
	raw, err := s.redis.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "ws ticket lookup failed", "error", err.Error())
		}
		return 0, models.NewUnauthorizedError(errInvalidTicket)
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return 0, models.NewUnauthorizedError(errInvalidTicket)
	}
	return uint(userID), nil
}
