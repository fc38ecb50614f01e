// Package middleware provides the HTTP middleware shared by every route group.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const userIDLocal = "userID"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// SetUserID records the authenticated user in Fiber locals and the request context.
func SetUserID(c *fiber.Ctx, userID uint) {
	c.Locals(userIDLocal, userID)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
}

// UserIDFromLocals returns the authenticated user, if any.
func UserIDFromLocals(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(userIDLocal).(uint)
	return userID, ok && userID != 0
}
