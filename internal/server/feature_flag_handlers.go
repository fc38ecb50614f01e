package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags reports each flag's rollout and whether it is on for the viewer.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"rollout": s.featureFlags.Rollout(),
		"enabled": s.featureFlags.Snapshot(viewerID(c)),
	})
}
