package server

import (
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

type tweetRefRequest struct {
	TweetID uint `json:"tweet_id"`
}

func parseTweetRef(c *fiber.Ctx) (uint, error) {
	var req tweetRefRequest
	if err := parseBody(c, &req); err != nil {
		return 0, err
	}
	if req.TweetID == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("tweet_id is required"))
		return 0, errResponseWritten
	}
	return req.TweetID, nil
}

// Like handles POST /api/likes
// @Summary Like a tweet
// @Tags likes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{tweet_id=int} true "Tweet"
// @Success 200 {object} object{message=string,result=models.Like}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /likes [post]
func (s *Server) Like(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	tweetID, err := parseTweetRef(c)
	if err != nil {
		return nil
	}
	like, err := s.engagementService.Like(c.UserContext(), userID, tweetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Like success", "result": like})
}

// Unlike handles DELETE /api/likes/tweets/:tweetId
func (s *Server) Unlike(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}
	if err := s.engagementService.Unlike(c.UserContext(), userID, tweetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unlike success"})
}

// Bookmark handles POST /api/bookmarks
func (s *Server) Bookmark(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	tweetID, err := parseTweetRef(c)
	if err != nil {
		return nil
	}
	bookmark, err := s.engagementService.Bookmark(c.UserContext(), userID, tweetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Bookmark success", "result": bookmark})
}

// Unbookmark handles DELETE /api/bookmarks/tweets/:tweetId
func (s *Server) Unbookmark(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}
	if err := s.engagementService.Unbookmark(c.UserContext(), userID, tweetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unbookmark success"})
}

// ListBookmarks handles GET /api/bookmarks
func (s *Server) ListBookmarks(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	p, err := parsePagination(c, service.DefaultPageLimit)
	if err != nil {
		return nil
	}
	page, err := s.tweetService.Bookmarks(c.UserContext(), userID, p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get bookmarks success", "result": paged(page)})
}
