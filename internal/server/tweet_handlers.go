package server

import (
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateTweet handles POST /api/tweets
// @Summary Create a tweet
// @Description Creates a tweet, retweet, comment or quote and notifies followers
// @Tags tweets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateTweetInput true "Tweet"
// @Success 201 {object} object{message=string,result=models.Tweet}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tweets [post]
func (s *Server) CreateTweet(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	var req service.CreateTweetInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	tweet, err := s.tweetService.Create(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Create tweet success", "result": tweet})
}

// GetTweet handles GET /api/tweets/:tweetId
// @Summary Get a tweet
// @Tags tweets
// @Produce json
// @Param tweetId path int true "Tweet ID"
// @Success 200 {object} object{message=string,result=models.Tweet}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tweets/{tweetId} [get]
func (s *Server) GetTweet(c *fiber.Ctx) error {
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}
	tweet, err := s.tweetService.Get(c.UserContext(), viewerID(c), tweetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get tweet success", "result": tweet})
}

// GetTweetChildren handles GET /api/tweets/:tweetId/children?type=&page=&limit=
func (s *Server) GetTweetChildren(c *fiber.Ctx) error {
	tweetID, err := s.parseID(c, "tweetId")
	if err != nil {
		return nil
	}
	p, err := parsePagination(c, service.DefaultPageLimit)
	if err != nil {
		return nil
	}
	typ := models.TweetType(c.QueryInt("type", -1))

	page, err := s.tweetService.Children(c.UserContext(), viewerID(c), tweetID, typ, p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get tweet children success", "result": paged(page)})
}

// GetTimeline handles GET /api/tweets/timeline
func (s *Server) GetTimeline(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	p, err := parsePagination(c, service.DefaultPageLimit)
	if err != nil {
		return nil
	}
	page, err := s.tweetService.Timeline(c.UserContext(), userID, p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get timeline success", "result": paged(page)})
}

// ListTweets handles GET /api/tweets?type=&author_id=&page=&limit=
func (s *Server) ListTweets(c *fiber.Ctx) error {
	p, err := parsePagination(c, service.DefaultPageLimit)
	if err != nil {
		return nil
	}
	in := service.ListTweetsInput{
		AuthorID: uint(max(c.QueryInt("author_id", 0), 0)),
		Page:     p.Page,
		Limit:    p.Limit,
	}
	if c.Query("type") != "" {
		typ := models.TweetType(c.QueryInt("type", -1))
		in.Type = &typ
	}

	page, err := s.tweetService.List(c.UserContext(), viewerID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get tweets success", "result": paged(page)})
}
