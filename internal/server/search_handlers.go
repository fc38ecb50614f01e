package server

import (
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Search handles GET /api/search
// @Summary Search tweets, media or people
// @Tags search
// @Produce json
// @Param q query string true "Query"
// @Param type query string false "tweets, media or people"
// @Param peopleFollow query int false "1 restricts results to accounts you follow"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} object{message=string,result=service.SearchResult}
// @Failure 400 {object} models.ErrorResponse
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	p, err := parsePagination(c, service.DefaultPageLimit)
	if err != nil {
		return nil
	}
	res, err := s.searchService.Search(c.UserContext(), viewerID(c), service.SearchInput{
		Query:        c.Query("q"),
		Type:         service.SearchType(c.Query("type")),
		PeopleFollow: models.PeopleFollow(c.QueryInt("peopleFollow", 0)),
		Page:         p.Page,
		Limit:        p.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Search success", "result": res})
}
