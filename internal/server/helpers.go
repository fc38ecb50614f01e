package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"chirp/internal/middleware"
	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/limit query parameters. Bounds are enforced by the services.
type Pagination struct {
	Page  int
	Limit int
}

// parsePagination extracts page and limit query parameters with the given default limit.
// A present but non-numeric value writes a 400 JSON response and returns errResponseWritten.
func parsePagination(c *fiber.Ctx, defaultLimit int) (Pagination, error) {
	var details []models.FieldError
	page := queryInt(c, "page", 1, &details)
	limit := queryInt(c, "limit", defaultLimit, &details)
	if len(details) > 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("Invalid pagination", details...))
		return Pagination{}, errResponseWritten
	}
	return Pagination{Page: page, Limit: limit}, nil
}

// queryInt reads an integer query parameter, falling back to def when it is absent.
func queryInt(c *fiber.Ctx, name string, def int, details *[]models.FieldError) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*details = append(*details, models.FieldError{Field: name, Message: name + " must be an integer"})
		return def
	}
	return n
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// The error message is derived from the parameter name (e.g. "tweetId" -> "Invalid tweet ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "targetUserId" -> "target user ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parseBody decodes the JSON body into dest, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// mapServiceError returns the HTTP status for a service error.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return fiber.StatusInternalServerError
}

// respondError writes err using its mapped status and logs server-side failures.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err.Error())
	}
	return models.RespondWithError(c, status, err)
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUpgradeRequired:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return models.CodeNotFound
	default:
		return models.CodeInternal
	}
}

// viewerID is the authenticated user or 0 for anonymous requests.
func viewerID(c *fiber.Ctx) uint {
	id, _ := middleware.UserIDFromLocals(c)
	return id
}

// paged wraps a page the way every list endpoint returns it.
func paged(p *models.TweetPage) fiber.Map {
	totalPages := int64(0)
	if p.Limit > 0 {
		totalPages = (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return fiber.Map{
		"tweets":      p.Tweets,
		"page":        p.Page,
		"limit":       p.Limit,
		"total":       p.Total,
		"total_pages": totalPages,
	}
}
