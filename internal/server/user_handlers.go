package server

import (
	"strings"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/users/me
// @Summary Get my profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string,result=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	user, err := s.userService.GetMe(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get my profile success", "result": user})
}

// UpdateMe handles PATCH /api/users/me
// @Summary Update my profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateMeInput true "Fields to change"
// @Success 200 {object} object{message=string,result=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [patch]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	var req service.UpdateMeInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateMe(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Update my profile success", "result": user})
}

// GetProfile handles GET /api/users/:username
func (s *Server) GetProfile(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	profile, err := s.userService.GetProfile(c.UserContext(), viewerID(c), username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get profile success", "result": profile})
}

// Follow handles POST /api/users/follow
// @Summary Follow a user
// @Description Private accounts receive a follow request instead
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{followed_user_id=int} true "Target"
// @Success 200 {object} object{message=string,result=object{status=int}}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	var req struct {
		FollowedUserID uint `json:"followed_user_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.FollowedUserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("followed_user_id is required"))
	}

	status, err := s.followService.Follow(c.UserContext(), userID, req.FollowedUserID)
	if err != nil {
		return respondError(c, err)
	}
	msg := "Follow success"
	if status == models.FollowStatusRequested {
		msg = "Follow request sent"
	}
	return c.JSON(fiber.Map{"message": msg, "result": fiber.Map{"status": status}})
}

// Unfollow handles DELETE /api/users/follow/:targetUserId
func (s *Server) Unfollow(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	targetID, err := s.parseID(c, "targetUserId")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.UserContext(), userID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unfollow success"})
}

// ListCircle handles GET /api/users/circle
func (s *Server) ListCircle(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	members, err := s.userService.ListCircle(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Get circle success", "result": members})
}

// AddCircleMember handles POST /api/users/circle
func (s *Server) AddCircleMember(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	var req struct {
		MemberID uint `json:"member_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.MemberID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("member_id is required"))
	}
	if err := s.userService.AddCircleMember(c.UserContext(), userID, req.MemberID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Add circle member success"})
}

// RemoveCircleMember handles DELETE /api/users/circle/:memberId
func (s *Server) RemoveCircleMember(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFromLocals(c)
	memberID, err := s.parseID(c, "memberId")
	if err != nil {
		return nil
	}
	if err := s.userService.RemoveCircleMember(c.UserContext(), userID, memberID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Remove circle member success"})
}
