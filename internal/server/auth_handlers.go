package server

import (
	"campusrent/internal/models"
	"campusrent/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /register
// @Summary Register
// @Description Create a user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /login
// @Summary Login
// @Description Verify credentials and issue a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} object{user_id=int,token=string,token_type=string,expires_at=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.userService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id":    result.User.ID,
		"token":      result.Token,
		"token_type": "Bearer",
		"expires_at": result.ExpiresAt,
	})
}

// Logout handles POST /logout
// @Summary Logout
// @Description Revoke the bearer token used for this request
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{revoked=bool}
// @Failure 401 {object} models.ErrorResponse
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := currentClaims(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Bearer token required"))
	}

	revoked, err := s.userService.Logout(c.UserContext(), claims)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"revoked": revoked})
}
