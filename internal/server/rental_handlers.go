package server

import (
	"context"

	"campusrent/internal/models"
	"campusrent/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RequestRental handles POST /rentals/request
// @Summary Request a rental
// @Tags rentals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rentee_id query int false "Rentee (legacy identity)"
// @Param request body service.RequestRentalInput true "Rental request"
// @Success 201 {object} models.Rental
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /rentals/request [post]
func (s *Server) RequestRental(c *fiber.Ctx) error {
	var req service.RequestRentalInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	rental, err := s.rentalService.Request(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(rental)
}

// GetRenteeRentals handles GET /rentals/rentee
// @Summary Rentals I requested
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param rentee_id query int false "Rentee (legacy identity)"
// @Success 200 {array} models.Rental
// @Router /rentals/rentee [get]
func (s *Server) GetRenteeRentals(c *fiber.Ctx) error {
	rentals, err := s.rentalService.ListForRentee(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rentals)
}

// GetOwnerRentals handles GET /rentals/owner
// @Summary Rentals of my listings
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param owner_id query int false "Owner (legacy identity)"
// @Success 200 {array} models.Rental
// @Router /rentals/owner [get]
func (s *Server) GetOwnerRentals(c *fiber.Ctx) error {
	rentals, err := s.rentalService.ListForOwner(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rentals)
}

// GetRental handles GET /rentals/:id
// @Summary Get rental
// @Tags rentals
// @Produce json
// @Param id path int true "Rental ID"
// @Success 200 {object} models.Rental
// @Failure 404 {object} models.ErrorResponse
// @Router /rentals/{id} [get]
func (s *Server) GetRental(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	rental, err := s.rentalService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rental)
}

// ApproveRental handles POST /rentals/:id/approve
// @Summary Approve rental (owner)
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rental ID"
// @Param user_id query int false "Actor (legacy identity)"
// @Success 200 {object} models.Rental
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rentals/{id}/approve [post]
func (s *Server) ApproveRental(c *fiber.Ctx) error {
	return s.transitionRental(c, s.rentalService.Approve)
}

// DenyRental handles POST /rentals/:id/deny
// @Summary Deny rental (owner)
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rental ID"
// @Param user_id query int false "Actor (legacy identity)"
// @Success 200 {object} models.Rental
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rentals/{id}/deny [post]
func (s *Server) DenyRental(c *fiber.Ctx) error {
	return s.transitionRental(c, s.rentalService.Deny)
}

// ConfirmPickup handles POST /rentals/:id/pickup
// @Summary Confirm pickup
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rental ID"
// @Param user_id query int false "Actor (legacy identity)"
// @Success 200 {object} models.Rental
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rentals/{id}/pickup [post]
func (s *Server) ConfirmPickup(c *fiber.Ctx) error {
	return s.transitionRental(c, s.rentalService.ConfirmPickup)
}

// ConfirmReturn handles POST /rentals/:id/return
// @Summary Confirm return
// @Tags rentals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rental ID"
// @Param user_id query int false "Actor (legacy identity)"
// @Success 200 {object} models.Rental
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rentals/{id}/return [post]
func (s *Server) ConfirmReturn(c *fiber.Ctx) error {
	return s.transitionRental(c, s.rentalService.ConfirmReturn)
}

func (s *Server) transitionRental(c *fiber.Ctx, apply func(ctx context.Context, actorID, id uint) (*models.Rental, error)) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	rental, err := apply(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rental)
}
