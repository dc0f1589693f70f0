package server

import (
	"campusrent/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateListing handles POST /listings/create
// @Summary Create listing
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "Owner (legacy identity)"
// @Param request body service.CreateListingInput true "Listing"
// @Success 201 {object} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/create [post]
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req service.CreateListingInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	listing, err := s.listingService.Create(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetActiveListings handles GET /listings
// @Summary Active listings
// @Tags listings
// @Produce json
// @Success 200 {array} models.Listing
// @Router /listings [get]
func (s *Server) GetActiveListings(c *fiber.Ctx) error {
	listings, err := s.listingService.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}

// GetUserListings handles GET /users/:id/listings
// @Summary Listings by owner
// @Tags listings
// @Produce json
// @Param id path int true "Owner ID"
// @Success 200 {array} models.Listing
// @Router /users/{id}/listings [get]
func (s *Server) GetUserListings(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listings, err := s.listingService.ListByOwner(c.UserContext(), ownerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}
