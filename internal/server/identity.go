package server

import (
	"log/slog"
	"strconv"
	"strings"

	"campusrent/internal/auth"
	"campusrent/internal/cache"
	"campusrent/internal/middleware"
	"campusrent/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localClaims = "claims"
)

// Identity returns middleware that requires a caller. The caller is the subject of a
// bearer token; when ALLOW_QUERY_IDENTITY is on, the legacy query parameter named
// param is accepted as well and must agree with the token if both are sent.
func (s *Server) Identity(param string) fiber.Handler {
	return s.resolveIdentity(param, true)
}

// OptionalIdentity is Identity for rental transitions: in legacy query-identity mode a
// request without any identity proceeds with an unknown actor.
func (s *Server) OptionalIdentity(param string) fiber.Handler {
	return s.resolveIdentity(param, false)
}

func (s *Server) resolveIdentity(param string, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			userID uint
			known  bool
		)

		if token := bearerToken(c); token != "" {
			claims, err := s.tokens.Parse(token)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}

			revoked, err := cache.IsTokenRevoked(c.UserContext(), claims.TokenID)
			if err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "token revocation check failed",
					slog.String("error", err.Error()))
			}
			if revoked {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}

			c.Locals(localClaims, claims)
			userID, known = claims.UserID, true
		}

		if s.config.AllowQueryIdentity && param != "" {
			if raw := c.Query(param); raw != "" {
				id, err := strconv.ParseUint(raw, 10, 32)
				if err != nil || id == 0 {
					return models.RespondWithError(c, fiber.StatusBadRequest,
						models.NewValidationError("Invalid "+param))
				}
				if known && uint(id) != userID {
					return models.RespondWithError(c, fiber.StatusForbidden,
						models.NewForbiddenError(param+" does not match the authenticated user"))
				}
				userID, known = uint(id), true
			}
		}

		if !known {
			if required || !s.config.AllowQueryIdentity {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization required"))
			}
			return c.Next()
		}

		c.Locals(localUserID, userID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// currentUserID is the resolved caller, or service.UnknownActor (0) when none was given.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

func currentClaims(c *fiber.Ctx) (auth.Claims, bool) {
	claims, ok := c.Locals(localClaims).(auth.Claims)
	return claims, ok
}
