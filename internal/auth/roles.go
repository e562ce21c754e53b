package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// RequireActiveUser rejects principals whose account is suspended.
func RequireActiveUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if principal.User.Status != domain.UserStatusActive {
			return fiber.NewError(http.StatusForbidden, "account suspended")
		}
		return c.Next()
	}
}
