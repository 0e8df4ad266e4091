package middleware

import (
	"strings"

	"realty_backend/internal/service"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

const adminKey = "admin"

// RequireAdmin rejects the request unless it carries a valid admin Bearer token.
// The verified claims are stored for handlers in c.Locals("admin").
func RequireAdmin(auth *service.AdminAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.Verify(BearerToken(c))
		if err != nil {
			return err
		}
		c.Locals(adminKey, claims)
		return c.Next()
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Admin returns the claims stored by RequireAdmin.
func Admin(c *fiber.Ctx) (*jwt.Claims, error) {
	claims, ok := c.Locals(adminKey).(*jwt.Claims)
	if !ok || claims == nil {
		return nil, apperror.Unauthorized()
	}
	return claims, nil
}

// Meta collects the client details stored alongside sessions, inquiries and events.
func Meta(c *fiber.Ctx) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
