package controller

import (
	"realty_backend/internal/middleware"
	"realty_backend/internal/service"
	"realty_backend/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthController struct {
	auth *service.AdminAuth
}

func NewAuthController(auth *service.AdminAuth) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return apperror.Validation("", "Invalid input")
	}
	if input.Username == "" || input.Password == "" {
		return apperror.Validation("username", "Username and password are required")
	}

	result, err := ac.auth.Login(c.UserContext(), input.Username, input.Password, middleware.Meta(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":    "Login successful",
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user": fiber.Map{
			"username": result.Username,
			"role":     result.Role,
		},
	})
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	claims, err := middleware.Admin(c)
	if err != nil {
		return err
	}
	ac.auth.Logout(c.UserContext(), claims)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Verify echoes the token's claims and records activity on the session.
func (ac *AuthController) Verify(c *fiber.Ctx) error {
	claims, err := middleware.Admin(c)
	if err != nil {
		return err
	}
	ac.auth.Touch(c.UserContext(), claims)

	return c.JSON(fiber.Map{
		"valid": true,
		"user": fiber.Map{
			"username": claims.Username,
			"role":     claims.Role,
		},
		"expires_at": claims.ExpiresAt.Time,
	})
}
