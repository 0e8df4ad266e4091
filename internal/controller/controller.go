// Package controller holds the fiber handlers. Each controller is a struct
// built once at startup with its dependencies; handlers return errors and
// leave the response shape of failures to the app's error handler.
package controller

import (
	"strconv"
	"strings"

	"realty_backend/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validationf(name, "Invalid %s", name)
	}
	return uint(id), nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperror.Validationf(key, "%s must be a number", key)
	}
	return &v, nil
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.Validationf(key, "%s must be a whole number", key)
	}
	return &v, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(c.Query(key)))
	switch raw {
	case "":
		return nil, nil
	case "true", "1", "yes":
		v := true
		return &v, nil
	case "false", "0", "no":
		v := false
		return &v, nil
	}
	return nil, apperror.Validationf(key, "%s must be true or false", key)
}

// queryIntOr returns def when the key is absent.
func queryIntOr(c *fiber.Ctx, key string, def int) (int, error) {
	v, err := queryInt(c, key)
	if err != nil || v == nil {
		return def, err
	}
	return *v, nil
}

// parseFields decodes a JSON object body into loosely typed fields.
func parseFields(c *fiber.Ctx) (map[string]any, error) {
	fields := map[string]any{}
	if err := c.BodyParser(&fields); err != nil {
		return nil, apperror.Validation("", "Invalid input")
	}
	return fields, nil
}
