package controller

import (
	"context"

	"realty_backend/pkg/apperror"
	"realty_backend/pkg/utils/location"

	"github.com/gofiber/fiber/v2"
)

type LocationSource interface {
	Locations(ctx context.Context) ([]location.Row, error)
}

// LocationController serves the location pickers of the search form from
// the published listings.
type LocationController struct {
	source LocationSource
}

func NewLocationController(source LocationSource) *LocationController {
	return &LocationController{source: source}
}

func (lc *LocationController) tree(c *fiber.Ctx) ([]location.Country, error) {
	rows, err := lc.source.Locations(c.UserContext())
	if err != nil {
		return nil, err
	}
	return location.Build(rows), nil
}

func (lc *LocationController) GetLocationTree(c *fiber.Ctx) error {
	tree, err := lc.tree(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"locations": tree})
}

func (lc *LocationController) GetCountries(c *fiber.Ctx) error {
	tree, err := lc.tree(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"countries": location.Countries(tree)})
}

func (lc *LocationController) GetCitiesByCountry(c *fiber.Ctx) error {
	country := c.Params("country")
	if country == "" {
		return apperror.Validation("country", "Country is required")
	}
	tree, err := lc.tree(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"cities": location.CitiesOf(tree, country)})
}

func (lc *LocationController) GetAreasByCity(c *fiber.Ctx) error {
	city := c.Params("city")
	if city == "" {
		return apperror.Validation("city", "City is required")
	}
	tree, err := lc.tree(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"areas": location.AreasOf(tree, city)})
}
