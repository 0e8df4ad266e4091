package client

import (
	"strings"

	"realty_backend/internal/model"
)

// Criteria is the local counterpart of the API's list filters. Zero values
// match everything.
type Criteria struct {
	Type        string
	Status      string
	City        string
	MinPrice    *float64
	MaxPrice    *float64
	MinBedrooms int
	Furnished   *bool
	Featured    *bool
	Available   *bool
}

func (c Criteria) Match(p *model.Property) bool {
	switch {
	case c.Type != "" && !strings.EqualFold(string(p.Type), c.Type):
		return false
	case c.Status != "" && !strings.EqualFold(string(p.Status), c.Status):
		return false
	case c.City != "" && !strings.EqualFold(p.LocationCity, c.City):
		return false
	case c.MinPrice != nil && p.Price < *c.MinPrice:
		return false
	case c.MaxPrice != nil && p.Price > *c.MaxPrice:
		return false
	case p.Bedrooms < c.MinBedrooms:
		return false
	case c.Furnished != nil && p.Furnished != *c.Furnished:
		return false
	case c.Featured != nil && p.Featured != *c.Featured:
		return false
	case c.Available != nil && p.Available != *c.Available:
		return false
	}
	return true
}

func (c Criteria) Apply(props []model.Property) []model.Property {
	out := []model.Property{}
	for i := range props {
		if c.Match(&props[i]) {
			out = append(out, props[i])
		}
	}
	return out
}

// SearchLocal does a case-insensitive substring match over title,
// description, area and city.
func SearchLocal(props []model.Property, term string) []model.Property {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []model.Property{}
	for _, p := range props {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(strings.ToLower(p.LocationArea), term) ||
			strings.Contains(strings.ToLower(p.LocationCity), term) {
			out = append(out, p)
		}
	}
	return out
}
