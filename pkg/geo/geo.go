package geo

import (
	"errors"

	"realty_backend/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

const MaxRadiusKm = 500

var ErrInvalidPoint = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")

// Area is a search circle.
type Area struct {
	Center   orb.Point
	RadiusKm float64
}

func NewArea(lat, lng, radiusKm float64) (*Area, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidPoint
	}
	if radiusKm <= 0 {
		radiusKm = 10
	}
	if radiusKm > MaxRadiusKm {
		radiusKm = MaxRadiusKm
	}
	return &Area{Center: orb.Point{lng, lat}, RadiusKm: radiusKm}, nil
}

// Bound is the box enclosing the circle, used as a cheap SQL prefilter.
func (a *Area) Bound() orb.Bound {
	return geo.NewBoundAroundPoint(a.Center, a.RadiusKm*1000)
}

// Contains reports whether the listing lies inside the circle.
func (a *Area) Contains(p model.Property) bool {
	if p.Latitude == nil || p.Longitude == nil {
		return false
	}
	return geo.Distance(a.Center, orb.Point{*p.Longitude, *p.Latitude}) <= a.RadiusKm*1000
}

// DistanceKm is the great-circle distance from the centre to the listing.
func (a *Area) DistanceKm(p model.Property) float64 {
	if p.Latitude == nil || p.Longitude == nil {
		return -1
	}
	return geo.Distance(a.Center, orb.Point{*p.Longitude, *p.Latitude}) / 1000
}

// FeatureCollection renders listings that have coordinates as GeoJSON points.
func FeatureCollection(properties []model.Property) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range properties {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		feature := geojson.NewFeature(orb.Point{*p.Longitude, *p.Latitude})
		feature.ID = p.ID
		feature.Properties = geojson.Properties{
			"id":       p.ID,
			"slug":     p.Slug,
			"title":    p.Title,
			"type":     p.Type,
			"status":   p.Status,
			"price":    p.Price,
			"currency": p.Currency,
			"city":     p.LocationCity,
			"area":     p.LocationArea,
			"bedrooms": p.Bedrooms,
			"image":    p.PrimaryImage(),
			"featured": p.Featured,
		}
		fc.Append(feature)
	}
	return fc
}
